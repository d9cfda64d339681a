package billing

import "fmt"

// FormatDocumentNumber composes the user-visible document number:
// <prefix><year>-<sequence zero-padded to 3 digits>, e.g. "RE2026-007".
// Sequences above 999 widen naturally instead of wrapping.
func FormatDocumentNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s%d-%03d", prefix, year, seq)
}
