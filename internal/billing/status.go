package billing

import "time"

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// QuoteStatus enumerates quote lifecycle states.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// ValidInvoiceStatus reports whether s is a known invoice status.
func ValidInvoiceStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// ValidQuoteStatus reports whether s is a known quote status.
func ValidQuoteStatus(s QuoteStatus) bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// CanTransitionInvoice reports whether an invoice may move from one status
// to another. Cancellation is reachable from any non-terminal state.
func CanTransitionInvoice(from, to InvoiceStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case InvoiceStatusDraft:
		return to == InvoiceStatusSent || to == InvoiceStatusCancelled
	case InvoiceStatusSent:
		return to == InvoiceStatusPaid || to == InvoiceStatusOverdue || to == InvoiceStatusCancelled
	case InvoiceStatusOverdue:
		return to == InvoiceStatusPaid || to == InvoiceStatusCancelled
	}
	return false
}

// CanTransitionQuote reports whether a quote may move from one status to another.
func CanTransitionQuote(from, to QuoteStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case QuoteStatusDraft:
		return to == QuoteStatusSent
	case QuoteStatusSent:
		return to == QuoteStatusAccepted || to == QuoteStatusRejected || to == QuoteStatusExpired
	}
	return false
}

// DisplayInvoiceStatus derives the read-time status: a sent invoice past
// its due date displays as overdue without being rewritten in the store.
func DisplayInvoiceStatus(status InvoiceStatus, dueDate, today time.Time) InvoiceStatus {
	if status == InvoiceStatusSent && dueDate.Before(truncateDay(today)) {
		return InvoiceStatusOverdue
	}
	return status
}

// DisplayQuoteStatus derives the read-time status: a sent quote past its
// validity deadline displays as expired.
func DisplayQuoteStatus(status QuoteStatus, validUntil, today time.Time) QuoteStatus {
	if status == QuoteStatusSent && validUntil.Before(truncateDay(today)) {
		return QuoteStatusExpired
	}
	return status
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
