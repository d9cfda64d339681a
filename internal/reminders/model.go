package reminders

import "time"

// Reminder levels escalate from a friendly payment reminder to formal
// dunning notices. German practice caps the escalation at three levels.
const (
	LevelPaymentReminder = 1
	LevelFirstDunning    = 2
	LevelSecondDunning   = 3

	MaxLevel = LevelSecondDunning
)

// Reminder is one dunning notice sent for an overdue invoice.
type Reminder struct {
	ID        int64     `json:"id"`
	InvoiceID int64     `json:"invoice_id"`
	Level     int       `json:"level"`
	Fee       float64   `json:"fee"`
	SentDate  time.Time `json:"sent_date"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LevelName returns the German label used on the printed notice.
func (r Reminder) LevelName() string {
	return LevelName(r.Level)
}

// LevelName returns the German label for a dunning level.
func LevelName(level int) string {
	switch level {
	case LevelPaymentReminder:
		return "Zahlungserinnerung"
	case LevelFirstDunning:
		return "1. Mahnung"
	case LevelSecondDunning:
		return "2. Mahnung"
	}
	return "Mahnung"
}

// FeeForLevel returns the default dunning fee per escalation level. The
// first reminder stays free.
func FeeForLevel(level int) float64 {
	switch level {
	case LevelFirstDunning:
		return 5
	case LevelSecondDunning:
		return 10
	}
	return 0
}
