package reminders

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	ListByInvoice(ctx context.Context, invoiceID int64) ([]Reminder, error)
	// MaxLevelByInvoice returns the highest level sent so far, zero when
	// no reminder exists yet.
	MaxLevelByInvoice(ctx context.Context, invoiceID int64) (int, error)
	Create(ctx context.Context, rem Reminder) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) ListByInvoice(ctx context.Context, invoiceID int64) ([]Reminder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, level, fee, sent_date, notes, created_at
		FROM reminders
		WHERE invoice_id = $1
		ORDER BY level
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var rem Reminder
		var notes pgtype.Text
		var createdAt pgtype.Timestamptz
		if err := rows.Scan(&rem.ID, &rem.InvoiceID, &rem.Level, &rem.Fee, &rem.SentDate, &notes, &createdAt); err != nil {
			return nil, err
		}
		if notes.Valid {
			v := notes.String
			rem.Notes = &v
		}
		if createdAt.Valid {
			rem.CreatedAt = createdAt.Time
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

func (r *repository) MaxLevelByInvoice(ctx context.Context, invoiceID int64) (int, error) {
	var level int
	err := r.db.QueryRow(ctx,
		"SELECT COALESCE(MAX(level), 0) FROM reminders WHERE invoice_id = $1", invoiceID,
	).Scan(&level)
	return level, err
}

func (r *repository) Create(ctx context.Context, rem Reminder) (int64, error) {
	var notes pgtype.Text
	if rem.Notes != nil {
		notes = pgtype.Text{String: *rem.Notes, Valid: true}
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO reminders (invoice_id, level, fee, sent_date, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, rem.InvoiceID, rem.Level, rem.Fee, rem.SentDate, notes).Scan(&id)
	return id, err
}
