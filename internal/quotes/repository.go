package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-billing/atlas-billing/internal/billing"
	"github.com/atlas-billing/atlas-billing/internal/platform/db"
	"github.com/atlas-billing/atlas-billing/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error)
	// Create writes the header and all items in one transaction.
	Create(ctx context.Context, q *Quote) (int64, error)
	// Update applies header updates and, when items is non-nil, replaces
	// the full item list. Header and items commit atomically.
	Update(ctx context.Context, id int64, updates map[string]interface{}, items []QuoteItem) error
	SetStatus(ctx context.Context, id int64, status billing.QuoteStatus) error
	Delete(ctx context.Context, id int64) error
	// ClaimConversion links the quote to its invoice and fixes its status
	// to accepted, but only when no conversion has been recorded yet.
	// Returns false when another conversion won the race.
	ClaimConversion(ctx context.Context, quoteID, invoiceID int64) (bool, error)
	// MarkExpired flips sent quotes past their validity date to expired
	// and returns how many rows changed.
	MarkExpired(ctx context.Context, asOf time.Time) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const quoteColumns = `q.id, q.quote_number, q.customer_id, c.company_name, q.status,
	q.issue_date, q.valid_until, q.subtotal, q.tax_amount, q.total,
	q.notes, q.converted_to_invoice_id, q.created_at, q.updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM quotes q
		JOIN customers c ON c.id = q.customer_id
		WHERE q.id = $1
	`, quoteColumns)

	q, err := scanQuote(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Items = items
	return q, nil
}

func (r *repository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	whereClause := "WHERE 1=1"
	var args []interface{}
	argPos := 1

	if req.Status != nil && *req.Status != "" {
		whereClause += fmt.Sprintf(" AND q.status = $%d", argPos)
		args = append(args, *req.Status)
		argPos++
	}
	if req.CustomerID != nil {
		whereClause += fmt.Sprintf(" AND q.customer_id = $%d", argPos)
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		whereClause += fmt.Sprintf(" AND (q.quote_number ILIKE $%d OR c.company_name ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM quotes q
		JOIN customers c ON c.id = q.customer_id
		%s
	`, whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM quotes q
		JOIN customers c ON c.id = q.customer_id
		%s
		ORDER BY q.issue_date DESC, q.id DESC
		LIMIT $%d OFFSET $%d
	`, quoteColumns, whereClause, argPos, argPos+1)

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q *Quote) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO quotes (quote_number, customer_id, status, issue_date, valid_until,
				subtotal, tax_amount, total, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`,
			q.QuoteNumber, q.CustomerID, q.Status, q.IssueDate, q.ValidUntil,
			q.Subtotal, q.TaxAmount, q.Total, notesValue(q.Notes),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}
		return insertItems(ctx, tx, id, q.Items)
	})
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}, items []QuoteItem) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := "UPDATE quotes SET updated_at = NOW()"
		var args []interface{}
		argPos := 1

		for _, col := range []string{
			"customer_id", "issue_date", "valid_until", "notes",
			"subtotal", "tax_amount", "total",
		} {
			if v, ok := updates[col]; ok {
				query += fmt.Sprintf(", %s = $%d", col, argPos)
				args = append(args, v)
				argPos++
			}
		}

		query += fmt.Sprintf(" WHERE id = $%d", argPos)
		args = append(args, id)

		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}

		if items == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, "DELETE FROM quote_items WHERE quote_id = $1", id); err != nil {
			return fmt.Errorf("clear quote items: %w", err)
		}
		return insertItems(ctx, tx, id, items)
	})
}

func (r *repository) SetStatus(ctx context.Context, id int64, status billing.QuoteStatus) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE quotes SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM quote_items WHERE quote_id = $1", id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, "DELETE FROM quotes WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *repository) ClaimConversion(ctx context.Context, quoteID, invoiceID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes
		SET converted_to_invoice_id = $1, status = 'accepted', updated_at = NOW()
		WHERE id = $2 AND converted_to_invoice_id IS NULL
	`, invoiceID, quoteID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repository) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'sent' AND valid_until < $1
	`, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) loadItems(ctx context.Context, quoteID int64) ([]QuoteItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quote_id, position, product_id, description, quantity, unit,
			unit_price, tax_rate, line_total
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY position
	`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []QuoteItem
	for rows.Next() {
		var it QuoteItem
		var productID pgtype.Int8
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.Position, &productID, &it.Description,
			&it.Quantity, &it.Unit, &it.UnitPrice, &it.TaxRate, &it.LineTotal); err != nil {
			return nil, err
		}
		if productID.Valid {
			v := productID.Int64
			it.ProductID = &v
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, quoteID int64, items []QuoteItem) error {
	for i, it := range items {
		var productID pgtype.Int8
		if it.ProductID != nil {
			productID = pgtype.Int8{Int64: *it.ProductID, Valid: true}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO quote_items (quote_id, position, product_id, description,
				quantity, unit, unit_price, tax_rate, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, quoteID, i+1, productID, it.Description, it.Quantity, it.Unit,
			it.UnitPrice, it.TaxRate, it.LineTotal)
		if err != nil {
			return fmt.Errorf("insert quote item %d: %w", i+1, err)
		}
	}
	return nil
}

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	var notes pgtype.Text
	var converted pgtype.Int8
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&q.ID, &q.QuoteNumber, &q.CustomerID, &q.CustomerName, &q.Status,
		&q.IssueDate, &q.ValidUntil, &q.Subtotal, &q.TaxAmount, &q.Total,
		&notes, &converted, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if notes.Valid {
		v := notes.String
		q.Notes = &v
	}
	if converted.Valid {
		v := converted.Int64
		q.ConvertedToInvoiceID = &v
	}
	if createdAt.Valid {
		q.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		q.UpdatedAt = updatedAt.Time
	}
	return &q, nil
}

func notesValue(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}
