package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-billing/atlas-billing/internal/billing"
	"github.com/atlas-billing/atlas-billing/internal/platform/db"
	"github.com/atlas-billing/atlas-billing/internal/shared"
)

const fkViolationCode = "23503"

type Repository interface {
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	// Create writes the header and all items in one transaction.
	Create(ctx context.Context, inv *Invoice) (int64, error)
	// Update applies header updates and, when items is non-nil, replaces
	// the full item list. Header and items commit atomically.
	Update(ctx context.Context, id int64, updates map[string]interface{}, items []InvoiceItem) error
	SetStatus(ctx context.Context, id int64, status billing.InvoiceStatus, paidDate *time.Time) error
	Delete(ctx context.Context, id int64) error
	// MarkOverdue flips sent invoices past their due date to overdue and
	// returns how many rows changed.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const invoiceColumns = `i.id, i.invoice_number, i.customer_id, c.company_name, i.status,
	i.issue_date, i.due_date, i.delivery_date, i.paid_date, i.subtotal, i.tax_amount, i.total,
	i.payment_terms, i.notes, i.created_at, i.updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.id = $1
	`, invoiceColumns)

	inv, err := scanInvoice(r.db.QueryRow(ctx, query, id))
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
	inv.Items = items
	return inv, nil
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	whereClause := "WHERE 1=1"
	var args []interface{}
	argPos := 1

	if req.Status != nil && *req.Status != "" {
		whereClause += fmt.Sprintf(" AND i.status = $%d", argPos)
		args = append(args, *req.Status)
		argPos++
	}
	if req.CustomerID != nil {
		whereClause += fmt.Sprintf(" AND i.customer_id = $%d", argPos)
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		whereClause += fmt.Sprintf(" AND (i.invoice_number ILIKE $%d OR c.company_name ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		%s
	`, whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		%s
		ORDER BY i.issue_date DESC, i.id DESC
		LIMIT $%d OFFSET $%d
	`, invoiceColumns, whereClause, argPos, argPos+1)

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

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, inv *Invoice) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO invoices (invoice_number, customer_id, status, issue_date, due_date,
				delivery_date, subtotal, tax_amount, total, payment_terms, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id
		`,
			inv.InvoiceNumber, inv.CustomerID, inv.Status, inv.IssueDate, inv.DueDate,
			dateValue(inv.DeliveryDate), inv.Subtotal, inv.TaxAmount, inv.Total,
			notesValue(inv.PaymentTerms), notesValue(inv.Notes),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		return insertItems(ctx, tx, id, inv.Items)
	})
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}, items []InvoiceItem) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := "UPDATE invoices SET updated_at = NOW()"
		var args []interface{}
		argPos := 1

		for _, col := range []string{
			"customer_id", "issue_date", "due_date", "delivery_date",
			"payment_terms", "notes", "subtotal", "tax_amount", "total",
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
			return fmt.Errorf("update invoice: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}

		if items == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, "DELETE FROM invoice_items WHERE invoice_id = $1", id); err != nil {
			return fmt.Errorf("clear invoice items: %w", err)
		}
		return insertItems(ctx, tx, id, items)
	})
}

func (r *repository) SetStatus(ctx context.Context, id int64, status billing.InvoiceStatus, paidDate *time.Time) error {
	var tag pgconn.CommandTag
	var err error
	if paidDate != nil {
		tag, err = r.db.Exec(ctx,
			"UPDATE invoices SET status = $1, paid_date = $2, updated_at = NOW() WHERE id = $3",
			status, *paidDate, id)
	} else {
		tag, err = r.db.Exec(ctx,
			"UPDATE invoices SET status = $1, paid_date = NULL, updated_at = NOW() WHERE id = $2",
			status, id)
	}
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
		if _, err := tx.Exec(ctx, "DELETE FROM invoice_items WHERE invoice_id = $1", id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, "DELETE FROM invoices WHERE id = $1", id)
		if err != nil {
			// A converted quote keeps a foreign key onto its invoice.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == fkViolationCode {
				return fmt.Errorf("%w: invoice is referenced by a quote", shared.ErrConstraintViolation)
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *repository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET status = 'overdue', updated_at = NOW()
		WHERE status = 'sent' AND due_date < $1
	`, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) loadItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, position, product_id, description, quantity, unit,
			unit_price, tax_rate, line_total
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		var it InvoiceItem
		var productID pgtype.Int8
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Position, &productID, &it.Description,
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

func insertItems(ctx context.Context, tx pgx.Tx, invoiceID int64, items []InvoiceItem) error {
	for i, it := range items {
		var productID pgtype.Int8
		if it.ProductID != nil {
			productID = pgtype.Int8{Int64: *it.ProductID, Valid: true}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_items (invoice_id, position, product_id, description,
				quantity, unit, unit_price, tax_rate, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, invoiceID, i+1, productID, it.Description, it.Quantity, it.Unit,
			it.UnitPrice, it.TaxRate, it.LineTotal)
		if err != nil {
			return fmt.Errorf("insert invoice item %d: %w", i+1, err)
		}
	}
	return nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var deliveryDate, paidDate pgtype.Date
	var paymentTerms, notes pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &inv.CustomerName, &inv.Status,
		&inv.IssueDate, &inv.DueDate, &deliveryDate, &paidDate, &inv.Subtotal, &inv.TaxAmount, &inv.Total,
		&paymentTerms, &notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deliveryDate.Valid {
		v := deliveryDate.Time
		inv.DeliveryDate = &v
	}
	if paidDate.Valid {
		v := paidDate.Time
		inv.PaidDate = &v
	}
	if paymentTerms.Valid {
		v := paymentTerms.String
		inv.PaymentTerms = &v
	}
	if notes.Valid {
		v := notes.String
		inv.Notes = &v
	}
	if createdAt.Valid {
		inv.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		inv.UpdatedAt = updatedAt.Time
	}
	return &inv, nil
}

func notesValue(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func dateValue(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}
