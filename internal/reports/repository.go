package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	PaidRevenue(ctx context.Context, from, to time.Time) (float64, error)
	OpenAmount(ctx context.Context) (float64, error)
	OverdueTotals(ctx context.Context, asOf time.Time) (float64, int, error)
	CountInvoicesByStatus(ctx context.Context, status string) (int, error)
	CountInvoices(ctx context.Context) (int, error)
	CountQuotes(ctx context.Context) (int, error)
	// CountPendingQuotes counts quotes still awaiting a customer decision.
	CountPendingQuotes(ctx context.Context) (int, error)
	CountCustomers(ctx context.Context) (int, error)
	// RecentInvoices returns the latest invoices, newest first.
	RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error)
	// RevenueByMonth returns paid revenue per calendar month of the year,
	// months without payments included as zero rows.
	RevenueByMonth(ctx context.Context, year int) ([]MonthlyRevenue, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) PaidRevenue(ctx context.Context, from, to time.Time) (float64, error) {
	var revenue float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)
		FROM invoices
		WHERE status = 'paid' AND paid_date >= $1 AND paid_date < $2
	`, from, to).Scan(&revenue)
	return revenue, err
}

func (r *repository) OpenAmount(ctx context.Context) (float64, error) {
	var open float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)
		FROM invoices
		WHERE status IN ('sent', 'overdue')
	`).Scan(&open)
	return open, err
}

// OverdueTotals counts persisted overdue rows plus sent rows past due, so
// the figure matches what read-time derivation shows.
func (r *repository) OverdueTotals(ctx context.Context, asOf time.Time) (float64, int, error) {
	var amount float64
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM invoices
		WHERE status = 'overdue' OR (status = 'sent' AND due_date < $1)
	`, asOf).Scan(&amount, &count)
	return amount, count, err
}

func (r *repository) CountInvoicesByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM invoices WHERE status = $1", status).Scan(&count)
	return count, err
}

func (r *repository) CountInvoices(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM invoices").Scan(&count)
	return count, err
}

func (r *repository) CountQuotes(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM quotes").Scan(&count)
	return count, err
}

func (r *repository) CountPendingQuotes(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM quotes WHERE status IN ('draft', 'sent')").Scan(&count)
	return count, err
}

func (r *repository) RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.invoice_number, c.company_name, i.status, i.due_date, i.total
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		ORDER BY i.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recent []RecentInvoice
	for rows.Next() {
		var ri RecentInvoice
		if err := rows.Scan(&ri.ID, &ri.InvoiceNumber, &ri.CustomerName, &ri.Status,
			&ri.DueDate, &ri.Total); err != nil {
			return nil, err
		}
		recent = append(recent, ri)
	}
	return recent, rows.Err()
}

func (r *repository) CountCustomers(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM customers").Scan(&count)
	return count, err
}

func (r *repository) RevenueByMonth(ctx context.Context, year int) ([]MonthlyRevenue, error) {
	rows, err := r.db.Query(ctx, `
		SELECT EXTRACT(MONTH FROM paid_date)::int AS month,
			COALESCE(SUM(total), 0), COUNT(*)
		FROM invoices
		WHERE status = 'paid' AND EXTRACT(YEAR FROM paid_date) = $1
		GROUP BY month
		ORDER BY month
	`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byMonth := make(map[int]MonthlyRevenue)
	for rows.Next() {
		var m MonthlyRevenue
		m.Year = year
		if err := rows.Scan(&m.Month, &m.Revenue, &m.Count); err != nil {
			return nil, err
		}
		byMonth[m.Month] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	months := make([]MonthlyRevenue, 12)
	for i := 0; i < 12; i++ {
		if m, ok := byMonth[i+1]; ok {
			months[i] = m
		} else {
			months[i] = MonthlyRevenue{Year: year, Month: i + 1}
		}
	}
	return months, nil
}
