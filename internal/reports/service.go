package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atlas-billing/atlas-billing/internal/billing"
)

const recentInvoiceLimit = 5

type Service struct {
	repo  Repository
	cache *Cache
	now   func() time.Time
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// Dashboard computes the start page aggregates, fanning the independent
// queries out in parallel. Results are cached until the next document write.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var cached DashboardStats
	if hit, err := s.cache.Get(ctx, "dashboard", &cached); err == nil && hit {
		return &cached, nil
	}

	now := s.now()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextYear := yearStart.AddDate(1, 0, 0)
	nextMonth := monthStart.AddDate(0, 1, 0)

	var stats DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.repo.PaidRevenue(gctx, yearStart, nextYear)
		stats.Revenue = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.PaidRevenue(gctx, monthStart, nextMonth)
		stats.RevenueMonth = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.OpenAmount(gctx)
		stats.OpenAmount = v
		return err
	})
	g.Go(func() error {
		amount, count, err := s.repo.OverdueTotals(gctx, now)
		stats.OverdueAmount = amount
		stats.OverdueCount = count
		return err
	})
	g.Go(func() error {
		v, err := s.repo.CountInvoicesByStatus(gctx, string(billing.InvoiceStatusDraft))
		stats.DraftCount = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.CountInvoices(gctx)
		stats.InvoiceCount = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.CountQuotes(gctx)
		stats.QuoteCount = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.CountPendingQuotes(gctx)
		stats.PendingQuoteCount = v
		return err
	})
	g.Go(func() error {
		v, err := s.repo.CountCustomers(gctx)
		stats.CustomerCount = v
		return err
	})
	g.Go(func() error {
		recent, err := s.repo.RecentInvoices(gctx, recentInvoiceLimit)
		stats.RecentInvoices = recent
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute dashboard stats: %w", err)
	}

	// Rows persisted as sent can already be past due.
	for i, ri := range stats.RecentInvoices {
		stats.RecentInvoices[i].Status = billing.DisplayInvoiceStatus(ri.Status, ri.DueDate, now)
	}

	_ = s.cache.Set(ctx, "dashboard", stats)
	return &stats, nil
}

// Revenue returns the per-month paid revenue of a year.
func (s *Service) Revenue(ctx context.Context, year int) ([]MonthlyRevenue, error) {
	if year == 0 {
		year = s.now().Year()
	}

	key := fmt.Sprintf("revenue:%d", year)
	var cached []MonthlyRevenue
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	months, err := s.repo.RevenueByMonth(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("compute revenue for %d: %w", year, err)
	}

	_ = s.cache.Set(ctx, key, months)
	return months, nil
}
