// Package app wires configuration, storage, services and HTTP routing into
// a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/atlas-billing/atlas-billing/internal/customers"
	"github.com/atlas-billing/atlas-billing/internal/invoices"
	"github.com/atlas-billing/atlas-billing/internal/platform/db"
	"github.com/atlas-billing/atlas-billing/internal/platform/storage"
	"github.com/atlas-billing/atlas-billing/internal/products"
	"github.com/atlas-billing/atlas-billing/internal/quotes"
	"github.com/atlas-billing/atlas-billing/internal/reminders"
	"github.com/atlas-billing/atlas-billing/internal/reports"
	reporthttp "github.com/atlas-billing/atlas-billing/internal/reports/http"
	"github.com/atlas-billing/atlas-billing/internal/settings"
	"github.com/atlas-billing/atlas-billing/internal/shared"
	"github.com/atlas-billing/atlas-billing/internal/view"
	"github.com/atlas-billing/atlas-billing/web"

	"github.com/jackc/pgx/v5/pgxpool"
)

// App holds the shared infrastructure and the per-module handlers.
type App struct {
	Config *Config
	Logger *slog.Logger

	DB    *pgxpool.Pool
	Redis *redis.Client

	Sessions *shared.SessionManager
	CSRF     *shared.CSRFManager
	Uploads  *storage.LocalStore

	StatsCache *reports.Cache

	// Repositories shared with the worker process.
	InvoiceRepo invoices.Repository
	QuoteRepo   quotes.Repository

	settingsHandler  *settings.Handler
	customersHandler *customers.Handler
	productsHandler  *products.Handler
	invoicesHandler  *invoices.Handler
	quotesHandler    *quotes.Handler
	remindersHandler *reminders.Handler
	reportsHandler   *reporthttp.Handler
}

// New connects the backing services and builds the full handler graph.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*App, error) {
	pool, err := db.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	uploads, err := storage.NewLocalStore(cfg.UploadDir, "/uploads")
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, err
	}

	templates, err := view.NewEngine(web.FS)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, err
	}

	sessions := shared.NewSessionManager(redisClient, "atlas_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrf := shared.NewCSRFManager(cfg.CSRFSecret)
	statsCache := reports.NewCache(redisClient, cfg.CacheTTL)

	settingsRepo := settings.NewRepository(pool)
	settingsSvc := settings.NewService(settingsRepo, uploads)

	customerRepo := customers.NewRepository(pool)
	customerSvc := customers.NewService(customerRepo)

	productRepo := products.NewRepository(pool)
	productSvc := products.NewService(productRepo)

	invoiceRepo := invoices.NewRepository(pool)
	invoiceSvc := invoices.NewService(invoiceRepo, settingsSvc, productSvc, statsCache)

	quoteRepo := quotes.NewRepository(pool)
	quoteSvc := quotes.NewService(quoteRepo, invoiceRepo, settingsSvc, productSvc, statsCache)

	reminderRepo := reminders.NewRepository(pool)
	reminderSvc := reminders.NewService(reminderRepo, invoiceSvc)

	reportRepo := reports.NewRepository(pool)
	reportSvc := reports.NewService(reportRepo, statsCache)

	return &App{
		Config:      cfg,
		Logger:      logger,
		DB:          pool,
		Redis:       redisClient,
		Sessions:    sessions,
		CSRF:        csrf,
		Uploads:     uploads,
		StatsCache:  statsCache,
		InvoiceRepo: invoiceRepo,
		QuoteRepo:   quoteRepo,

		settingsHandler:  settings.NewHandler(logger, settingsSvc, templates, csrf),
		customersHandler: customers.NewHandler(logger, customerSvc, templates, csrf),
		productsHandler:  products.NewHandler(logger, productSvc, templates, csrf),
		invoicesHandler:  invoices.NewHandler(logger, invoiceSvc, customerSvc, productSvc, templates, csrf),
		quotesHandler:    quotes.NewHandler(logger, quoteSvc, customerSvc, productSvc, templates, csrf),
		remindersHandler: reminders.NewHandler(logger, reminderSvc, templates, csrf),
		reportsHandler:   reporthttp.NewHandler(logger, reportSvc, templates, csrf),
	}, nil
}

// Close releases the backing connections.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
