package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/atlas-billing/atlas-billing/internal/app"
	"github.com/atlas-billing/atlas-billing/internal/invoices"
	"github.com/atlas-billing/atlas-billing/internal/platform/db"
	"github.com/atlas-billing/atlas-billing/internal/quotes"
	"github.com/atlas-billing/atlas-billing/internal/reports"
	"github.com/atlas-billing/atlas-billing/jobs"
)

func main() {
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Error("connect postgres failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	handlers := jobs.NewHandlers(
		logger,
		invoices.NewRepository(pool),
		quotes.NewRepository(pool),
		reports.NewCache(redisClient, cfg.CacheTTL),
	)

	worker, err := jobs.NewWorker(cfg.RedisAddr, handlers, logger)
	if err != nil {
		logger.Error("build worker failed", "error", err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		worker.Shutdown()
	}()

	if err := worker.Run(); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
}
