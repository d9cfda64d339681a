package jobs

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Both scans run shortly after midnight so documents flip on the day they
// become overdue or expired.
const (
	overdueScanSchedule = "5 0 * * *"
	expireScanSchedule  = "10 0 * * *"
)

// Worker bundles the asynq server and the cron scheduler that enqueues the
// nightly scans.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *slog.Logger
}

func NewWorker(redisAddr string, handlers *Handlers, logger *slog.Logger) (*Worker, error) {
	opt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{"default": 1},
	})

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register(overdueScanSchedule, asynq.NewTask(TypeInvoiceOverdueScan, nil)); err != nil {
		return nil, fmt.Errorf("register overdue scan: %w", err)
	}
	if _, err := scheduler.Register(expireScanSchedule, asynq.NewTask(TypeQuoteExpireScan, nil)); err != nil {
		return nil, fmt.Errorf("register expire scan: %w", err)
	}

	mux := asynq.NewServeMux()
	handlers.Register(mux)

	return &Worker{server: server, scheduler: scheduler, mux: mux, logger: logger}, nil
}

// Run starts the scheduler and blocks processing tasks until Shutdown.
func (w *Worker) Run() error {
	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	w.logger.Info("worker started")
	return w.server.Run(w.mux)
}

// Shutdown stops the scheduler and drains the server.
func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	w.logger.Info("worker stopped")
}

// Client enqueues maintenance tasks on demand, outside the cron schedule.
type Client struct {
	client *asynq.Client
}

func NewClient(redisAddr string) *Client {
	return &Client{client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueScans queues both nightly scans immediately.
func (c *Client) EnqueueScans() error {
	if _, err := c.client.Enqueue(asynq.NewTask(TypeInvoiceOverdueScan, nil)); err != nil {
		return fmt.Errorf("enqueue overdue scan: %w", err)
	}
	if _, err := c.client.Enqueue(asynq.NewTask(TypeQuoteExpireScan, nil)); err != nil {
		return fmt.Errorf("enqueue expire scan: %w", err)
	}
	return nil
}
