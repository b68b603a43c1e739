package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/jobry/internal/worker/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer is the slice of the RabbitMQ client the worker needs
type Consumer interface {
	Qos(prefetchCount int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// LogStore persists search logs
type LogStore interface {
	InsertSearchLog(ctx context.Context, log *domain.SearchLog) error
}

// Config holds worker configuration
type Config struct {
	Logger         *slog.Logger
	Consumer       Consumer
	Store          LogStore
	QueueName      string
	Concurrency    int
	PrefetchCount  int
	MessageTimeout time.Duration
}

// Worker drains the search audit queue into search_logs
type Worker struct {
	logger         *slog.Logger
	consumer       Consumer
	storage        LogStore
	workerID       string
	queueName      string
	concurrency    int
	prefetchCount  int
	messageTimeout time.Duration
	jobsChan       chan *task
	wg             sync.WaitGroup
}

// task is a decoded message together with the delivery to settle
type task struct {
	log      *domain.SearchLog
	delivery amqp.Delivery
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency
	}

	return &Worker{
		logger:         cfg.Logger,
		consumer:       cfg.Consumer,
		storage:        cfg.Store,
		workerID:       "audit-worker-" + uuid.NewString(),
		queueName:      cfg.QueueName,
		concurrency:    concurrency,
		prefetchCount:  prefetch,
		messageTimeout: cfg.MessageTimeout,
		jobsChan:       make(chan *task),
	}
}

// Start subscribes to the queue, spawns the pool and dispatches deliveries
// until ctx is canceled or the broker closes the delivery channel.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("message_timeout", w.messageTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		close(w.jobsChan)
		return err
	}

	w.spawnWorkerPool(ctx)

	return w.startMessageDispatcher(ctx, deliveries)
}

// Stop waits for in-flight messages to be settled, or for ctx to expire
func (w *Worker) Stop(ctx context.Context) error {
	w.logger.Info("Stopping worker...")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
