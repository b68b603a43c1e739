// Package audit records submitted search terms. Every sink is fire-and-forget
// from the caller's point of view: errors are returned so the caller can log
// them, never to fail a feed request.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
)

// Entry is one search submission
type Entry struct {
	Query     string    `json:"query" db:"query"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Recorder persists or forwards search entries
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// DatabaseRecorder inserts entries straight into search_logs
type DatabaseRecorder struct {
	db *sqlx.DB
}

// InsertSearchLogQuery appends one row to search_logs. The audit worker runs
// the same statement.
const InsertSearchLogQuery = `INSERT INTO search_logs (query, timestamp) VALUES (:query, :timestamp)`

// NewDatabaseRecorder creates a recorder that writes to search_logs
func NewDatabaseRecorder(db *sqlx.DB) *DatabaseRecorder {
	return &DatabaseRecorder{db: db}
}

// Record inserts the entry. The query is stored exactly as submitted.
func (r *DatabaseRecorder) Record(ctx context.Context, entry Entry) error {
	if _, err := r.db.NamedExecContext(ctx, InsertSearchLogQuery, entry); err != nil {
		return fmt.Errorf("failed to insert search log: %w", err)
	}
	return nil
}

// Publisher is the slice of the RabbitMQ client the queue sink needs
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// QueueRecorder publishes entries to RabbitMQ for the audit worker
type QueueRecorder struct {
	publisher Publisher
}

// NewQueueRecorder creates a recorder that publishes JSON entries
func NewQueueRecorder(publisher Publisher) *QueueRecorder {
	return &QueueRecorder{publisher: publisher}
}

// Record publishes the entry as JSON, retrying per the publisher's policy
func (r *QueueRecorder) Record(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal search log: %w", err)
	}

	if err := r.publisher.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish search log: %w", err)
	}
	return nil
}

// RedisRecorder publishes entries on a Redis pub/sub channel for analytics
// consumers
type RedisRecorder struct {
	rdb     *goredis.Client
	channel string
}

// NewRedisRecorder creates a recorder that publishes on channel
func NewRedisRecorder(rdb *goredis.Client, channel string) *RedisRecorder {
	return &RedisRecorder{rdb: rdb, channel: channel}
}

// Record publishes the entry as JSON. Entries are lost when no subscriber is
// listening.
func (r *RedisRecorder) Record(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal search log: %w", err)
	}

	if err := r.rdb.Publish(ctx, r.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish search log to redis: %w", err)
	}
	return nil
}

// Discard drops every entry (audit.sink: none)
type Discard struct{}

// Record does nothing
func (Discard) Record(context.Context, Entry) error { return nil }
