package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/jobry/internal/api/audit"
	"github.com/cuongbtq/jobry/internal/worker/domain"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// InsertSearchLog appends one row to search_logs. The query is stored exactly
// as it was submitted.
func (s *Storage) InsertSearchLog(ctx context.Context, log *domain.SearchLog) error {
	if _, err := s.db.NamedExecContext(ctx, audit.InsertSearchLogQuery, log); err != nil {
		return fmt.Errorf("failed to insert search log: %w", err)
	}

	s.logger.Debug("Search log stored",
		slog.String("query", log.Query),
		slog.Time("timestamp", log.Timestamp),
	)

	return nil
}
