package worker

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/jobry/internal/worker/domain"
)

// processMessage validates and stores one search log. Shutdown does not cut
// an insert short; only the per-message timeout does.
func (w *Worker) processMessage(ctx context.Context, log *domain.SearchLog) error {
	if err := log.Validate(); err != nil {
		return err
	}

	msgCtx := context.WithoutCancel(ctx)
	if w.messageTimeout > 0 {
		var cancel context.CancelFunc
		msgCtx, cancel = context.WithTimeout(msgCtx, w.messageTimeout)
		defer cancel()
	}

	if err := w.storage.InsertSearchLog(msgCtx, log); err != nil {
		return domain.NewRetryableError(err)
	}

	w.logger.Info("Search log recorded",
		slog.String("query", log.Query),
		slog.Time("timestamp", log.Timestamp),
	)

	return nil
}
