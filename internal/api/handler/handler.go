package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/jobry/internal/api/model"
)

// JobFeed serves pages of the deduplicated job feed
type JobFeed interface {
	ListJobs(ctx context.Context, search string, page int) (*model.FeedPage, error)
}

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Feed        JobFeed
	Database    HealthChecker
	ServiceName string
}

// JobHandler handles job feed HTTP requests
type JobHandler struct {
	logger *slog.Logger
	feed   JobFeed
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger: deps.Logger,
		feed:   deps.Feed,
	}
}

// HealthHandler handles liveness/readiness checks
type HealthHandler struct {
	database    HealthChecker
	serviceName string
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(deps *Dependencies) *HealthHandler {
	return &HealthHandler{
		database:    deps.Database,
		serviceName: deps.ServiceName,
	}
}
