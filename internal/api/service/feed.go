package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cuongbtq/jobry/internal/api/audit"
	"github.com/cuongbtq/jobry/internal/api/domain"
	"github.com/cuongbtq/jobry/internal/api/model"
	"github.com/cuongbtq/jobry/internal/api/storage"
	"golang.org/x/sync/errgroup"
)

// JobStore is the read side of the deduplication engine
type JobStore interface {
	ListCanonicalJobs(ctx context.Context, filter storage.JobFilter) ([]model.Posting, error)
	CountCanonicalJobs(ctx context.Context, search string) (int, error)
	LatestScrapeDate(ctx context.Context) (*time.Time, error)
}

// Config holds FeedService dependencies
type Config struct {
	Logger       *slog.Logger
	Store        JobStore
	Recorder     audit.Recorder
	PageSize     int
	QueryTimeout time.Duration
	AuditTimeout time.Duration
}

// FeedService answers feed requests: it fans out the page, count and latest
// scrape queries and records the search term on the side.
type FeedService struct {
	logger       *slog.Logger
	store        JobStore
	recorder     audit.Recorder
	pageSize     int
	queryTimeout time.Duration
	auditTimeout time.Duration
	now          func() time.Time

	audits sync.WaitGroup
}

// NewFeedService creates a new FeedService
func NewFeedService(cfg *Config) *FeedService {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = audit.Discard{}
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	return &FeedService{
		logger:       cfg.Logger,
		store:        cfg.Store,
		recorder:     recorder,
		pageSize:     pageSize,
		queryTimeout: cfg.QueryTimeout,
		auditTimeout: cfg.AuditTimeout,
		now:          time.Now,
	}
}

// PageSize returns the number of jobs per page
func (s *FeedService) PageSize() int {
	return s.pageSize
}

// ListJobs returns one page of the deduplicated feed. Any query failure fails
// the whole page; audit failures never do.
func (s *FeedService) ListJobs(ctx context.Context, search string, page int) (*model.FeedPage, error) {
	if page < 1 {
		page = 1
	}

	s.recordSearch(ctx, search)

	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	var (
		jobs   []model.Posting
		total  int
		latest *time.Time
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		jobs, err = s.store.ListCanonicalJobs(gctx, storage.JobFilter{
			Search:   search,
			Page:     page,
			PageSize: s.pageSize,
		})
		return err
	})

	g.Go(func() error {
		var err error
		total, err = s.store.CountCanonicalJobs(gctx, search)
		return err
	})

	g.Go(func() error {
		var err error
		latest, err = s.store.LatestScrapeDate(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
	}

	if jobs == nil {
		jobs = []model.Posting{}
	}

	return &model.FeedPage{
		Jobs:             jobs,
		TotalJobs:        total,
		LatestScrapeDate: latest,
		CurrentPage:      page,
		PageSize:         s.pageSize,
		TotalPages:       domain.TotalPages(total, s.pageSize),
	}, nil
}

// recordSearch writes the audit entry in the background. The write outlives
// the request context but is bounded by the audit timeout.
func (s *FeedService) recordSearch(ctx context.Context, search string) {
	if strings.TrimSpace(search) == "" {
		return
	}

	entry := audit.Entry{Query: search, Timestamp: s.now()}

	s.audits.Add(1)
	go func() {
		defer s.audits.Done()

		actx := context.WithoutCancel(ctx)
		if s.auditTimeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(actx, s.auditTimeout)
			defer cancel()
		}

		if err := s.recorder.Record(actx, entry); err != nil {
			s.logger.Warn("Failed to record search",
				slog.String("query", entry.Query),
				slog.Any("error", err),
			)
		}
	}()
}

// Wait blocks until pending audit writes finish or ctx is done
func (s *FeedService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.audits.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
