package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cuongbtq/jobry/internal/api/domain"
	"github.com/cuongbtq/jobry/internal/api/model"
	"github.com/jmoiron/sqlx"
)

// canonicalJobsCTE selects one row per case-folded (title, company) pair,
// restricted to the latest scrape run. Ties inside a run are broken by id so
// the pick is deterministic.
const canonicalJobsCTE = `
	WITH latest_scrape AS (
		SELECT MAX(created_at) AS created_at
		FROM jobs_jobpost
	),
	ranked AS (
		SELECT
			p.id, p.title, p.company, p.apply_link, p.created_at,
			ROW_NUMBER() OVER (
				PARTITION BY LOWER(p.title), LOWER(p.company)
				ORDER BY p.created_at DESC, p.id DESC
			) AS rn
		FROM jobs_jobpost p
		JOIN latest_scrape l ON p.created_at = l.created_at
	),
	canonical AS (
		SELECT id, title, company, apply_link, created_at
		FROM ranked
		WHERE rn = 1
	)
`

// searchPredicate is shared by the page and count queries. $1 is the
// lowercased, escaped LIKE pattern.
const searchPredicate = `(LOWER(title) LIKE $1 ESCAPE '\' OR LOWER(company) LIKE $1 ESCAPE '\')`

const listCanonicalJobsQuery = canonicalJobsCTE + `
	SELECT id, title, company, apply_link, created_at
	FROM canonical
	WHERE ` + searchPredicate + `
	ORDER BY created_at DESC, id DESC
	LIMIT $2 OFFSET $3
`

const countCanonicalJobsQuery = canonicalJobsCTE + `
	SELECT COUNT(*)
	FROM canonical
	WHERE ` + searchPredicate + `
`

const latestScrapeDateQuery = `SELECT MAX(created_at) FROM jobs_jobpost`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchPattern turns a raw search term into a case-insensitive substring
// LIKE pattern. LIKE metacharacters in the term match literally.
func SearchPattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}

// JobFilter describes one page of the deduplicated feed
type JobFilter struct {
	Search   string
	Page     int
	PageSize int
}

// Storage runs the deduplication queries against the postings table
type Storage struct {
	db *sqlx.DB
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		db: db,
	}
}

// ListCanonicalJobs returns the requested page of canonical jobs matching the
// filter, newest first. Pages past the end yield an empty slice.
func (s *Storage) ListCanonicalJobs(ctx context.Context, filter JobFilter) ([]model.Posting, error) {
	if filter.Page < 1 || filter.PageSize < 1 {
		return nil, fmt.Errorf("%w: page=%d page_size=%d", domain.ErrInvalidPageWindow, filter.Page, filter.PageSize)
	}

	offset, ok := domain.Offset(filter.Page, filter.PageSize)
	if !ok {
		return []model.Posting{}, nil
	}

	jobs := []model.Posting{}
	err := s.db.SelectContext(ctx, &jobs, listCanonicalJobsQuery,
		SearchPattern(filter.Search),
		filter.PageSize,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list canonical jobs: %w", err)
	}

	return jobs, nil
}

// CountCanonicalJobs returns the number of distinct case-folded (title,
// company) pairs of the latest scrape run that match search
func (s *Storage) CountCanonicalJobs(ctx context.Context, search string) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, countCanonicalJobsQuery, SearchPattern(search)); err != nil {
		return 0, fmt.Errorf("failed to count canonical jobs: %w", err)
	}

	return count, nil
}

// LatestScrapeDate returns the newest created_at in the whole table, or nil
// when the table is empty
func (s *Storage) LatestScrapeDate(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	if err := s.db.GetContext(ctx, &latest, latestScrapeDateQuery); err != nil {
		return nil, fmt.Errorf("failed to get latest scrape date: %w", err)
	}

	if !latest.Valid {
		return nil, nil
	}

	return &latest.Time, nil
}
