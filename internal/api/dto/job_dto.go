package dto

import (
	"fmt"
	"time"

	"github.com/cuongbtq/jobry/internal/api/domain"
	"github.com/cuongbtq/jobry/internal/api/model"
)

// ListJobsRequest is bound from the query string. Page stays a string so a
// malformed value can fall back to the first page instead of failing binding.
type ListJobsRequest struct {
	Search string `form:"search"`
	Page   string `form:"page"`
}

type ListJobsResponse struct {
	Jobs     []JobDTO    `json:"jobs"`
	Metadata MetadataDTO `json:"metadata"`
}

type MetadataDTO struct {
	LatestScrapeDate *time.Time `json:"latestScrapeDate"`
	TotalJobs        int        `json:"totalJobs"`
	CurrentPage      int        `json:"currentPage"`
	TotalPages       int        `json:"totalPages"`
}

type JobDTO struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	ApplyLink string    `json:"apply_link"`
	CreatedAt time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewJobDTO converts a posting for the wire. The id must survive a round
// trip through an IEEE-754 double, otherwise the conversion fails.
func NewJobDTO(p model.Posting) (JobDTO, error) {
	if p.ID > domain.MaxSafeID || p.ID < -domain.MaxSafeID {
		return JobDTO{}, fmt.Errorf("%w: %d", domain.ErrIdentifierOutOfRange, p.ID)
	}

	return JobDTO{
		ID:        p.ID,
		Title:     p.Title,
		Company:   p.Company,
		ApplyLink: p.ApplyLink,
		CreatedAt: p.CreatedAt,
	}, nil
}

// NewListJobsResponse builds the feed envelope. jobs is never null.
func NewListJobsResponse(page *model.FeedPage) (*ListJobsResponse, error) {
	jobs := make([]JobDTO, 0, len(page.Jobs))
	for _, p := range page.Jobs {
		job, err := NewJobDTO(p)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return &ListJobsResponse{
		Jobs: jobs,
		Metadata: MetadataDTO{
			LatestScrapeDate: page.LatestScrapeDate,
			TotalJobs:        page.TotalJobs,
			CurrentPage:      page.CurrentPage,
			TotalPages:       page.TotalPages,
		},
	}, nil
}
