package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuongbtq/jobry/internal/api/domain"
	"github.com/cuongbtq/jobry/internal/api/model"
	"github.com/cuongbtq/jobry/shared/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	page  *model.FeedPage
	err   error
	calls []feedCall
}

type feedCall struct {
	search string
	page   int
}

func (f *fakeFeed) ListJobs(_ context.Context, search string, page int) (*model.FeedPage, error) {
	f.calls = append(f.calls, feedCall{search: search, page: page})
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

type fakeHealth struct {
	err error
}

func (f fakeHealth) HealthCheck(context.Context) error {
	return f.err
}

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 1},
		{"1", 1},
		{"7", 7},
		{"0", 1},
		{"-3", 1},
		{"abc", 1},
		{"2.5", 1},
		{"99999999999999999999999", math.MaxInt},
		{"-99999999999999999999999", 1},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePage(tt.raw))
		})
	}
}

func TestJobHandler_ListJobs(t *testing.T) {
	latest := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		feed := &fakeFeed{page: &model.FeedPage{
			Jobs: []model.Posting{
				{ID: 3, Title: "Engineer", Company: "Acme", ApplyLink: "https://acme.example/3", CreatedAt: latest},
			},
			TotalJobs:        11,
			LatestScrapeDate: &latest,
			CurrentPage:      2,
			PageSize:         10,
			TotalPages:       2,
		}}
		h := NewJobHandler(&Dependencies{Logger: logger.NewNop().Logger, Feed: feed})

		c, w := newTestContext("/jobs?search=Engineer&page=2")
		h.ListJobs(c)

		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, feed.calls, 1)
		assert.Equal(t, feedCall{search: "Engineer", page: 2}, feed.calls[0])

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

		jobs := body["jobs"].([]any)
		require.Len(t, jobs, 1)
		job := jobs[0].(map[string]any)
		assert.Equal(t, float64(3), job["id"])
		assert.Equal(t, "https://acme.example/3", job["apply_link"])

		meta := body["metadata"].(map[string]any)
		assert.Equal(t, float64(11), meta["totalJobs"])
		assert.Equal(t, float64(2), meta["currentPage"])
		assert.Equal(t, float64(2), meta["totalPages"])
		assert.Equal(t, "2025-03-01T06:00:00Z", meta["latestScrapeDate"])
	})

	t.Run("invalid page falls back to first", func(t *testing.T) {
		feed := &fakeFeed{page: &model.FeedPage{CurrentPage: 1, PageSize: 10}}
		h := NewJobHandler(&Dependencies{Logger: logger.NewNop().Logger, Feed: feed})

		c, w := newTestContext("/jobs?page=banana")
		h.ListJobs(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, feedCall{search: "", page: 1}, feed.calls[0])
		assert.JSONEq(t,
			`{"jobs":[],"metadata":{"latestScrapeDate":null,"totalJobs":0,"currentPage":1,"totalPages":0}}`,
			w.Body.String())
	})

	t.Run("oversized page is passed as past the end", func(t *testing.T) {
		feed := &fakeFeed{page: &model.FeedPage{CurrentPage: math.MaxInt, PageSize: 10, TotalJobs: 3, TotalPages: 1}}
		h := NewJobHandler(&Dependencies{Logger: logger.NewNop().Logger, Feed: feed})

		c, w := newTestContext("/jobs?page=99999999999999999999")
		h.ListJobs(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, feedCall{search: "", page: math.MaxInt}, feed.calls[0])

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Empty(t, body["jobs"])
	})

	t.Run("search is passed through untrimmed", func(t *testing.T) {
		feed := &fakeFeed{page: &model.FeedPage{CurrentPage: 1, PageSize: 10}}
		h := NewJobHandler(&Dependencies{Logger: logger.NewNop().Logger, Feed: feed})

		c, _ := newTestContext("/jobs?search=%20go%20")
		h.ListJobs(c)

		assert.Equal(t, " go ", feed.calls[0].search)
	})

	t.Run("retrieval failure is a generic 500", func(t *testing.T) {
		feed := &fakeFeed{err: errors.Join(domain.ErrRetrievalFailed, errors.New("pq: relation does not exist"))}
		h := NewJobHandler(&Dependencies{Logger: logger.NewNop().Logger, Feed: feed})

		c, w := newTestContext("/jobs?search=go")
		h.ListJobs(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Failed to fetch jobs"}`, w.Body.String())
		assert.NotContains(t, w.Body.String(), "pq:")
	})

	t.Run("unsafe id fails the whole page", func(t *testing.T) {
		feed := &fakeFeed{page: &model.FeedPage{
			Jobs: []model.Posting{
				{ID: 1, Title: "a", Company: "b", CreatedAt: latest},
				{ID: domain.MaxSafeID + 1, Title: "c", Company: "d", CreatedAt: latest},
			},
			TotalJobs:   2,
			CurrentPage: 1,
			PageSize:    10,
			TotalPages:  1,
		}}
		h := NewJobHandler(&Dependencies{Logger: logger.NewNop().Logger, Feed: feed})

		c, w := newTestContext("/jobs")
		h.ListJobs(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Failed to fetch jobs"}`, w.Body.String())
	})
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		database   HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"healthy", fakeHealth{}, http.StatusOK, "healthy"},
		{"no database configured", nil, http.StatusOK, "healthy"},
		{"database down", fakeHealth{err: errors.New("dial tcp: connection refused")}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(&Dependencies{Database: tt.database, ServiceName: "jobry-api"})

			c, w := newTestContext("/health")
			h.Health(c)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
			assert.Equal(t, "jobry-api", body["service"])
		})
	}
}
