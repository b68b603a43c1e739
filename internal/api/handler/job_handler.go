package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/cuongbtq/jobry/internal/api/dto"
	"github.com/gin-gonic/gin"
)

// fetchFailedMessage is the only error detail a feed client ever sees
const fetchFailedMessage = "Failed to fetch jobs"

// ParsePage returns the 1-based page number from the raw query value.
// Missing, non-numeric and non-positive values all mean the first page. A
// positive number too large for int still names a page past the end, so it is
// clamped to math.MaxInt and served as an empty page.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && page > 0 {
		return math.MaxInt
	}
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ListJobs handles GET /jobs
// Returns one page of unique postings from the latest scrape run
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		// only string fields, so this is a malformed query string
		h.logger.Warn("Invalid query parameters", slog.String("error", err.Error()))
	}

	page := ParsePage(req.Page)

	h.logger.Debug("ListJobs called",
		slog.String("search", req.Search),
		slog.Int("page", page),
	)

	result, err := h.feed.ListJobs(c.Request.Context(), req.Search, page)
	if err != nil {
		h.logger.Error("Failed to fetch jobs",
			slog.String("search", req.Search),
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: fetchFailedMessage})
		return
	}

	resp, err := dto.NewListJobsResponse(result)
	if err != nil {
		h.logger.Error("Failed to serialize jobs",
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: fetchFailedMessage})
		return
	}

	c.JSON(http.StatusOK, resp)
}
