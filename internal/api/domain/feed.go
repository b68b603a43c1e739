package domain

import (
	"errors"
	"math"
)

// MaxSafeID is the largest identifier a JSON number carries without loss
// in IEEE-754 double precision clients (2^53 - 1).
const MaxSafeID int64 = 1<<53 - 1

var (
	// ErrRetrievalFailed wraps every failure of the feed queries
	ErrRetrievalFailed = errors.New("failed to retrieve jobs")

	// ErrIdentifierOutOfRange is returned when a posting id cannot be
	// serialized as a JSON-safe integer
	ErrIdentifierOutOfRange = errors.New("posting identifier out of safe integer range")

	// ErrInvalidPageWindow is returned for page < 1 or pageSize < 1
	ErrInvalidPageWindow = errors.New("invalid page window")
)

// TotalPages returns ceil(total / pageSize), 0 when there is nothing to show
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Offset returns the number of rows to skip for a 1-based page. ok is false
// when the offset does not fit in an int, which can only happen for pages far
// beyond any real result set.
func Offset(page, pageSize int) (offset int, ok bool) {
	if page < 1 || pageSize < 1 {
		return 0, false
	}
	if page-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}
