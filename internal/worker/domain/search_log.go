package domain

import (
	"fmt"
	"strings"
	"time"
)

// SearchLog is one search submission published by the API service
type SearchLog struct {
	Query     string    `json:"query" db:"query"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Validate rejects messages that can never be stored
func (l *SearchLog) Validate() error {
	if strings.TrimSpace(l.Query) == "" {
		return fmt.Errorf("%w: empty query", ErrInvalidPayload)
	}
	if l.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidPayload)
	}
	return nil
}
