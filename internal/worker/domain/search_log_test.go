package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSearchLog_Validate(t *testing.T) {
	now := time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		log     SearchLog
		wantErr bool
	}{
		{"valid", SearchLog{Query: "golang", Timestamp: now}, false},
		{"padded query kept", SearchLog{Query: "  go ", Timestamp: now}, false},
		{"empty query", SearchLog{Timestamp: now}, true},
		{"blank query", SearchLog{Query: " \t", Timestamp: now}, true},
		{"missing timestamp", SearchLog{Query: "golang"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.log.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestRetryableError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewRetryableError(cause)

	var retryable *RetryableError
	assert.ErrorAs(t, err, &retryable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "retryable error: connection refused", err.Error())
}
