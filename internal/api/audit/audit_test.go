package audit

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var submittedAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func TestDatabaseRecorder_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewDatabaseRecorder(sqlx.NewDb(db, "postgres"))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO search_logs (query, timestamp) VALUES ($1, $2)")).
		WithArgs("golang remote", submittedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, r.Record(context.Background(), Entry{Query: "golang remote", Timestamp: submittedAt}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseRecorder_RecordError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewDatabaseRecorder(sqlx.NewDb(db, "postgres"))

	mock.ExpectExec("INSERT INTO search_logs").WillReturnError(errors.New("disk full"))

	err = r.Record(context.Background(), Entry{Query: "golang", Timestamp: submittedAt})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert search log")
}

type fakePublisher struct {
	body        []byte
	contentType string
	err         error
}

func (p *fakePublisher) PublishWithRetry(_ context.Context, body []byte, contentType string) error {
	p.body = body
	p.contentType = contentType
	return p.err
}

func TestQueueRecorder_Record(t *testing.T) {
	pub := &fakePublisher{}
	r := NewQueueRecorder(pub)

	require.NoError(t, r.Record(context.Background(), Entry{Query: "Data Engineer", Timestamp: submittedAt}))

	assert.Equal(t, "application/json", pub.contentType)
	assert.JSONEq(t, `{"query":"Data Engineer","timestamp":"2025-03-01T09:30:00Z"}`, string(pub.body))
}

func TestQueueRecorder_RecordError(t *testing.T) {
	brokerErr := errors.New("channel closed")
	r := NewQueueRecorder(&fakePublisher{err: brokerErr})

	err := r.Record(context.Background(), Entry{Query: "golang", Timestamp: submittedAt})
	require.ErrorIs(t, err, brokerErr)
}

func TestRedisRecorder_Record(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "EVENT_SEARCH_SUBMITTED")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	r := NewRedisRecorder(rdb, "EVENT_SEARCH_SUBMITTED")
	require.NoError(t, r.Record(ctx, Entry{Query: "rust", Timestamp: submittedAt}))

	select {
	case msg := <-sub.Channel():
		var got Entry
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "rust", got.Query)
		assert.True(t, submittedAt.Equal(got.Timestamp))
	case <-time.After(2 * time.Second):
		t.Fatal("no message received on the audit channel")
	}
}

func TestRedisRecorder_RecordError(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: srv.Addr(), MaxRetries: -1})
	defer rdb.Close()
	srv.Close()

	err := NewRedisRecorder(rdb, "EVENT_SEARCH_SUBMITTED").
		Record(context.Background(), Entry{Query: "rust", Timestamp: submittedAt})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish search log to redis")
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Record(context.Background(), Entry{Query: "anything"}))
}
