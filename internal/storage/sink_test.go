package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/catalog-crawler/internal/models"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Append(ctx context.Context, rec models.AttributeRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockSink) Close() error {
	return m.Called().Error(0)
}

// MockRedisClient is a mock for Redis client
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if mockArgs.Get(0) != nil {
		cmd.SetErr(mockArgs.Error(0))
	} else {
		cmd.SetVal("1234567890-0")
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	return m.Called().Error(0)
}

type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	called := m.Called(ctx, sql, args)
	return pgconn.NewCommandTag("INSERT 0 1"), called.Error(0)
}

func (m *MockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, m.Called(ctx, sql, args).Error(0)
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	rec := sampleRecord("1")

	t.Run("appends to every sink even after a failure", func(t *testing.T) {
		first, second := new(MockSink), new(MockSink)
		boom := errors.New("disk full")
		first.On("Append", ctx, rec).Return(boom)
		second.On("Append", ctx, rec).Return(nil)

		err := NewMulti(first, second).Append(ctx, rec)

		assert.ErrorIs(t, err, boom)
		first.AssertExpectations(t)
		second.AssertExpectations(t)
	})

	t.Run("close joins errors", func(t *testing.T) {
		first, second := new(MockSink), new(MockSink)
		e1, e2 := errors.New("a"), errors.New("b")
		first.On("Close").Return(e1)
		second.On("Close").Return(e2)

		err := NewMulti(first, second).Close()
		assert.ErrorIs(t, err, e1)
		assert.ErrorIs(t, err, e2)
	})

	t.Run("incomplete record reaches no sink", func(t *testing.T) {
		sink := new(MockSink)
		partial := rec
		partial.Dimension = ""

		err := NewMulti(sink).Append(ctx, partial)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid record")
		sink.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("no sinks", func(t *testing.T) {
		assert.NoError(t, NewMulti().Append(ctx, rec))
	})
}

func TestRunID(t *testing.T) {
	_, ok := RunIDFrom(context.Background())
	assert.False(t, ok)

	id := uuid.New()
	got, ok := RunIDFrom(WithRunID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestStream_Append(t *testing.T) {
	runID := uuid.New()
	ctx := WithRunID(context.Background(), runID)
	rec := sampleRecord("002.638.50")
	fixed := time.Unix(1700000000, 0)

	t.Run("publishes one entry per record", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("XAdd", ctx, mock.MatchedBy(func(args *redis.XAddArgs) bool {
			values := args.Values.(map[string]any)
			return args.Stream == DefaultStream &&
				values["article_num"] == "002.638.50" &&
				values["run_id"] == runID.String() &&
				values["timestamp"] == "1700000000000000000"
		})).Return(nil).Once()

		s := NewStream(client, "")
		s.now = func() time.Time { return fixed }

		require.NoError(t, s.Append(ctx, rec))
		client.AssertExpectations(t)
	})

	t.Run("wraps publish errors", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("XAdd", mock.Anything, mock.Anything).Return(errors.New("READONLY"))

		err := NewStream(client, "custom").Append(ctx, rec)
		assert.ErrorContains(t, err, "failed to publish to redis")
	})
}

func TestPostgres_Append(t *testing.T) {
	runID := uuid.New()
	ctx := WithRunID(context.Background(), runID)
	rec := sampleRecord("1")

	q := new(MockQuerier)
	q.On("Exec", ctx, mock.Anything, mock.MatchedBy(func(args []any) bool {
		id, ok := args[0].(*uuid.UUID)
		return ok && *id == runID && args[4] == "1"
	})).Return(nil).Once()

	require.NoError(t, NewPostgres(q).Append(ctx, rec))
	q.AssertExpectations(t)

	plain := new(MockQuerier)
	plain.On("Exec", mock.Anything, mock.Anything, mock.MatchedBy(func(args []any) bool {
		id, ok := args[0].(*uuid.UUID)
		return ok && id == nil
	})).Return(nil).Once()

	require.NoError(t, NewPostgres(plain).Append(context.Background(), rec))
	plain.AssertExpectations(t)
}
