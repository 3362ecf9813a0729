package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/catalog-crawler/internal/models"
)

type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	called := m.Called(ctx, sql, args)
	return pgconn.NewCommandTag("INSERT 0 1"), called.Error(0)
}

func (m *MockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	called := m.Called(ctx, sql, args)
	return nil, called.Error(0)
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "crawler", Password: "secret", Database: "catalog"}
	assert.Equal(t, "postgres://crawler:secret@db:5432/catalog?sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Equal(t, "postgres://crawler:secret@db:5432/catalog?sslmode=require", cfg.DSN())
}

func TestInsertRecord(t *testing.T) {
	ctx := context.Background()
	rec := models.AttributeRecord{
		Name: "BILLY", Color: "white", Price: "299", ArticleNum: "002.638.50",
		Summary: "Bookcase", Dimension: models.NotSpecified,
	}
	runID := uuid.New()

	t.Run("binds every column in order", func(t *testing.T) {
		q := new(MockQuerier)
		q.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
			return strings.Contains(sql, "INSERT INTO product_records")
		}), []any{&runID, "BILLY", "white", "299", "002.638.50", "Bookcase", models.NotSpecified}).Return(nil)

		require.NoError(t, InsertRecord(ctx, q, &runID, rec))
		q.AssertExpectations(t)
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		q := new(MockQuerier)
		q.On("Exec", ctx, mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		err := InsertRecord(ctx, q, nil, rec)
		assert.ErrorContains(t, err, "failed to insert product record")
	})
}

func TestEnsureSchema(t *testing.T) {
	ctx := context.Background()
	q := new(MockQuerier)
	q.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "CREATE TABLE IF NOT EXISTS product_records")
	}), []any(nil)).Return(nil).Once()
	q.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "CREATE INDEX IF NOT EXISTS")
	}), []any(nil)).Return(nil).Once()

	require.NoError(t, EnsureSchema(ctx, q))
	q.AssertExpectations(t)

	failing := new(MockQuerier)
	failing.On("Exec", ctx, mock.Anything, mock.Anything).Return(errors.New("permission denied")).Once()
	assert.ErrorContains(t, EnsureSchema(ctx, failing), "failed to create schema")
}
