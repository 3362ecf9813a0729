package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maltedev/catalog-crawler/internal/models"
)

// Querier is the subset of DB used by the record queries, so a pgx.Tx or a
// test double can stand in for the pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var schema = []string{`
	CREATE TABLE IF NOT EXISTS product_records (
		id          BIGSERIAL PRIMARY KEY,
		run_id      UUID,
		name        TEXT NOT NULL,
		color       TEXT NOT NULL,
		price       TEXT NOT NULL,
		article_num TEXT NOT NULL,
		summary     TEXT NOT NULL,
		dimension   TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_product_records_article ON product_records (article_num)`,
}

// ProductRecord is one stored row. Rows are only ever inserted.
type ProductRecord struct {
	ID        int64
	RunID     *uuid.UUID
	Record    models.AttributeRecord
	CreatedAt time.Time
}

// EnsureSchema creates the product_records table if it does not exist.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// InsertRecord appends one record. There is no uniqueness constraint, so a
// re-run stores the same record again.
func InsertRecord(ctx context.Context, q Querier, runID *uuid.UUID, rec models.AttributeRecord) error {
	query := `
		INSERT INTO product_records (run_id, name, color, price, article_num, summary, dimension)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := q.Exec(ctx, query,
		runID, rec.Name, rec.Color, rec.Price, rec.ArticleNum, rec.Summary, rec.Dimension,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product record: %w", err)
	}
	return nil
}

// RecordsByArticle returns every stored row for an article number, oldest first.
func RecordsByArticle(ctx context.Context, q Querier, articleNum string) ([]ProductRecord, error) {
	query := `
		SELECT id, run_id, name, color, price, article_num, summary, dimension, created_at
		FROM product_records
		WHERE article_num = $1
		ORDER BY id`

	rows, err := q.Query(ctx, query, articleNum)
	if err != nil {
		return nil, fmt.Errorf("failed to query product records: %w", err)
	}
	defer rows.Close()

	var records []ProductRecord
	for rows.Next() {
		var r ProductRecord
		if err := rows.Scan(
			&r.ID, &r.RunID, &r.Record.Name, &r.Record.Color, &r.Record.Price,
			&r.Record.ArticleNum, &r.Record.Summary, &r.Record.Dimension, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
