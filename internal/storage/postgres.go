package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/maltedev/catalog-crawler/internal/database"
	"github.com/maltedev/catalog-crawler/internal/models"
)

// Postgres appends one row per record to the product_records table.
type Postgres struct {
	q database.Querier
}

func NewPostgres(q database.Querier) *Postgres {
	return &Postgres{q: q}
}

// Init creates the table when it is missing.
func (p *Postgres) Init(ctx context.Context) error {
	return database.EnsureSchema(ctx, p.q)
}

func (p *Postgres) Append(ctx context.Context, rec models.AttributeRecord) error {
	var runID *uuid.UUID
	if id, ok := RunIDFrom(ctx); ok {
		runID = &id
	}
	return database.InsertRecord(ctx, p.q, runID, rec)
}

// Close is a no-op; the pool belongs to the caller.
func (p *Postgres) Close() error { return nil }
