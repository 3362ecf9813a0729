// Package storage holds the append-only sinks that extracted records are
// written to.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/maltedev/catalog-crawler/internal/models"
)

// Sink appends records durably. Records are never updated or removed, so
// appending the same record twice stores it twice.
type Sink interface {
	Append(ctx context.Context, rec models.AttributeRecord) error
	Close() error
}

// Multi appends every record to each sink in order. A failing sink does not
// stop the others; all failures are joined. Records that fail Validate reach
// no sink.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Append(ctx context.Context, rec models.AttributeRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	var errs []error
	for _, s := range m.sinks {
		if err := s.Append(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type runIDKey struct{}

// WithRunID tags ctx so sinks that record provenance can store the run id.
func WithRunID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func RunIDFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(runIDKey{}).(uuid.UUID)
	return id, ok
}
