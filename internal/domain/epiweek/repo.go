package epiweek

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// GetOrCreate returns the week bucket for (year, number), inserting it
	// with the given bounds if absent. Bounds of an existing bucket are
	// never modified.
	GetOrCreate(ctx context.Context, year, number int, start, end time.Time) (*Week, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Week, error)
	GetByYearWeek(ctx context.Context, year, number int) (*Week, error)
	ListByYear(ctx context.Context, year int) ([]*Week, error)
	// Recompute recounts total/positive/negative from the samples linked to
	// the week and persists the counters in a single statement.
	Recompute(ctx context.Context, id uuid.UUID) error
	SetAlertActive(ctx context.Context, id uuid.UUID, active bool) error
}
