package expediente

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Record) error
	Update(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByDNI(ctx context.Context, dni string) (*Record, error)
	Search(ctx context.Context, q SearchQuery) ([]*Record, int, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// SearchQuery filters the record listing. Zero values mean "no filter".
type SearchQuery struct {
	DNI        string
	Name       string
	FacilityID uuid.UUID
	Limit      int
	Offset     int
}
