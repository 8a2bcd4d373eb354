package sample

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Sample) error
	Update(ctx context.Context, s *Sample) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sample, error)
	GetByExamNumber(ctx context.Context, examNumber string) (*Sample, error)
	Search(ctx context.Context, q SearchQuery) ([]*Sample, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SearchQuery filters the sample listing. Zero values mean "no filter".
type SearchQuery struct {
	RecordID   uuid.UUID
	FacilityID uuid.UUID
	Result     string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
