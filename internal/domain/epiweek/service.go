package epiweek

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve maps a calendar date to its ISO-8601 epidemiological week,
// creating the bucket on first use. January dates can land in the last
// week of the previous ISO year and late-December dates in week 1 of the
// next; ISOWeek handles both.
func (s *Service) Resolve(ctx context.Context, date time.Time) (*Week, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	year, number := date.ISOWeek()
	start, end := Bounds(date)
	return s.repo.GetOrCreate(ctx, year, number, start, end)
}

// Recompute recounts the week's cached statistics. Callers run it inside
// the same transaction as the sample write so the counters never drift.
func (s *Service) Recompute(ctx context.Context, id uuid.UUID) error {
	return s.repo.Recompute(ctx, id)
}

func (s *Service) Get(ctx context.Context, year, number int) (*Week, error) {
	if number < 1 || number > 53 {
		return nil, fmt.Errorf("week number out of range: %d", number)
	}
	return s.repo.GetByYearWeek(ctx, year, number)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Week, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByYear(ctx context.Context, year int) ([]*Week, error) {
	return s.repo.ListByYear(ctx, year)
}

func (s *Service) SetAlertActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetAlertActive(ctx, id, active)
}
