package alert

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RuleRepository interface {
	Create(ctx context.Context, r *Rule) error
	Update(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Rule, error)
	// GetActiveByField returns (nil, nil) when no active rule exists for
	// the field; detection treats that as "skip".
	GetActiveByField(ctx context.Context, field string) (*Rule, error)
	// UpsertByField inserts or replaces the rule keyed by parasite_field.
	// Used by configuration seeding.
	UpsertByField(ctx context.Context, r *Rule) error
	List(ctx context.Context) ([]*Rule, error)
}

type AlertRepository interface {
	Create(ctx context.Context, a *Alert) error
	Update(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	// FindOpen returns the single open (ACTIVE or IN_PROGRESS) alert for
	// the (rule, facility) pair, or (nil, nil) when none exists.
	FindOpen(ctx context.Context, ruleID, facilityID uuid.UUID) (*Alert, error)
	List(ctx context.Context, q ListQuery) ([]*Alert, int, error)

	// CountWindowCases counts positive samples at the facility whose
	// parasite field is non-empty within [from, to], both ends inclusive.
	CountWindowCases(ctx context.Context, facilityID uuid.UUID, field string, from, to time.Time) (int, error)
	// CountDayCases is the same count restricted to a single exam date.
	CountDayCases(ctx context.Context, facilityID uuid.UUID, field string, day time.Time) (int, error)
}

// ListQuery filters the alert listing. Zero values mean "no filter".
type ListQuery struct {
	Status     string
	Severity   string
	RegionID   uuid.UUID
	FacilityID uuid.UUID
	OnlyOpen   bool
	Limit      int
	Offset     int
}
