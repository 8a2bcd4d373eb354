package expediente

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var dniPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{5}$`)

// FacilityLookup is the slice of the geography service this package needs.
type FacilityLookup interface {
	FacilityExists(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo       Repository
	facilities FacilityLookup
}

func NewService(repo Repository, facilities FacilityLookup) *Service {
	return &Service{repo: repo, facilities: facilities}
}

func (s *Service) validate(ctx context.Context, r *Record) error {
	if !dniPattern.MatchString(r.DNI) {
		return fmt.Errorf("invalid DNI format: %s", r.DNI)
	}
	if r.FirstName == "" || r.LastName == "" {
		return fmt.Errorf("first and last name are required")
	}
	if r.Sex != SexMale && r.Sex != SexFemale {
		return fmt.Errorf("invalid sex: %s", r.Sex)
	}
	if r.BirthDate.IsZero() {
		return fmt.Errorf("birth_date is required")
	}
	if r.BirthDate.After(time.Now()) {
		return fmt.Errorf("birth_date is in the future")
	}
	if r.FacilityID == uuid.Nil {
		return fmt.Errorf("facility_id is required")
	}
	if err := s.facilities.FacilityExists(ctx, r.FacilityID); err != nil {
		return fmt.Errorf("unknown facility: %w", err)
	}
	return nil
}

func (s *Service) CreateRecord(ctx context.Context, r *Record) error {
	if err := s.validate(ctx, r); err != nil {
		return err
	}
	if existing, err := s.repo.GetByDNI(ctx, r.DNI); err == nil && existing != nil {
		return fmt.Errorf("a record already exists for DNI %s", r.DNI)
	}
	r.Active = true
	return s.repo.Create(ctx, r)
}

func (s *Service) UpdateRecord(ctx context.Context, r *Record) error {
	current, err := s.repo.GetByID(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("record not found")
	}
	// DNI is immutable once assigned.
	r.DNI = current.DNI
	if err := s.validate(ctx, r); err != nil {
		return err
	}
	return s.repo.Update(ctx, r)
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetRecordByDNI(ctx context.Context, dni string) (*Record, error) {
	if !dniPattern.MatchString(dni) {
		return nil, fmt.Errorf("invalid DNI format: %s", dni)
	}
	return s.repo.GetByDNI(ctx, dni)
}

func (s *Service) SearchRecords(ctx context.Context, q SearchQuery) ([]*Record, int, error) {
	return s.repo.Search(ctx, q)
}

// RecordExists reports whether a record id is known. The sample pipeline
// depends on this through its own lookup interface.
func (s *Service) RecordExists(ctx context.Context, id uuid.UUID) error {
	_, err := s.repo.GetByID(ctx, id)
	return err
}

func (s *Service) DeactivateRecord(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}
