package sample

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lnp/vigilancia/internal/domain/epiweek"
	"github.com/lnp/vigilancia/internal/platform/db"
)

// WeekService is the slice of the epiweek service the pipeline needs.
type WeekService interface {
	Resolve(ctx context.Context, date time.Time) (*epiweek.Week, error)
	Recompute(ctx context.Context, id uuid.UUID) error
}

// FacilityLookup and RecordLookup validate references before any write.
type FacilityLookup interface {
	FacilityExists(ctx context.Context, id uuid.UUID) error
}

type RecordLookup interface {
	RecordExists(ctx context.Context, id uuid.UUID) error
}

// AlertDetector is invoked after a positive sample commits. Returned
// errors are per-parasite and never fail the sample write.
type AlertDetector interface {
	OnPositiveSample(ctx context.Context, s *Sample, findings []Finding) []error
}

// ErrNotFound reports a sample ID with no row behind it.
var ErrNotFound = errors.New("sample not found")

// ValidationError marks a rejected client payload so handlers can map it
// to a 400 instead of a 500.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func errValidationf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

type Service struct {
	repo       Repository
	weeks      WeekService
	facilities FacilityLookup
	records    RecordLookup
	detector   AlertDetector
	tx         db.TxRunner
	logger     zerolog.Logger
}

func NewService(repo Repository, weeks WeekService, facilities FacilityLookup,
	records RecordLookup, detector AlertDetector, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		weeks:      weeks,
		facilities: facilities,
		records:    records,
		detector:   detector,
		tx:         tx,
		logger:     logger,
	}
}

func (s *Service) validate(ctx context.Context, m *Sample) error {
	if m.ExamNumber == "" {
		return errValidationf("exam number is required")
	}
	if len(m.ExamNumber) > 20 {
		return errValidationf("exam number exceeds 20 characters")
	}
	if m.ExamDate.IsZero() {
		return errValidationf("exam date is required")
	}
	if m.ExamDate.After(time.Now().AddDate(0, 0, 1)) {
		return errValidationf("exam date is in the future")
	}
	switch m.Consistency {
	case ConsistencyFormed, ConsistencySoft, ConsistencyLiquid:
	default:
		return errValidationf("invalid consistency: %s", m.Consistency)
	}
	switch m.Mucus {
	case MucusNone, MucusScarce, MucusModerate, MucusAbundant:
	default:
		return errValidationf("invalid mucus value: %s", m.Mucus)
	}
	switch m.VisibleBlood {
	case BloodAbsent, BloodPresent:
	default:
		return errValidationf("invalid visible blood value: %s", m.VisibleBlood)
	}
	switch m.KatoKatz {
	case "", IntensityLight, IntensityModerate, IntensitySevere:
	default:
		return errValidationf("invalid kato-katz intensity: %s", m.KatoKatz)
	}
	if err := ValidateValues(m.Parasites); err != nil {
		return errValidationf("%v", err)
	}
	if m.RecordID == uuid.Nil {
		return errValidationf("record_id is required")
	}
	if err := s.records.RecordExists(ctx, m.RecordID); err != nil {
		return errValidationf("unknown patient record: %v", err)
	}
	if m.FacilityID == uuid.Nil {
		return errValidationf("facility_id is required")
	}
	if err := s.facilities.FacilityExists(ctx, m.FacilityID); err != nil {
		return errValidationf("unknown facility: %v", err)
	}
	return nil
}

// CreateSample runs the full write pipeline: validate, classify, resolve
// the epidemiological week, persist and recompute the week's counters in
// one transaction. Alert detection runs after commit; its errors are
// returned separately and never fail the write.
func (s *Service) CreateSample(ctx context.Context, m *Sample) ([]error, error) {
	if err := s.validate(ctx, m); err != nil {
		return nil, err
	}
	if existing, err := s.repo.GetByExamNumber(ctx, m.ExamNumber); err == nil && existing != nil {
		return nil, errValidationf("exam number %s already registered", m.ExamNumber)
	}

	m.Result, _ = Classify(m.Parasites)
	m.Active = true

	err := s.tx.InTx(ctx, func(txCtx context.Context) error {
		week, err := s.weeks.Resolve(txCtx, m.ExamDate)
		if err != nil {
			return fmt.Errorf("resolve week: %w", err)
		}
		m.WeekID = &week.ID
		m.WeekNumber = week.Number
		m.EpiYear = week.Year

		if err := s.repo.Create(txCtx, m); err != nil {
			return err
		}
		return s.weeks.Recompute(txCtx, week.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.detectAlerts(ctx, m), nil
}

// UpdateSample re-runs classification and week resolution. When the exam
// date moves the sample to another week, both the old and the new week are
// recomputed inside the same transaction.
func (s *Service) UpdateSample(ctx context.Context, m *Sample) ([]error, error) {
	current, err := s.repo.GetByID(ctx, m.ID)
	if err != nil {
		return nil, ErrNotFound
	}
	// Exam number and submitting references are immutable.
	m.ExamNumber = current.ExamNumber
	m.RecordID = current.RecordID
	m.FacilityID = current.FacilityID
	m.NoParasitesFlag = current.NoParasitesFlag

	if err := s.validate(ctx, m); err != nil {
		return nil, err
	}
	m.Result, _ = Classify(m.Parasites)

	err = s.tx.InTx(ctx, func(txCtx context.Context) error {
		week, err := s.weeks.Resolve(txCtx, m.ExamDate)
		if err != nil {
			return fmt.Errorf("resolve week: %w", err)
		}
		m.WeekID = &week.ID
		m.WeekNumber = week.Number
		m.EpiYear = week.Year

		if err := s.repo.Update(txCtx, m); err != nil {
			return err
		}
		if err := s.weeks.Recompute(txCtx, week.ID); err != nil {
			return err
		}
		if current.WeekID != nil && *current.WeekID != week.ID {
			return s.weeks.Recompute(txCtx, *current.WeekID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.detectAlerts(ctx, m), nil
}

func (s *Service) DeleteSample(ctx context.Context, id uuid.UUID) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	return s.tx.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		if current.WeekID != nil {
			return s.weeks.Recompute(txCtx, *current.WeekID)
		}
		return nil
	})
}

func (s *Service) GetSample(ctx context.Context, id uuid.UUID) (*Sample, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetSampleByExamNumber(ctx context.Context, examNumber string) (*Sample, error) {
	return s.repo.GetByExamNumber(ctx, examNumber)
}

func (s *Service) SearchSamples(ctx context.Context, q SearchQuery) ([]*Sample, int, error) {
	return s.repo.Search(ctx, q)
}

func (s *Service) detectAlerts(ctx context.Context, m *Sample) []error {
	if s.detector == nil || m.Result != ResultPositive {
		return nil
	}
	errs := s.detector.OnPositiveSample(ctx, m, m.Findings())
	for _, err := range errs {
		s.logger.Error().Err(err).
			Str("sample", m.ID.String()).
			Str("exam_number", m.ExamNumber).
			Msg("alert evaluation failed")
	}
	return errs
}
