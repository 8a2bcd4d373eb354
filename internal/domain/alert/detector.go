package alert

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lnp/vigilancia/internal/domain/geography"
	"github.com/lnp/vigilancia/internal/domain/sample"
)

// RegionLookup resolves the region a facility belongs to; alerts are
// tagged with both for regional dashboards.
type RegionLookup interface {
	RegionOfFacility(ctx context.Context, facilityID uuid.UUID) (*geography.Region, error)
}

// Detector evaluates alert rules against positive samples. It implements
// the sample package's AlertDetector interface and runs outside the sample
// write transaction: a failing parasite never blocks the others and never
// fails the sample write.
type Detector struct {
	rules   RuleRepository
	alerts  AlertRepository
	regions RegionLookup
	logger  zerolog.Logger
}

func NewDetector(rules RuleRepository, alerts AlertRepository, regions RegionLookup, logger zerolog.Logger) *Detector {
	return &Detector{rules: rules, alerts: alerts, regions: regions, logger: logger}
}

// OnPositiveSample walks the findings in catalog order. Per finding:
// unmapped labels and fields without an active rule are skipped; the
// rolling window [exam_date - window_days, exam_date] is counted at the
// sample's facility; severity is decided by descending thresholds; the
// single open alert per (rule, facility) is created or refreshed.
func (d *Detector) OnPositiveSample(ctx context.Context, s *sample.Sample, findings []sample.Finding) []error {
	var errs []error
	for _, f := range findings {
		field := sample.FieldIDForLabel(f.Label)
		if field == "" {
			continue
		}
		if err := d.evaluate(ctx, s, field); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}
	return errs
}

func (d *Detector) evaluate(ctx context.Context, s *sample.Sample, field string) error {
	rule, err := d.rules.GetActiveByField(ctx, field)
	if err != nil {
		return fmt.Errorf("rule lookup: %w", err)
	}
	if rule == nil {
		return nil
	}

	from := s.ExamDate.AddDate(0, 0, -rule.WindowDays)
	windowCount, err := d.alerts.CountWindowCases(ctx, s.FacilityID, field, from, s.ExamDate)
	if err != nil {
		return fmt.Errorf("window count: %w", err)
	}
	dayCount, err := d.alerts.CountDayCases(ctx, s.FacilityID, field, s.ExamDate)
	if err != nil {
		return fmt.Errorf("day count: %w", err)
	}

	severity, reached := rule.SeverityFor(windowCount)
	if !reached {
		return nil
	}

	return d.upsertOpen(ctx, rule, s, severity, windowCount, dayCount)
}

// upsertOpen refreshes the open alert for (rule, facility) or creates one.
// A concurrent creator wins the partial unique index; the loser retries as
// an update of the winner's row.
func (d *Detector) upsertOpen(ctx context.Context, rule *Rule, s *sample.Sample, severity string, windowCount, dayCount int) error {
	existing, err := d.alerts.FindOpen(ctx, rule.ID, s.FacilityID)
	if err != nil {
		return fmt.Errorf("find open alert: %w", err)
	}
	if existing != nil {
		return d.refresh(ctx, existing, s, severity, windowCount, dayCount)
	}

	region, err := d.regions.RegionOfFacility(ctx, s.FacilityID)
	if err != nil {
		return fmt.Errorf("resolve region: %w", err)
	}

	a := &Alert{
		RuleID:          rule.ID,
		ParasiteField:   rule.ParasiteField,
		FacilityID:      s.FacilityID,
		RegionID:        region.ID,
		Severity:        severity,
		Status:          StatusActive,
		CaseCount:       windowCount,
		DayCaseCount:    dayCount,
		TriggerSampleID: s.ID,
	}
	err = d.alerts.Create(ctx, a)
	if err == nil {
		d.logger.Warn().
			Str("parasite", rule.ParasiteField).
			Str("facility", s.FacilityID.String()).
			Str("severity", severity).
			Int("cases", windowCount).
			Msg("epidemiological alert raised")
		return nil
	}
	if !isUniqueViolation(err) {
		return fmt.Errorf("create alert: %w", err)
	}

	// Lost the race: someone opened the alert between FindOpen and Create.
	winner, ferr := d.alerts.FindOpen(ctx, rule.ID, s.FacilityID)
	if ferr != nil {
		return fmt.Errorf("find after conflict: %w", ferr)
	}
	if winner == nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return d.refresh(ctx, winner, s, severity, windowCount, dayCount)
}

// refresh re-points the open alert at the latest qualifying sample along
// with the recounted window.
func (d *Detector) refresh(ctx context.Context, a *Alert, s *sample.Sample, severity string, windowCount, dayCount int) error {
	a.Severity = severity
	a.CaseCount = windowCount
	a.DayCaseCount = dayCount
	a.TriggerSampleID = s.ID
	if err := d.alerts.Update(ctx, a); err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	return nil
}
