package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lnp/vigilancia/internal/domain/sample"
)

// Service handles the operator-facing alert lifecycle and rule
// administration. Alert creation itself belongs to the Detector.
type Service struct {
	rules  RuleRepository
	alerts AlertRepository
}

func NewService(rules RuleRepository, alerts AlertRepository) *Service {
	return &Service{rules: rules, alerts: alerts}
}

func (s *Service) GetAlert(ctx context.Context, id uuid.UUID) (*Alert, error) {
	return s.alerts.GetByID(ctx, id)
}

func (s *Service) ListAlerts(ctx context.Context, q ListQuery) ([]*Alert, int, error) {
	return s.alerts.List(ctx, q)
}

// Acknowledge moves an ACTIVE alert to IN_PROGRESS, meaning an operator
// is investigating. The alert stays open.
func (s *Service) Acknowledge(ctx context.Context, id uuid.UUID) (*Alert, error) {
	a, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("alert not found")
	}
	if a.Status != StatusActive {
		return nil, fmt.Errorf("only ACTIVE alerts can be acknowledged, current status: %s", a.Status)
	}
	a.Status = StatusInProgress
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Resolve closes an open alert. Resolution is always an explicit operator
// decision; the detector never resolves alerts on its own.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, notes string) (*Alert, error) {
	a, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("alert not found")
	}
	if !a.Open() {
		return nil, fmt.Errorf("alert is already resolved")
	}
	now := time.Now().UTC()
	a.Status = StatusResolved
	a.ResolvedAt = &now
	if notes != "" {
		a.Notes = notes
	}
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) CreateRule(ctx context.Context, r *Rule) error {
	if err := s.validateRule(r); err != nil {
		return err
	}
	return s.rules.Create(ctx, r)
}

func (s *Service) UpdateRule(ctx context.Context, r *Rule) error {
	if err := s.validateRule(r); err != nil {
		return err
	}
	return s.rules.Update(ctx, r)
}

func (s *Service) GetRule(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return s.rules.GetByID(ctx, id)
}

func (s *Service) ListRules(ctx context.Context) ([]*Rule, error) {
	return s.rules.List(ctx)
}

// LoadRules seeds or replaces the rule configuration, one rule per
// parasite field. Invalid entries abort the whole load.
func (s *Service) LoadRules(ctx context.Context, rules []*Rule) error {
	for _, r := range rules {
		if err := s.validateRule(r); err != nil {
			return fmt.Errorf("rule %s: %w", r.ParasiteField, err)
		}
	}
	for _, r := range rules {
		if err := s.rules.UpsertByField(ctx, r); err != nil {
			return fmt.Errorf("rule %s: %w", r.ParasiteField, err)
		}
	}
	return nil
}

func (s *Service) validateRule(r *Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if _, ok := sample.FieldByID(r.ParasiteField); !ok {
		return fmt.Errorf("unknown parasite field: %s", r.ParasiteField)
	}
	return nil
}
