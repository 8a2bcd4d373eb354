package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity levels in ascending order of gravity.
const (
	SeverityYellow = "YELLOW"
	SeverityOrange = "ORANGE"
	SeverityRed    = "RED"
)

// Alert lifecycle states. ACTIVE and IN_PROGRESS count as open; the
// partial unique index on (rule_id, facility_id) only covers open alerts.
const (
	StatusActive     = "ACTIVE"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
)

// Rule is the admin-managed alert configuration for one parasite field.
// Thresholds are case counts over the rolling window and must ascend:
// caution <= alert <= emergency.
type Rule struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	ParasiteField      string    `db:"parasite_field" json:"parasite_field"`
	Name               string    `db:"name" json:"name"`
	Active             bool      `db:"active" json:"active"`
	WindowDays         int       `db:"window_days" json:"window_days"`
	CautionThreshold   int       `db:"caution_threshold" json:"caution_threshold"`
	AlertThreshold     int       `db:"alert_threshold" json:"alert_threshold"`
	EmergencyThreshold int       `db:"emergency_threshold" json:"emergency_threshold"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

func (r *Rule) Validate() error {
	if r.ParasiteField == "" {
		return fmt.Errorf("parasite_field is required")
	}
	if r.WindowDays < 1 {
		return fmt.Errorf("window_days must be positive")
	}
	if r.CautionThreshold < 1 {
		return fmt.Errorf("caution_threshold must be positive")
	}
	if r.CautionThreshold > r.AlertThreshold || r.AlertThreshold > r.EmergencyThreshold {
		return fmt.Errorf("thresholds must ascend: caution <= alert <= emergency")
	}
	return nil
}

// SeverityFor maps a window case count to a severity, checking thresholds
// from most to least severe. ok is false when no threshold is reached.
func (r *Rule) SeverityFor(caseCount int) (severity string, ok bool) {
	switch {
	case caseCount >= r.EmergencyThreshold:
		return SeverityRed, true
	case caseCount >= r.AlertThreshold:
		return SeverityOrange, true
	case caseCount >= r.CautionThreshold:
		return SeverityYellow, true
	default:
		return "", false
	}
}

// Alert is an open or resolved epidemiological alert for one rule at one
// facility. CaseCount is the rolling-window count at last evaluation;
// DayCaseCount the count on the triggering exam date.
type Alert struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	RuleID          uuid.UUID  `db:"rule_id" json:"rule_id"`
	ParasiteField   string     `db:"parasite_field" json:"parasite_field"`
	FacilityID      uuid.UUID  `db:"facility_id" json:"facility_id"`
	RegionID        uuid.UUID  `db:"region_id" json:"region_id"`
	Severity        string     `db:"severity" json:"nivel"`
	Status          string     `db:"status" json:"estado"`
	CaseCount       int        `db:"case_count" json:"numero_casos"`
	DayCaseCount    int        `db:"day_case_count" json:"numero_casos_dia"`
	TriggerSampleID uuid.UUID  `db:"trigger_sample_id" json:"trigger_sample_id"`
	Notes           string     `db:"notes" json:"notes,omitempty"`
	ResolvedAt      *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Open reports whether the alert still counts against the single-open
// constraint.
func (a *Alert) Open() bool {
	return a.Status == StatusActive || a.Status == StatusInProgress
}
