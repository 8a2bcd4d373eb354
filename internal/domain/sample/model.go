package sample

import (
	"time"

	"github.com/google/uuid"
)

// Physical exam enumerations.
const (
	ConsistencyFormed = "FOR"
	ConsistencySoft   = "BLA"
	ConsistencyLiquid = "LIQ"

	MucusNone     = "N"
	MucusScarce   = "E"
	MucusModerate = "M"
	MucusAbundant = "A"

	BloodAbsent  = "NO"
	BloodPresent = "SI"
)

// Kato-Katz infection intensity for Ascaris; empty means not applicable.
const (
	IntensityLight    = "L"
	IntensityModerate = "M"
	IntensitySevere   = "S"
)

// Sample is a stool exam submitted by a facility. Result, WeekID,
// WeekNumber and EpiYear are derived by the write pipeline and never
// accepted from clients. Parasites holds stage codes keyed by catalog
// field id; absent or empty means not observed.
type Sample struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ExamNumber string    `db:"exam_number" json:"numero_examen"`
	RecordID   uuid.UUID `db:"record_id" json:"record_id"`
	FacilityID uuid.UUID `db:"facility_id" json:"facility_id"`
	ExamDate   time.Time `db:"exam_date" json:"fecha_examen"`
	Analyst    string    `db:"analyst" json:"responsable_analisis,omitempty"`

	Consistency  string `db:"consistency" json:"consistencia"`
	Mucus        string `db:"mucus" json:"moco"`
	VisibleBlood string `db:"visible_blood" json:"sangre_macroscopica"`

	Parasites map[string]string `db:"parasites" json:"parasites"`
	KatoKatz  string            `db:"kato_katz" json:"kato_katz,omitempty"`

	Result     string     `db:"result" json:"resultado"`
	WeekID     *uuid.UUID `db:"week_id" json:"week_id,omitempty"`
	WeekNumber int        `db:"week_number" json:"week_number"`
	EpiYear    int        `db:"epi_year" json:"epi_year"`

	// NoParasitesFlag is carried from legacy datasets. It is never used
	// for classification; LegacyMismatch surfaces disagreements.
	NoParasitesFlag *bool `db:"no_parasites_flag" json:"no_parasites_flag,omitempty"`

	Observations string    `db:"observations" json:"observaciones,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Findings lists the observed parasites in catalog order.
func (s *Sample) Findings() []Finding {
	_, findings := Classify(s.Parasites)
	return findings
}

// LegacyMismatch reports whether the legacy "no parasites" flag disagrees
// with the field-derived result. The flag is never reconciled; the
// structured fields stay the single source of truth.
func (s *Sample) LegacyMismatch() bool {
	if s.NoParasitesFlag == nil {
		return false
	}
	return *s.NoParasitesFlag != (s.Result == ResultNegative)
}
