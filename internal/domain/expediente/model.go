package expediente

import (
	"time"

	"github.com/google/uuid"
)

// Sex codes as recorded on the national identity document.
const (
	SexMale   = "M"
	SexFemale = "F"
)

// Record is a patient expediente. DNI is the national identity number in
// the XXXX-XXXX-XXXXX format and is unique across the system.
type Record struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	DNI            string     `db:"dni" json:"dni"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Sex            string     `db:"sex" json:"sex"`
	BirthDate      time.Time  `db:"birth_date" json:"birth_date"`
	Phone          string     `db:"phone" json:"phone,omitempty"`
	Address        string     `db:"address" json:"address,omitempty"`
	MunicipalityID *uuid.UUID `db:"municipality_id" json:"municipality_id,omitempty"`
	FacilityID     uuid.UUID  `db:"facility_id" json:"facility_id"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName joins the record's names for display and export.
func (r *Record) FullName() string {
	if r.FirstName == "" {
		return r.LastName
	}
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// Age returns the patient's age in whole years at the given reference date.
func (r *Record) Age(at time.Time) int {
	years := at.Year() - r.BirthDate.Year()
	anniversary := r.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
