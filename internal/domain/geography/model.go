package geography

import (
	"time"

	"github.com/google/uuid"
)

// Region is a sanitary region. The national network has 18 departmental
// regions plus 2 metropolitan ones; metropolitan regions carry no department.
type Region struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Number         int        `db:"number" json:"number"`
	Metropolitan   bool       `db:"metropolitan" json:"metropolitan"`
	DepartmentID   *uuid.UUID `db:"department_id" json:"department_id,omitempty"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Department is an administrative department (2-digit code, 01-18).
type Department struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Municipality is an administrative municipality (4-digit code XXYY, the
// first two digits being its department's code).
type Municipality struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
	Capital      bool      `db:"capital" json:"capital"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Facility is a health establishment (centro de atención) that submits
// samples. Every facility belongs to exactly one region.
type Facility struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Address   string    `db:"address" json:"address"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	RegionID  uuid.UUID `db:"region_id" json:"region_id"`
	Regional  bool      `db:"regional" json:"regional"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
