package geography

import (
	"context"

	"github.com/google/uuid"
)

type RegionRepository interface {
	Create(ctx context.Context, r *Region) error
	GetByID(ctx context.Context, id uuid.UUID) (*Region, error)
	GetByNumber(ctx context.Context, number int) (*Region, error)
	List(ctx context.Context) ([]*Region, error)
}

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByCode(ctx context.Context, code string) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
}

type MunicipalityRepository interface {
	Create(ctx context.Context, m *Municipality) error
	GetByCode(ctx context.Context, code string) (*Municipality, error)
	ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Municipality, error)
}

type FacilityRepository interface {
	Create(ctx context.Context, f *Facility) error
	GetByID(ctx context.Context, id uuid.UUID) (*Facility, error)
	GetByCode(ctx context.Context, code string) (*Facility, error)
	ListByRegion(ctx context.Context, regionID uuid.UUID) ([]*Facility, error)
	List(ctx context.Context, limit, offset int) ([]*Facility, int, error)
}
