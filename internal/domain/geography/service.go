package geography

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

var (
	departmentCodePattern   = regexp.MustCompile(`^\d{2}$`)
	municipalityCodePattern = regexp.MustCompile(`^\d{4}$`)
)

type Service struct {
	regions        RegionRepository
	departments    DepartmentRepository
	municipalities MunicipalityRepository
	facilities     FacilityRepository
}

func NewService(r RegionRepository, d DepartmentRepository, m MunicipalityRepository, f FacilityRepository) *Service {
	return &Service{regions: r, departments: d, municipalities: m, facilities: f}
}

func (s *Service) CreateRegion(ctx context.Context, r *Region) error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Number < 1 {
		return fmt.Errorf("number must be positive")
	}
	// Departmental regions carry a department; metropolitan ones must not.
	if !r.Metropolitan && r.DepartmentID == nil {
		return fmt.Errorf("departmental region requires a department")
	}
	if r.Metropolitan && r.DepartmentID != nil {
		return fmt.Errorf("metropolitan region must not have a department")
	}
	r.Active = true
	return s.regions.Create(ctx, r)
}

func (s *Service) GetRegion(ctx context.Context, id uuid.UUID) (*Region, error) {
	return s.regions.GetByID(ctx, id)
}

func (s *Service) GetRegionByNumber(ctx context.Context, number int) (*Region, error) {
	return s.regions.GetByNumber(ctx, number)
}

func (s *Service) ListRegions(ctx context.Context) ([]*Region, error) {
	return s.regions.List(ctx)
}

func (s *Service) CreateDepartment(ctx context.Context, d *Department) error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !departmentCodePattern.MatchString(d.Code) {
		return fmt.Errorf("invalid department code: %s", d.Code)
	}
	d.Active = true
	return s.departments.Create(ctx, d)
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	return s.departments.List(ctx)
}

func (s *Service) CreateMunicipality(ctx context.Context, m *Municipality) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !municipalityCodePattern.MatchString(m.Code) {
		return fmt.Errorf("invalid municipality code: %s", m.Code)
	}
	if m.DepartmentID == uuid.Nil {
		return fmt.Errorf("department_id is required")
	}
	m.Active = true
	return s.municipalities.Create(ctx, m)
}

func (s *Service) ListMunicipalitiesByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Municipality, error) {
	return s.municipalities.ListByDepartment(ctx, departmentID)
}

func (s *Service) CreateFacility(ctx context.Context, f *Facility) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if f.Code == "" {
		return fmt.Errorf("code is required")
	}
	if f.RegionID == uuid.Nil {
		return fmt.Errorf("region_id is required")
	}
	if _, err := s.regions.GetByID(ctx, f.RegionID); err != nil {
		return fmt.Errorf("unknown region: %w", err)
	}
	f.Active = true
	return s.facilities.Create(ctx, f)
}

func (s *Service) GetFacility(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return s.facilities.GetByID(ctx, id)
}

func (s *Service) GetFacilityByCode(ctx context.Context, code string) (*Facility, error) {
	return s.facilities.GetByCode(ctx, code)
}

func (s *Service) ListFacilities(ctx context.Context, limit, offset int) ([]*Facility, int, error) {
	return s.facilities.List(ctx, limit, offset)
}

func (s *Service) ListFacilitiesByRegion(ctx context.Context, regionID uuid.UUID) ([]*Facility, error) {
	return s.facilities.ListByRegion(ctx, regionID)
}

// FacilityExists reports whether a facility id is known. Other domain
// services depend on this through their own lookup interfaces.
func (s *Service) FacilityExists(ctx context.Context, id uuid.UUID) error {
	_, err := s.facilities.GetByID(ctx, id)
	return err
}

// RegionOfFacility resolves the region a facility belongs to. The sample
// pipeline and the alert detector use this read-only lookup.
func (s *Service) RegionOfFacility(ctx context.Context, facilityID uuid.UUID) (*Region, error) {
	f, err := s.facilities.GetByID(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	return s.regions.GetByID(ctx, f.RegionID)
}
