package geography

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

type mockRegionRepo struct {
	regions map[uuid.UUID]*Region
}

func newMockRegionRepo() *mockRegionRepo {
	return &mockRegionRepo{regions: make(map[uuid.UUID]*Region)}
}

func (m *mockRegionRepo) Create(_ context.Context, r *Region) error {
	r.ID = uuid.New()
	m.regions[r.ID] = r
	return nil
}

func (m *mockRegionRepo) GetByID(_ context.Context, id uuid.UUID) (*Region, error) {
	r, ok := m.regions[id]
	if !ok {
		return nil, fmt.Errorf("region not found")
	}
	return r, nil
}

func (m *mockRegionRepo) GetByNumber(_ context.Context, number int) (*Region, error) {
	for _, r := range m.regions {
		if r.Number == number {
			return r, nil
		}
	}
	return nil, fmt.Errorf("region not found")
}

func (m *mockRegionRepo) List(_ context.Context) ([]*Region, error) {
	var out []*Region
	for _, r := range m.regions {
		out = append(out, r)
	}
	return out, nil
}

type mockDepartmentRepo struct {
	departments map[uuid.UUID]*Department
}

func newMockDepartmentRepo() *mockDepartmentRepo {
	return &mockDepartmentRepo{departments: make(map[uuid.UUID]*Department)}
}

func (m *mockDepartmentRepo) Create(_ context.Context, d *Department) error {
	d.ID = uuid.New()
	m.departments[d.ID] = d
	return nil
}

func (m *mockDepartmentRepo) GetByCode(_ context.Context, code string) (*Department, error) {
	for _, d := range m.departments {
		if d.Code == code {
			return d, nil
		}
	}
	return nil, fmt.Errorf("department not found")
}

func (m *mockDepartmentRepo) List(_ context.Context) ([]*Department, error) {
	var out []*Department
	for _, d := range m.departments {
		out = append(out, d)
	}
	return out, nil
}

type mockMunicipalityRepo struct {
	municipalities map[uuid.UUID]*Municipality
}

func newMockMunicipalityRepo() *mockMunicipalityRepo {
	return &mockMunicipalityRepo{municipalities: make(map[uuid.UUID]*Municipality)}
}

func (m *mockMunicipalityRepo) Create(_ context.Context, mu *Municipality) error {
	mu.ID = uuid.New()
	m.municipalities[mu.ID] = mu
	return nil
}

func (m *mockMunicipalityRepo) GetByCode(_ context.Context, code string) (*Municipality, error) {
	for _, mu := range m.municipalities {
		if mu.Code == code {
			return mu, nil
		}
	}
	return nil, fmt.Errorf("municipality not found")
}

func (m *mockMunicipalityRepo) ListByDepartment(_ context.Context, departmentID uuid.UUID) ([]*Municipality, error) {
	var out []*Municipality
	for _, mu := range m.municipalities {
		if mu.DepartmentID == departmentID {
			out = append(out, mu)
		}
	}
	return out, nil
}

type mockFacilityRepo struct {
	facilities map[uuid.UUID]*Facility
}

func newMockFacilityRepo() *mockFacilityRepo {
	return &mockFacilityRepo{facilities: make(map[uuid.UUID]*Facility)}
}

func (m *mockFacilityRepo) Create(_ context.Context, f *Facility) error {
	f.ID = uuid.New()
	m.facilities[f.ID] = f
	return nil
}

func (m *mockFacilityRepo) GetByID(_ context.Context, id uuid.UUID) (*Facility, error) {
	f, ok := m.facilities[id]
	if !ok {
		return nil, fmt.Errorf("facility not found")
	}
	return f, nil
}

func (m *mockFacilityRepo) GetByCode(_ context.Context, code string) (*Facility, error) {
	for _, f := range m.facilities {
		if f.Code == code {
			return f, nil
		}
	}
	return nil, fmt.Errorf("facility not found")
}

func (m *mockFacilityRepo) ListByRegion(_ context.Context, regionID uuid.UUID) ([]*Facility, error) {
	var out []*Facility
	for _, f := range m.facilities {
		if f.RegionID == regionID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockFacilityRepo) List(_ context.Context, limit, offset int) ([]*Facility, int, error) {
	var out []*Facility
	for _, f := range m.facilities {
		out = append(out, f)
	}
	return out, len(out), nil
}

func newTestService() (*Service, *mockRegionRepo, *mockFacilityRepo) {
	regions := newMockRegionRepo()
	facilities := newMockFacilityRepo()
	svc := NewService(regions, newMockDepartmentRepo(), newMockMunicipalityRepo(), facilities)
	return svc, regions, facilities
}

func TestCreateRegion_Metropolitan(t *testing.T) {
	svc, _, _ := newTestService()

	r := &Region{Name: "Región Metropolitana del Distrito Central", Number: 19, Metropolitan: true}
	if err := svc.CreateRegion(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID == uuid.Nil {
		t.Error("expected region id to be assigned")
	}
	if !r.Active {
		t.Error("expected new region to be active")
	}
}

func TestCreateRegion_DepartmentalRequiresDepartment(t *testing.T) {
	svc, _, _ := newTestService()

	r := &Region{Name: "Región Sanitaria 5", Number: 5}
	if err := svc.CreateRegion(context.Background(), r); err == nil {
		t.Error("expected error for departmental region without department")
	}

	deptID := uuid.New()
	r.DepartmentID = &deptID
	if err := svc.CreateRegion(context.Background(), r); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCreateRegion_MetropolitanRejectsDepartment(t *testing.T) {
	svc, _, _ := newTestService()

	deptID := uuid.New()
	r := &Region{Name: "Región Metropolitana de San Pedro Sula", Number: 20, Metropolitan: true, DepartmentID: &deptID}
	if err := svc.CreateRegion(context.Background(), r); err == nil {
		t.Error("expected error for metropolitan region with department")
	}
}

func TestCreateDepartment_CodeValidation(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []struct {
		code    string
		wantErr bool
	}{
		{"01", false},
		{"18", false},
		{"1", true},
		{"123", true},
		{"AB", true},
		{"", true},
	}
	for _, tt := range tests {
		d := &Department{Name: "Atlántida", Code: tt.code}
		err := svc.CreateDepartment(context.Background(), d)
		if (err != nil) != tt.wantErr {
			t.Errorf("code %q: got err %v, wantErr %v", tt.code, err, tt.wantErr)
		}
	}
}

func TestCreateMunicipality_CodeValidation(t *testing.T) {
	svc, _, _ := newTestService()

	m := &Municipality{Name: "La Ceiba", Code: "0101", DepartmentID: uuid.New()}
	if err := svc.CreateMunicipality(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := &Municipality{Name: "La Ceiba", Code: "101", DepartmentID: uuid.New()}
	if err := svc.CreateMunicipality(context.Background(), bad); err == nil {
		t.Error("expected error for 3-digit municipality code")
	}
}

func TestCreateFacility_UnknownRegion(t *testing.T) {
	svc, _, _ := newTestService()

	f := &Facility{Name: "CESAMO Villa Adela", Code: "US-0042", RegionID: uuid.New()}
	if err := svc.CreateFacility(context.Background(), f); err == nil {
		t.Error("expected error for unknown region")
	}
}

func TestCreateFacility_AndRegionLookup(t *testing.T) {
	svc, _, _ := newTestService()

	r := &Region{Name: "Región Metropolitana del Distrito Central", Number: 19, Metropolitan: true}
	if err := svc.CreateRegion(context.Background(), r); err != nil {
		t.Fatalf("create region: %v", err)
	}

	f := &Facility{Name: "Hospital Escuela", Code: "HE-001", RegionID: r.ID, Regional: true}
	if err := svc.CreateFacility(context.Background(), f); err != nil {
		t.Fatalf("create facility: %v", err)
	}

	got, err := svc.RegionOfFacility(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("region of facility: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("expected region %s, got %s", r.ID, got.ID)
	}
}
