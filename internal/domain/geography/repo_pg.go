package geography

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lnp/vigilancia/internal/platform/db"
)

// =========== Region Repository ===========

type regionRepoPG struct{ pool *pgxpool.Pool }

func NewRegionRepoPG(pool *pgxpool.Pool) RegionRepository {
	return &regionRepoPG{pool: pool}
}

func (r *regionRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const regionCols = `id, name, number, metropolitan, department_id, active, created_at`

func scanRegion(row pgx.Row) (*Region, error) {
	var reg Region
	err := row.Scan(&reg.ID, &reg.Name, &reg.Number, &reg.Metropolitan,
		&reg.DepartmentID, &reg.Active, &reg.CreatedAt)
	return &reg, err
}

func (r *regionRepoPG) Create(ctx context.Context, reg *Region) error {
	reg.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO region (id, name, number, metropolitan, department_id, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		reg.ID, reg.Name, reg.Number, reg.Metropolitan, reg.DepartmentID, reg.Active)
	return err
}

func (r *regionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Region, error) {
	return scanRegion(r.conn(ctx).QueryRow(ctx, `SELECT `+regionCols+` FROM region WHERE id = $1`, id))
}

func (r *regionRepoPG) GetByNumber(ctx context.Context, number int) (*Region, error) {
	return scanRegion(r.conn(ctx).QueryRow(ctx, `SELECT `+regionCols+` FROM region WHERE number = $1`, number))
}

func (r *regionRepoPG) List(ctx context.Context) ([]*Region, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+regionCols+` FROM region ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Region
	for rows.Next() {
		reg, err := scanRegion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, reg)
	}
	return items, rows.Err()
}

// =========== Department Repository ===========

type departmentRepoPG struct{ pool *pgxpool.Pool }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{pool: pool}
}

func (r *departmentRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const departmentCols = `id, name, code, active, created_at`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Code, &d.Active, &d.CreatedAt)
	return &d, err
}

func (r *departmentRepoPG) Create(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO department (id, name, code, active) VALUES ($1,$2,$3,$4)`,
		d.ID, d.Name, d.Code, d.Active)
	return err
}

func (r *departmentRepoPG) GetByCode(ctx context.Context, code string) (*Department, error) {
	return scanDepartment(r.conn(ctx).QueryRow(ctx, `SELECT `+departmentCols+` FROM department WHERE code = $1`, code))
}

func (r *departmentRepoPG) List(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+departmentCols+` FROM department ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// =========== Municipality Repository ===========

type municipalityRepoPG struct{ pool *pgxpool.Pool }

func NewMunicipalityRepoPG(pool *pgxpool.Pool) MunicipalityRepository {
	return &municipalityRepoPG{pool: pool}
}

func (r *municipalityRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const municipalityCols = `id, name, code, department_id, capital, active, created_at`

func scanMunicipality(row pgx.Row) (*Municipality, error) {
	var m Municipality
	err := row.Scan(&m.ID, &m.Name, &m.Code, &m.DepartmentID, &m.Capital, &m.Active, &m.CreatedAt)
	return &m, err
}

func (r *municipalityRepoPG) Create(ctx context.Context, m *Municipality) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO municipality (id, name, code, department_id, capital, active)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		m.ID, m.Name, m.Code, m.DepartmentID, m.Capital, m.Active)
	return err
}

func (r *municipalityRepoPG) GetByCode(ctx context.Context, code string) (*Municipality, error) {
	return scanMunicipality(r.conn(ctx).QueryRow(ctx, `SELECT `+municipalityCols+` FROM municipality WHERE code = $1`, code))
}

func (r *municipalityRepoPG) ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Municipality, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+municipalityCols+` FROM municipality WHERE department_id = $1 ORDER BY code`, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Municipality
	for rows.Next() {
		m, err := scanMunicipality(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// =========== Facility Repository ===========

type facilityRepoPG struct{ pool *pgxpool.Pool }

func NewFacilityRepoPG(pool *pgxpool.Pool) FacilityRepository {
	return &facilityRepoPG{pool: pool}
}

func (r *facilityRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const facilityCols = `id, name, code, address, phone, region_id, regional, active, created_at`

func scanFacility(row pgx.Row) (*Facility, error) {
	var f Facility
	err := row.Scan(&f.ID, &f.Name, &f.Code, &f.Address, &f.Phone,
		&f.RegionID, &f.Regional, &f.Active, &f.CreatedAt)
	return &f, err
}

func (r *facilityRepoPG) Create(ctx context.Context, f *Facility) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO facility (id, name, code, address, phone, region_id, regional, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		f.ID, f.Name, f.Code, f.Address, f.Phone, f.RegionID, f.Regional, f.Active)
	return err
}

func (r *facilityRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Facility, error) {
	return scanFacility(r.conn(ctx).QueryRow(ctx, `SELECT `+facilityCols+` FROM facility WHERE id = $1`, id))
}

func (r *facilityRepoPG) GetByCode(ctx context.Context, code string) (*Facility, error) {
	return scanFacility(r.conn(ctx).QueryRow(ctx, `SELECT `+facilityCols+` FROM facility WHERE code = $1`, code))
}

func (r *facilityRepoPG) ListByRegion(ctx context.Context, regionID uuid.UUID) ([]*Facility, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+facilityCols+` FROM facility WHERE region_id = $1 ORDER BY name`, regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (r *facilityRepoPG) List(ctx context.Context, limit, offset int) ([]*Facility, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM facility`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+facilityCols+` FROM facility ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, rows.Err()
}
