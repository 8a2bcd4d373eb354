package expediente

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lnp/vigilancia/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const recordCols = `id, dni, first_name, last_name, sex, birth_date, phone, address,
	municipality_id, facility_id, active, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.DNI, &rec.FirstName, &rec.LastName, &rec.Sex,
		&rec.BirthDate, &rec.Phone, &rec.Address, &rec.MunicipalityID,
		&rec.FacilityID, &rec.Active, &rec.CreatedAt, &rec.UpdatedAt)
	return &rec, err
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_record (id, dni, first_name, last_name, sex, birth_date,
			phone, address, municipality_id, facility_id, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rec.ID, rec.DNI, rec.FirstName, rec.LastName, rec.Sex, rec.BirthDate,
		rec.Phone, rec.Address, rec.MunicipalityID, rec.FacilityID, rec.Active)
	return err
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_record
		SET first_name = $2, last_name = $3, sex = $4, birth_date = $5,
			phone = $6, address = $7, municipality_id = $8, facility_id = $9,
			updated_at = NOW()
		WHERE id = $1`,
		rec.ID, rec.FirstName, rec.LastName, rec.Sex, rec.BirthDate,
		rec.Phone, rec.Address, rec.MunicipalityID, rec.FacilityID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record not found")
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM patient_record WHERE id = $1`, id))
}

func (r *repoPG) GetByDNI(ctx context.Context, dni string) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM patient_record WHERE dni = $1`, dni))
}

func (r *repoPG) Search(ctx context.Context, q SearchQuery) ([]*Record, int, error) {
	where := ` WHERE active`
	args := []interface{}{}
	idx := 1

	if q.DNI != "" {
		where += fmt.Sprintf(" AND dni = $%d", idx)
		args = append(args, q.DNI)
		idx++
	}
	if q.Name != "" {
		where += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d)", idx, idx)
		args = append(args, "%"+q.Name+"%")
		idx++
	}
	if q.FacilityID != uuid.Nil {
		where += fmt.Sprintf(" AND facility_id = $%d", idx)
		args = append(args, q.FacilityID)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient_record`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + recordCols + ` FROM patient_record` + where +
		fmt.Sprintf(` ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_record SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record not found")
	}
	return nil
}
