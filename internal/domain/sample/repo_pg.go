package sample

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

const sampleCols = `id, exam_number, record_id, facility_id, exam_date, analyst,
	consistency, mucus, visible_blood, parasites, kato_katz, result,
	week_id, week_number, epi_year, no_parasites_flag, observations,
	active, created_at, updated_at`

func scanSample(row pgx.Row) (*Sample, error) {
	var s Sample
	err := row.Scan(&s.ID, &s.ExamNumber, &s.RecordID, &s.FacilityID, &s.ExamDate,
		&s.Analyst, &s.Consistency, &s.Mucus, &s.VisibleBlood, &s.Parasites,
		&s.KatoKatz, &s.Result, &s.WeekID, &s.WeekNumber, &s.EpiYear,
		&s.NoParasitesFlag, &s.Observations, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Sample) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO sample (id, exam_number, record_id, facility_id, exam_date,
			analyst, consistency, mucus, visible_blood, parasites, kato_katz,
			result, week_id, week_number, epi_year, no_parasites_flag,
			observations, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		s.ID, s.ExamNumber, s.RecordID, s.FacilityID, s.ExamDate, s.Analyst,
		s.Consistency, s.Mucus, s.VisibleBlood, s.Parasites, s.KatoKatz,
		s.Result, s.WeekID, s.WeekNumber, s.EpiYear, s.NoParasitesFlag,
		s.Observations, s.Active)
	return err
}

func (r *repoPG) Update(ctx context.Context, s *Sample) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE sample
		SET exam_date = $2, analyst = $3, consistency = $4, mucus = $5,
			visible_blood = $6, parasites = $7, kato_katz = $8, result = $9,
			week_id = $10, week_number = $11, epi_year = $12,
			observations = $13, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.ExamDate, s.Analyst, s.Consistency, s.Mucus, s.VisibleBlood,
		s.Parasites, s.KatoKatz, s.Result, s.WeekID, s.WeekNumber, s.EpiYear,
		s.Observations)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sample not found")
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Sample, error) {
	return scanSample(r.conn(ctx).QueryRow(ctx, `SELECT `+sampleCols+` FROM sample WHERE id = $1`, id))
}

func (r *repoPG) GetByExamNumber(ctx context.Context, examNumber string) (*Sample, error) {
	return scanSample(r.conn(ctx).QueryRow(ctx,
		`SELECT `+sampleCols+` FROM sample WHERE exam_number = $1`, examNumber))
}

func (r *repoPG) Search(ctx context.Context, q SearchQuery) ([]*Sample, int, error) {
	where := ` WHERE active`
	args := []interface{}{}
	idx := 1

	if q.RecordID != uuid.Nil {
		where += fmt.Sprintf(" AND record_id = $%d", idx)
		args = append(args, q.RecordID)
		idx++
	}
	if q.FacilityID != uuid.Nil {
		where += fmt.Sprintf(" AND facility_id = $%d", idx)
		args = append(args, q.FacilityID)
		idx++
	}
	if q.Result != "" {
		where += fmt.Sprintf(" AND result = $%d", idx)
		args = append(args, q.Result)
		idx++
	}
	if !q.From.IsZero() {
		where += fmt.Sprintf(" AND exam_date >= $%d", idx)
		args = append(args, q.From)
		idx++
	}
	if !q.To.IsZero() {
		where += fmt.Sprintf(" AND exam_date <= $%d", idx)
		args = append(args, q.To)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM sample`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + sampleCols + ` FROM sample` + where +
		fmt.Sprintf(` ORDER BY exam_date DESC, created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM sample WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sample not found")
	}
	return nil
}
