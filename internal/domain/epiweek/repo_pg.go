package epiweek

import (
	"context"
	"fmt"
	"time"

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

const weekCols = `id, year, week, start_date, end_date, total_samples,
	positive_samples, negative_samples, alert_active, notes, created_at, updated_at`

func scanWeek(row pgx.Row) (*Week, error) {
	var w Week
	err := row.Scan(&w.ID, &w.Year, &w.Number, &w.StartDate, &w.EndDate,
		&w.TotalSamples, &w.PositiveSamples, &w.NegativeSamples,
		&w.AlertActive, &w.Notes, &w.CreatedAt, &w.UpdatedAt)
	return &w, err
}

// GetOrCreate relies on the UNIQUE (year, week) constraint: a concurrent
// insert of the same bucket makes our INSERT a no-op and the re-select
// returns the winner's row.
func (r *repoPG) GetOrCreate(ctx context.Context, year, number int, start, end time.Time) (*Week, error) {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO epi_week (id, year, week, start_date, end_date)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (year, week) DO NOTHING`,
		uuid.New(), year, number, start, end)
	if err != nil {
		return nil, err
	}
	return r.GetByYearWeek(ctx, year, number)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Week, error) {
	return scanWeek(r.conn(ctx).QueryRow(ctx, `SELECT `+weekCols+` FROM epi_week WHERE id = $1`, id))
}

func (r *repoPG) GetByYearWeek(ctx context.Context, year, number int) (*Week, error) {
	return scanWeek(r.conn(ctx).QueryRow(ctx,
		`SELECT `+weekCols+` FROM epi_week WHERE year = $1 AND week = $2`, year, number))
}

func (r *repoPG) ListByYear(ctx context.Context, year int) ([]*Week, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+weekCols+` FROM epi_week WHERE year = $1 ORDER BY week`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Week
	for rows.Next() {
		w, err := scanWeek(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

func (r *repoPG) Recompute(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE epi_week w
		SET total_samples    = c.total,
			positive_samples = c.positive,
			negative_samples = c.negative,
			updated_at       = NOW()
		FROM (
			SELECT COUNT(*)                                   AS total,
				   COUNT(*) FILTER (WHERE result = 'POS')     AS positive,
				   COUNT(*) FILTER (WHERE result = 'NEG')     AS negative
			FROM sample
			WHERE week_id = $1 AND active
		) c
		WHERE w.id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("week not found")
	}
	return nil
}

func (r *repoPG) SetAlertActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE epi_week SET alert_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	return err
}
