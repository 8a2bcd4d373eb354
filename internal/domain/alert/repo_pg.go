package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lnp/vigilancia/internal/platform/db"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// =========== Rule Repository ===========

type ruleRepoPG struct{ pool *pgxpool.Pool }

func NewRuleRepoPG(pool *pgxpool.Pool) RuleRepository {
	return &ruleRepoPG{pool: pool}
}

func (r *ruleRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const ruleCols = `id, parasite_field, name, active, window_days,
	caution_threshold, alert_threshold, emergency_threshold, created_at, updated_at`

func scanRule(row pgx.Row) (*Rule, error) {
	var ru Rule
	err := row.Scan(&ru.ID, &ru.ParasiteField, &ru.Name, &ru.Active, &ru.WindowDays,
		&ru.CautionThreshold, &ru.AlertThreshold, &ru.EmergencyThreshold,
		&ru.CreatedAt, &ru.UpdatedAt)
	return &ru, err
}

func (r *ruleRepoPG) Create(ctx context.Context, ru *Rule) error {
	ru.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO alert_rule (id, parasite_field, name, active, window_days,
			caution_threshold, alert_threshold, emergency_threshold)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		ru.ID, ru.ParasiteField, ru.Name, ru.Active, ru.WindowDays,
		ru.CautionThreshold, ru.AlertThreshold, ru.EmergencyThreshold)
	return err
}

func (r *ruleRepoPG) Update(ctx context.Context, ru *Rule) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE alert_rule
		SET name = $2, active = $3, window_days = $4, caution_threshold = $5,
			alert_threshold = $6, emergency_threshold = $7, updated_at = NOW()
		WHERE id = $1`,
		ru.ID, ru.Name, ru.Active, ru.WindowDays,
		ru.CautionThreshold, ru.AlertThreshold, ru.EmergencyThreshold)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rule not found")
	}
	return nil
}

func (r *ruleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Rule, error) {
	return scanRule(r.conn(ctx).QueryRow(ctx, `SELECT `+ruleCols+` FROM alert_rule WHERE id = $1`, id))
}

func (r *ruleRepoPG) GetActiveByField(ctx context.Context, field string) (*Rule, error) {
	ru, err := scanRule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+ruleCols+` FROM alert_rule WHERE parasite_field = $1 AND active`, field))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ru, nil
}

func (r *ruleRepoPG) UpsertByField(ctx context.Context, ru *Rule) error {
	ru.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO alert_rule (id, parasite_field, name, active, window_days,
			caution_threshold, alert_threshold, emergency_threshold)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (parasite_field) DO UPDATE
		SET name = EXCLUDED.name,
			active = EXCLUDED.active,
			window_days = EXCLUDED.window_days,
			caution_threshold = EXCLUDED.caution_threshold,
			alert_threshold = EXCLUDED.alert_threshold,
			emergency_threshold = EXCLUDED.emergency_threshold,
			updated_at = NOW()`,
		ru.ID, ru.ParasiteField, ru.Name, ru.Active, ru.WindowDays,
		ru.CautionThreshold, ru.AlertThreshold, ru.EmergencyThreshold)
	return err
}

func (r *ruleRepoPG) List(ctx context.Context) ([]*Rule, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+ruleCols+` FROM alert_rule ORDER BY parasite_field`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Rule
	for rows.Next() {
		ru, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ru)
	}
	return items, rows.Err()
}

// =========== Alert Repository ===========

type alertRepoPG struct{ pool *pgxpool.Pool }

func NewAlertRepoPG(pool *pgxpool.Pool) AlertRepository {
	return &alertRepoPG{pool: pool}
}

func (r *alertRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const alertCols = `id, rule_id, parasite_field, facility_id, region_id, severity,
	status, case_count, day_case_count, trigger_sample_id, notes, resolved_at,
	created_at, updated_at`

func scanAlert(row pgx.Row) (*Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.RuleID, &a.ParasiteField, &a.FacilityID, &a.RegionID,
		&a.Severity, &a.Status, &a.CaseCount, &a.DayCaseCount, &a.TriggerSampleID,
		&a.Notes, &a.ResolvedAt, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *alertRepoPG) Create(ctx context.Context, a *Alert) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO alert (id, rule_id, parasite_field, facility_id, region_id,
			severity, status, case_count, day_case_count, trigger_sample_id, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.RuleID, a.ParasiteField, a.FacilityID, a.RegionID,
		a.Severity, a.Status, a.CaseCount, a.DayCaseCount, a.TriggerSampleID, a.Notes)
	return err
}

func (r *alertRepoPG) Update(ctx context.Context, a *Alert) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE alert
		SET severity = $2, status = $3, case_count = $4, day_case_count = $5,
			trigger_sample_id = $6, notes = $7, resolved_at = $8, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.Severity, a.Status, a.CaseCount, a.DayCaseCount,
		a.TriggerSampleID, a.Notes, a.ResolvedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("alert not found")
	}
	return nil
}

func (r *alertRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	return scanAlert(r.conn(ctx).QueryRow(ctx, `SELECT `+alertCols+` FROM alert WHERE id = $1`, id))
}

func (r *alertRepoPG) FindOpen(ctx context.Context, ruleID, facilityID uuid.UUID) (*Alert, error) {
	a, err := scanAlert(r.conn(ctx).QueryRow(ctx, `
		SELECT `+alertCols+` FROM alert
		WHERE rule_id = $1 AND facility_id = $2
		  AND status IN ('ACTIVE','IN_PROGRESS')`,
		ruleID, facilityID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *alertRepoPG) List(ctx context.Context, q ListQuery) ([]*Alert, int, error) {
	where := ` WHERE TRUE`
	args := []interface{}{}
	idx := 1

	if q.OnlyOpen {
		where += ` AND status IN ('ACTIVE','IN_PROGRESS')`
	}
	if q.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, q.Status)
		idx++
	}
	if q.Severity != "" {
		where += fmt.Sprintf(" AND severity = $%d", idx)
		args = append(args, q.Severity)
		idx++
	}
	if q.RegionID != uuid.Nil {
		where += fmt.Sprintf(" AND region_id = $%d", idx)
		args = append(args, q.RegionID)
		idx++
	}
	if q.FacilityID != uuid.Nil {
		where += fmt.Sprintf(" AND facility_id = $%d", idx)
		args = append(args, q.FacilityID)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM alert`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + alertCols + ` FROM alert` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, q.Limit, q.Offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *alertRepoPG) CountWindowCases(ctx context.Context, facilityID uuid.UUID, field string, from, to time.Time) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM sample
		WHERE facility_id = $1
		  AND result = 'POS'
		  AND active
		  AND exam_date >= $2 AND exam_date <= $3
		  AND COALESCE(parasites->>$4, '') <> ''`,
		facilityID, from, to, field).Scan(&count)
	return count, err
}

func (r *alertRepoPG) CountDayCases(ctx context.Context, facilityID uuid.UUID, field string, day time.Time) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM sample
		WHERE facility_id = $1
		  AND result = 'POS'
		  AND active
		  AND exam_date = $2
		  AND COALESCE(parasites->>$3, '') <> ''`,
		facilityID, day, field).Scan(&count)
	return count, err
}
