package surveillance

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lnp/vigilancia/internal/domain/sample"
	"github.com/lnp/vigilancia/internal/platform/db"
)

// Rate bands used by the national map: positivity >= 15% is high,
// >= 8% medium, anything above zero low.
const (
	BandHigh   = "ALTA"
	BandMedium = "MEDIA"
	BandLow    = "BAJA"
	BandNoData = "SIN_DATOS"
)

// RateBand classifies a positivity rate for map rendering.
func RateBand(totalSamples int, rate float64) string {
	switch {
	case totalSamples == 0:
		return BandNoData
	case rate >= 15:
		return BandHigh
	case rate >= 8:
		return BandMedium
	case rate > 0:
		return BandLow
	default:
		return BandNoData
	}
}

func roundRate(positive, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return math.Round(float64(positive)/float64(total)*100*100) / 100
}

// Summary is an aggregate over a scope (national, regional or facility).
type Summary struct {
	TotalSamples    int     `json:"total_muestras"`
	PositiveSamples int     `json:"total_positivas"`
	NegativeSamples int     `json:"total_negativas"`
	PositivityRate  float64 `json:"tasa_positividad"`
}

// RegionStanding is one row of the per-region ranking.
type RegionStanding struct {
	RegionID     uuid.UUID `json:"region_id"`
	Number       int       `json:"numero"`
	Name         string    `json:"nombre"`
	Metropolitan bool      `json:"es_metropolitana"`
	Summary
	Band string `json:"intensidad"`
}

// ParasiteCount is one row of the parasite frequency table.
type ParasiteCount struct {
	FieldID    string  `json:"field_id"`
	Label      string  `json:"nombre"`
	Total      int     `json:"total"`
	Percentage float64 `json:"porcentaje"`
}

// FacilityActivity is one row of the most-active-facilities table.
type FacilityActivity struct {
	FacilityID uuid.UUID `json:"facility_id"`
	Code       string    `json:"codigo"`
	Name       string    `json:"nombre"`
	Summary
}

// Queries is the read-only aggregation layer. It goes straight to SQL:
// dashboards never mutate state, so no service sits in between.
type Queries struct {
	pool *pgxpool.Pool
}

func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

func (q *Queries) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return q.pool
}

func dateFilter(base string, argOffset int, from, to time.Time) (string, []interface{}) {
	var args []interface{}
	if !from.IsZero() {
		base += fmt.Sprintf(" AND s.exam_date >= $%d", argOffset+len(args)+1)
		args = append(args, from)
	}
	if !to.IsZero() {
		base += fmt.Sprintf(" AND s.exam_date <= $%d", argOffset+len(args)+1)
		args = append(args, to)
	}
	return base, args
}

// NationalSummary aggregates every active sample in the date range.
func (q *Queries) NationalSummary(ctx context.Context, from, to time.Time) (*Summary, error) {
	where, args := dateFilter(`WHERE s.active`, 0, from, to)
	var s Summary
	err := q.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			   COUNT(*) FILTER (WHERE s.result = 'POS'),
			   COUNT(*) FILTER (WHERE s.result = 'NEG')
		FROM sample s `+where, args...).
		Scan(&s.TotalSamples, &s.PositiveSamples, &s.NegativeSamples)
	if err != nil {
		return nil, err
	}
	s.PositivityRate = roundRate(s.PositiveSamples, s.TotalSamples)
	return &s, nil
}

// RegionRanking returns every active region with its totals, rate and
// band, ordered by region number. Regions without samples appear with
// zero counts so the map stays complete.
func (q *Queries) RegionRanking(ctx context.Context, from, to time.Time) ([]*RegionStanding, error) {
	join, args := dateFilter(`AND s.active`, 0, from, to)
	rows, err := q.conn(ctx).Query(ctx, `
		SELECT r.id, r.number, r.name, r.metropolitan,
			   COUNT(s.id),
			   COUNT(s.id) FILTER (WHERE s.result = 'POS'),
			   COUNT(s.id) FILTER (WHERE s.result = 'NEG')
		FROM region r
		LEFT JOIN facility f ON f.region_id = r.id
		LEFT JOIN sample s ON s.facility_id = f.id `+join+`
		WHERE r.active
		GROUP BY r.id, r.number, r.name, r.metropolitan
		ORDER BY r.number`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*RegionStanding
	for rows.Next() {
		var st RegionStanding
		if err := rows.Scan(&st.RegionID, &st.Number, &st.Name, &st.Metropolitan,
			&st.TotalSamples, &st.PositiveSamples, &st.NegativeSamples); err != nil {
			return nil, err
		}
		st.PositivityRate = roundRate(st.PositiveSamples, st.TotalSamples)
		st.Band = RateBand(st.TotalSamples, st.PositivityRate)
		items = append(items, &st)
	}
	return items, rows.Err()
}

// TopParasites counts positive samples per catalog field over the range,
// in descending frequency. Percentage is relative to all positives.
func (q *Queries) TopParasites(ctx context.Context, from, to time.Time, limit int) ([]*ParasiteCount, error) {
	where, args := dateFilter(`WHERE s.active AND s.result = 'POS'`, 0, from, to)

	var totalPositive int
	if err := q.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM sample s `+where, args...).Scan(&totalPositive); err != nil {
		return nil, err
	}

	var items []*ParasiteCount
	for _, f := range sample.Catalog {
		fieldArgs := append(append([]interface{}{}, args...), f.ID)
		var count int
		err := q.conn(ctx).QueryRow(ctx, `
			SELECT COUNT(*) FROM sample s `+where+
			fmt.Sprintf(` AND COALESCE(s.parasites->>$%d, '') <> ''`, len(args)+1), fieldArgs...).
			Scan(&count)
		if err != nil {
			return nil, err
		}
		pct := 0.0
		if totalPositive > 0 {
			pct = math.Round(float64(count)/float64(totalPositive)*100*100) / 100
		}
		items = append(items, &ParasiteCount{FieldID: f.ID, Label: f.Label, Total: count, Percentage: pct})
	}

	// Insertion sort keeps ties in catalog order.
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Total > items[j-1].Total; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

// FacilitySummary aggregates one facility's samples over the range.
func (q *Queries) FacilitySummary(ctx context.Context, facilityID uuid.UUID, from, to time.Time) (*Summary, error) {
	where, args := dateFilter(`WHERE s.active AND s.facility_id = $1`, 1, from, to)
	args = append([]interface{}{facilityID}, args...)
	var s Summary
	err := q.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			   COUNT(*) FILTER (WHERE s.result = 'POS'),
			   COUNT(*) FILTER (WHERE s.result = 'NEG')
		FROM sample s `+where, args...).
		Scan(&s.TotalSamples, &s.PositiveSamples, &s.NegativeSamples)
	if err != nil {
		return nil, err
	}
	s.PositivityRate = roundRate(s.PositiveSamples, s.TotalSamples)
	return &s, nil
}

// TopFacilities lists the facilities with the most samples in the range.
func (q *Queries) TopFacilities(ctx context.Context, from, to time.Time, limit int) ([]*FacilityActivity, error) {
	join, args := dateFilter(`AND s.active`, 0, from, to)
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)
	rows, err := q.conn(ctx).Query(ctx, `
		SELECT f.id, f.code, f.name,
			   COUNT(s.id),
			   COUNT(s.id) FILTER (WHERE s.result = 'POS'),
			   COUNT(s.id) FILTER (WHERE s.result = 'NEG')
		FROM facility f
		JOIN sample s ON s.facility_id = f.id `+join+`
		GROUP BY f.id, f.code, f.name
		HAVING COUNT(s.id) > 0
		ORDER BY COUNT(s.id) DESC
		LIMIT $`+fmt.Sprintf("%d", len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*FacilityActivity
	for rows.Next() {
		var fa FacilityActivity
		if err := rows.Scan(&fa.FacilityID, &fa.Code, &fa.Name,
			&fa.TotalSamples, &fa.PositiveSamples, &fa.NegativeSamples); err != nil {
			return nil, err
		}
		fa.PositivityRate = roundRate(fa.PositiveSamples, fa.TotalSamples)
		items = append(items, &fa)
	}
	return items, rows.Err()
}
