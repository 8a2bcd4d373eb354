package surveillance

import (
	"context"
	"time"
)

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"sql"`
	Parameters  []string `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
}

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "sample-volume-by-week",
		Name:        "Sample Volume by Week",
		Description: "Samples, positives and negatives per epidemiological week, most recent first",
		SQL: `SELECT year, week, total_samples, positive_samples, negative_samples
			FROM epi_week WHERE total_samples > 0
			ORDER BY year DESC, week DESC LIMIT 52`,
	},
	{
		ID:          "positivity-by-region",
		Name:        "Positivity by Region",
		Description: "Total and positive samples per sanitary region",
		SQL: `SELECT r.number, r.name, COUNT(s.id) AS total,
			COUNT(s.id) FILTER (WHERE s.result = 'POS') AS positives
			FROM region r
			LEFT JOIN facility f ON f.region_id = r.id
			LEFT JOIN sample s ON s.facility_id = f.id AND s.active
			WHERE r.active
			GROUP BY r.number, r.name ORDER BY r.number`,
	},
	{
		ID:          "open-alerts-by-severity",
		Name:        "Open Alerts by Severity",
		Description: "Count of open alerts grouped by severity",
		SQL: `SELECT severity, COUNT(*) AS total FROM alert
			WHERE status IN ('ACTIVE','IN_PROGRESS')
			GROUP BY severity ORDER BY total DESC`,
	},
	{
		ID:          "kato-katz-intensity",
		Name:        "Kato-Katz Intensity Distribution",
		Description: "Ascaris infection intensity distribution among measured samples",
		SQL: `SELECT kato_katz AS intensity, COUNT(*) AS total FROM sample
			WHERE active AND kato_katz <> ''
			GROUP BY kato_katz ORDER BY total DESC`,
	},
	{
		ID:          "samples-without-week",
		Name:        "Samples Without Week Assignment",
		Description: "Data-integrity check: active samples missing their epidemiological week link",
		SQL:         `SELECT COUNT(*) AS total FROM sample WHERE active AND week_id IS NULL`,
	},
	{
		ID:          "legacy-flag-mismatches",
		Name:        "Legacy Flag Mismatches",
		Description: "Migrated samples whose legacy no-parasites flag disagrees with the derived result",
		SQL: `SELECT COUNT(*) AS total FROM sample
			WHERE active AND no_parasites_flag IS NOT NULL
			  AND no_parasites_flag <> (result = 'NEG')`,
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// EvaluateMeasure executes a measure's SQL and returns the rows as maps.
func (q *Queries) EvaluateMeasure(ctx context.Context, m *MeasureDefinition) (*MeasureReport, error) {
	rows, err := q.conn(ctx).Query(ctx, m.SQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &MeasureReport{
		MeasureID:   m.ID,
		MeasureName: m.Name,
		GeneratedAt: time.Now().UTC(),
		Results:     results,
	}, nil
}
