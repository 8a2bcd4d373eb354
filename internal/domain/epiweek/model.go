package epiweek

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Week is an ISO-8601 epidemiological week bucket with cached sample
// counters. (Year, Number) is unique; StartDate is always a Monday and
// EndDate the following Sunday. Counters are maintained by full recounts,
// never by increments.
type Week struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Year            int       `db:"year" json:"year"`
	Number          int       `db:"week" json:"week"`
	StartDate       time.Time `db:"start_date" json:"start_date"`
	EndDate         time.Time `db:"end_date" json:"end_date"`
	TotalSamples    int       `db:"total_samples" json:"total_samples"`
	PositiveSamples int       `db:"positive_samples" json:"positive_samples"`
	NegativeSamples int       `db:"negative_samples" json:"negative_samples"`
	AlertActive     bool      `db:"alert_active" json:"alert_active"`
	Notes           string    `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// PositivityRate returns the percentage of positive samples rounded to two
// decimals. An empty week reports 0.0, not NaN.
func (w *Week) PositivityRate() float64 {
	if w.TotalSamples == 0 {
		return 0.0
	}
	rate := float64(w.PositiveSamples) / float64(w.TotalSamples) * 100
	return math.Round(rate*100) / 100
}

// Bounds computes the Monday start and Sunday end of the ISO week
// containing date.
func Bounds(date time.Time) (start, end time.Time) {
	weekday := int(date.Weekday())
	if weekday == 0 { // time.Sunday
		weekday = 7
	}
	start = date.AddDate(0, 0, -(weekday - 1))
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 0, 6)
	return start, end
}
