package domain

import (
	"fmt"
	"math"
	"time"
)

// FeatureEncoder derives calendar and cyclical features from observation
// timestamps. The holiday sets and curfew table are fixed for the lifetime of
// a processing run; the encoder is safe for concurrent use.
type FeatureEncoder struct {
	schoolHolidays DateSet
	publicHolidays DateSet
	curfew         *CurfewClassifier
}

// NewFeatureEncoder builds an encoder over pre-fetched holiday sets and a
// curfew classifier.
func NewFeatureEncoder(school, public DateSet, curfew *CurfewClassifier) *FeatureEncoder {
	return &FeatureEncoder{
		schoolHolidays: school,
		publicHolidays: public,
		curfew:         curfew,
	}
}

// EncodeRow derives all temporal features for one observation and copies the
// count and weather measurements through. A zero date_x means the timestamp
// was never parsed (or was already consumed by a previous encoding pass) and
// fails rather than producing rows full of zero-year features.
func (e *FeatureEncoder) EncodeRow(obs Observation) (FeatureRow, error) {
	if obs.DateX.IsZero() {
		return FeatureRow{}, fmt.Errorf("encode row for %q: date_x is missing", obs.CounterName)
	}

	at := obs.DateX
	month := int(at.Month())
	hour := at.Hour()

	sinHour, cosHour := cyclical(float64(hour), 24)
	sinMonth, cosMonth := cyclical(float64(month), 12)

	row := FeatureRow{
		CounterName:  obs.CounterName,
		LogBikeCount: obs.LogBikeCount,
		Temperature:  obs.Temperature,
		Rainfall:     obs.Rainfall,
		WindSpeed:    obs.WindSpeed,

		Year:    at.Year(),
		Day:     at.Day(),
		Weekday: mondayIndexed(at),
		Season:  seasonOf(month),

		IsPeak: boolFlag(isPeakHour(hour)),

		SinHour:  sinHour,
		CosHour:  cosHour,
		SinMonth: sinMonth,
		CosMonth: cosMonth,

		ProcessedAt: clock.Now(),
	}

	if e.schoolHolidays.Contains(at) {
		row.SchoolHoliday = 1
	}
	if e.publicHolidays.Contains(at) {
		row.PublicHoliday = 1
	}
	if e.curfew != nil && e.curfew.IsCurfew(at) {
		row.Curfew = 1
	}

	return row, nil
}

// EncodeDataset encodes every observation, preserving row count and order.
// It fails on the first contract violation; partial output is never returned.
func (e *FeatureEncoder) EncodeDataset(rows []Observation) ([]FeatureRow, error) {
	out := make([]FeatureRow, 0, len(rows))
	for _, obs := range rows {
		row, err := e.EncodeRow(obs)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// seasonOf maps a month to its meteorological season. Months outside 1–12
// violate the input contract and surface as "Unknown" instead of silently
// landing in a wrong bucket.
func seasonOf(month int) string {
	switch month {
	case 12, 1, 2:
		return "Winter"
	case 3, 4, 5:
		return "Spring"
	case 6, 7, 8:
		return "Summer"
	case 9, 10, 11:
		return "Fall"
	default:
		return "Unknown"
	}
}

// isPeakHour reports whether hour falls in the commuting peaks 06–09 or 16–19.
func isPeakHour(hour int) bool {
	return (hour >= 6 && hour < 9) || (hour >= 16 && hour < 19)
}

// cyclical encodes a periodic value as a (sine, cosine) pair so the model
// sees no discontinuity at the period boundary.
func cyclical(value, period float64) (sin, cos float64) {
	angle := 2 * math.Pi * value / period
	return math.Sin(angle), math.Cos(angle)
}

// mondayIndexed returns the weekday with Monday=0 .. Sunday=6, the convention
// the dataset was published with.
func mondayIndexed(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}
