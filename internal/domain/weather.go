package domain

// Rain categories, ordered by intensity.
const (
	RainNone     = "No Rain"
	RainLight    = "Light Rain"
	RainModerate = "Moderate Rain"
	RainHeavy    = "Heavy Rain"
)

// RainCategory buckets an hourly rainfall measurement (mm) into four ordered
// bins with left-open, right-closed boundaries: (−1,0] (0,2] (2,10] (10,∞).
// Exactly 0 mm is "No Rain"; exactly 2 mm is still "Light Rain".
func RainCategory(mm float64) string {
	switch {
	case mm <= 0:
		return RainNone
	case mm <= 2:
		return RainLight
	case mm <= 10:
		return RainModerate
	default:
		return RainHeavy
	}
}

// Weather indicator thresholds. Temperature is in Kelvin (synoptic data
// convention): 300 K ≈ 27 °C, 283 K ≈ 10 °C. Wind in m/s.
const (
	hotDayKelvin  = 300.0
	coldDayKelvin = 283.0
	highWindMS    = 5.0
)

// AddWeatherFeatures fills the weather-derived fields on each row from the
// measurements it already carries. Purely additive: row count and all other
// fields are untouched. Hot and cold can never both fire; high wind is
// independent of both.
func AddWeatherFeatures(rows []FeatureRow) []FeatureRow {
	out := make([]FeatureRow, len(rows))
	for i, row := range rows {
		row.RainCategory = RainCategory(row.Rainfall)
		row.IsHotDay = boolFlag(row.Temperature > hotDayKelvin)
		row.IsColdDay = boolFlag(row.Temperature < coldDayKelvin)
		row.HighWind = boolFlag(row.WindSpeed > highWindMS)
		out[i] = row
	}
	return out
}
