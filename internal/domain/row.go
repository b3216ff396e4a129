package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawRecord is the flat JSON structure produced by the collector: one
// counter-hour with the weather fields already joined in.
type RawRecord struct {
	Date         string  `json:"date"`
	DateX        string  `json:"date_x"`
	CounterName  string  `json:"counter_name"`
	LogBikeCount float64 `json:"log_bike_count"`
	T            float64 `json:"t"`   // air temperature, Kelvin
	RR1          float64 `json:"rr1"` // rainfall past hour, mm
	FF           float64 `json:"ff"`  // mean wind speed, m/s
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Observation is one parsed counter-hour measurement.
type Observation struct {
	CounterName  string
	Date         time.Time // cleaner timestamp
	DateX        time.Time // feature timestamp
	LogBikeCount float64
	Temperature  float64 // Kelvin
	Rainfall     float64 // mm
	WindSpeed    float64 // m/s
}

// FeatureRow is the enriched output row. It intentionally has no timestamp,
// hour, or month field: those are consumed by the encoding and dropped, so a
// FeatureRow cannot be fed back through the encoder.
type FeatureRow struct {
	CounterName  string  `json:"counter_name"`
	LogBikeCount float64 `json:"log_bike_count"`
	Temperature  float64 `json:"t"`
	Rainfall     float64 `json:"rr1"`
	WindSpeed    float64 `json:"ff"`

	Year    int    `json:"year"`
	Day     int    `json:"day"`
	Weekday int    `json:"weekday"` // Monday=0 .. Sunday=6
	Season  string `json:"season"`

	SchoolHoliday int `json:"school_holiday"`
	PublicHoliday int `json:"public_holiday"`
	IsPeak        int `json:"is_peak"`
	Curfew        int `json:"curfew"`

	SinHour  float64 `json:"sin_hour"`
	CosHour  float64 `json:"cos_hour"`
	SinMonth float64 `json:"sin_month"`
	CosMonth float64 `json:"cos_month"`

	RainCategory string `json:"rain_category"`
	IsHotDay     int    `json:"is_hot_day"`
	IsColdDay    int    `json:"is_cold_day"`
	HighWind     int    `json:"high_wind"`

	ProcessedAt time.Time `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// timestampLayouts are the accepted wire formats for date and date_x.
// The collector writes RFC 3339; older exports use the space-separated form.
var timestampLayouts = []string{time.RFC3339, "2006-01-02 15:04:05"}

// ParseRawRow deserializes a RawEvent's value into an Observation.
// A missing counter name or a missing/unparseable timestamp is an
// input-contract violation and fails with an error naming the field.
func ParseRawRow(raw RawEvent) (Observation, error) {
	var rec RawRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Observation{}, fmt.Errorf("parse raw row: %w", err)
	}

	if rec.CounterName == "" {
		return Observation{}, fmt.Errorf("parse raw row: missing counter_name")
	}

	date, err := parseTimestamp("date", rec.Date)
	if err != nil {
		return Observation{}, err
	}
	dateX, err := parseTimestamp("date_x", rec.DateX)
	if err != nil {
		return Observation{}, err
	}

	return Observation{
		CounterName:  rec.CounterName,
		Date:         date,
		DateX:        dateX,
		LogBikeCount: rec.LogBikeCount,
		Temperature:  rec.T,
		Rainfall:     rec.RR1,
		WindSpeed:    rec.FF,
	}, nil
}

func parseTimestamp(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("parse raw row: missing %s", field)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse raw row: malformed %s %q", field, value)
}

// SerializeFeatureRow marshals a FeatureRow into an OutputEvent. The key is
// the counter name so one counter's rows land on one partition, which keeps
// sensor-days contiguous for any downstream per-counter consumer.
func SerializeFeatureRow(row FeatureRow) (OutputEvent, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize feature row: %w", err)
	}
	return OutputEvent{
		Key:   []byte(row.CounterName),
		Value: data,
		Headers: map[string]string{
			"counter_name": row.CounterName,
			"processed_at": row.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
