// Command genmock generates deterministic mock data fixtures for the test
// suites: a raw JSON file shaped like the collector's output and a features
// JSON file produced by running the actual domain transforms, so the fixtures
// always match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -raw-out data/mock/bike_counts_raw.json \
//	  -features-out data/mock/bike_count_features.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/velodata/bike-count-etl/internal/adapter/frcal"
	"github.com/velodata/bike-count-etl/internal/domain"
)

// counters are the sensors the fixture covers, with a base traffic level.
var counters = []struct {
	name string
	base float64
}{
	{"28 boulevard Diderot E-O", 2.8},
	{"Totem 73 boulevard de Sébastopol S-N", 4.2},
	{"152 boulevard du Montparnasse O-E", 3.1},
}

// days covered by the fixture: a school-holiday stretch with a curfew in
// force, plus a plain working week in spring.
var fixtureDays = []time.Time{
	time.Date(2020, time.October, 19, 0, 0, 0, 0, time.UTC),
	time.Date(2020, time.October, 20, 0, 0, 0, 0, time.UTC),
	time.Date(2020, time.October, 21, 0, 0, 0, 0, time.UTC),
	time.Date(2021, time.April, 5, 0, 0, 0, 0, time.UTC), // Easter Monday
	time.Date(2021, time.April, 6, 0, 0, 0, 0, time.UTC),
	time.Date(2021, time.April, 7, 0, 0, 0, 0, time.UTC),
}

// deadDay is fully zeroed for the first counter so the cleaner has work to do.
var deadDay = time.Date(2020, time.October, 21, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rawOut := flag.String("raw-out", "", "output path for the raw JSON fixture")
	featuresOut := flag.String("features-out", "", "output path for the features JSON fixture")
	flag.Parse()

	if *rawOut == "" || *featuresOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw-out, -features-out")
	}

	// Freeze processed_at for reproducible fixtures.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2021, time.May, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	records := generateRawRecords()
	log.Printf("generated %d raw rows (%d counters, %d days)",
		len(records), len(counters), len(fixtureDays))

	features, dropped, err := transform(records)
	if err != nil {
		return err
	}
	log.Printf("encoded %d feature rows (%d dropped by the dead-period cleaner)",
		len(features), dropped)

	if err := writeJSON(*rawOut, records); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s", *rawOut)

	if err := writeJSON(*featuresOut, features); err != nil {
		return fmt.Errorf("writing features fixture: %w", err)
	}
	log.Printf("wrote features fixture: %s", *featuresOut)

	printStats(features)
	return nil
}

// generateRawRecords synthesizes one row per counter per hour, with a diurnal
// count curve and weather that varies by season. Everything is a pure function
// of counter and timestamp, so regeneration is reproducible.
func generateRawRecords() []domain.RawRecord {
	records := make([]domain.RawRecord, 0, len(counters)*len(fixtureDays)*24)

	for _, day := range fixtureDays {
		for hour := 0; hour < 24; hour++ {
			at := day.Add(time.Duration(hour) * time.Hour)
			for i, c := range counters {
				count := syntheticCount(c.base, hour)
				if i == 0 && day.Equal(deadDay) {
					count = 0
				}
				records = append(records, domain.RawRecord{
					Date:         at.Format(time.RFC3339),
					DateX:        at.Format(time.RFC3339),
					CounterName:  c.name,
					LogBikeCount: count,
					T:            syntheticTemperature(day, hour),
					RR1:          syntheticRainfall(day, hour),
					FF:           syntheticWind(day, hour),
				})
			}
		}
	}
	return records
}

// syntheticCount shapes log counts around the two commuting peaks.
func syntheticCount(base float64, hour int) float64 {
	switch {
	case hour >= 6 && hour < 9, hour >= 16 && hour < 19:
		return round2(base + 1.2)
	case hour >= 9 && hour < 16:
		return round2(base)
	case hour >= 19 && hour < 23:
		return round2(base - 1.0)
	default:
		return round2(math.Max(base-2.4, 0.1))
	}
}

// syntheticTemperature gives a daily sinusoid around a seasonal mean (Kelvin).
func syntheticTemperature(day time.Time, hour int) float64 {
	mean := 284.0 // October
	if day.Month() == time.April {
		mean = 287.0
	}
	return round2(mean + 4*math.Sin(2*math.Pi*float64(hour-9)/24))
}

// syntheticRainfall rains on even days in the late afternoon.
func syntheticRainfall(day time.Time, hour int) float64 {
	if day.Day()%2 == 0 && hour >= 16 && hour < 19 {
		return 2.4
	}
	return 0
}

// syntheticWind gusts above the high-wind threshold around midday.
func syntheticWind(day time.Time, hour int) float64 {
	base := 3.0
	if hour >= 11 && hour < 15 {
		base = 6.5
	}
	if day.Month() == time.October {
		base += 0.5
	}
	return round2(base)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// transform runs the real domain pipeline over the records: parse, clean,
// encode, weather.
func transform(records []domain.RawRecord) ([]domain.FeatureRow, int, error) {
	ctx := context.Background()

	calendar := frcal.NewCachedCalendar(frcal.NewCalendar())
	school, err := calendar.SchoolHolidays(ctx, domain.ZoneC, 2020, 2021)
	if err != nil {
		return nil, 0, fmt.Errorf("school holidays: %w", err)
	}
	public, err := calendar.PublicHolidays(ctx, 2020, 2021)
	if err != nil {
		return nil, 0, fmt.Errorf("public holidays: %w", err)
	}
	curfew, err := domain.NewCurfewClassifier(domain.DefaultCurfewWindows)
	if err != nil {
		return nil, 0, fmt.Errorf("curfew table: %w", err)
	}
	encoder := domain.NewFeatureEncoder(school, public, curfew)

	observations := make([]domain.Observation, 0, len(records))
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal record %d: %w", i, err)
		}
		obs, err := domain.ParseRawRow(domain.RawEvent{Value: payload})
		if err != nil {
			return nil, 0, fmt.Errorf("parse record %d: %w", i, err)
		}
		observations = append(observations, obs)
	}

	kept, periods := domain.RemoveDeadPeriods(observations)
	for _, p := range periods {
		log.Printf("dead period: %s on %s", p.CounterName, p.Day.Format("2006-01-02"))
	}

	encoded, err := encoder.EncodeDataset(kept)
	if err != nil {
		return nil, 0, err
	}
	return domain.AddWeatherFeatures(encoded), len(observations) - len(kept), nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(rows []domain.FeatureRow) {
	counterCounts := map[string]int{}
	seasonCounts := map[string]int{}
	rainCounts := map[string]int{}
	var curfewRows, schoolRows, publicRows, peakRows, hotRows, coldRows, windRows int

	for i := range rows {
		r := &rows[i]
		counterCounts[r.CounterName]++
		seasonCounts[r.Season]++
		rainCounts[r.RainCategory]++
		curfewRows += r.Curfew
		schoolRows += r.SchoolHoliday
		publicRows += r.PublicHoliday
		peakRows += r.IsPeak
		hotRows += r.IsHotDay
		coldRows += r.IsColdDay
		windRows += r.HighWind
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(rows))
	for _, c := range counters {
		fmt.Printf("  %s: %d\n", c.name, counterCounts[c.name])
	}
	fmt.Printf("By season: Fall=%d, Spring=%d\n", seasonCounts["Fall"], seasonCounts["Spring"])
	fmt.Printf("By rain: none=%d, light=%d, moderate=%d, heavy=%d\n",
		rainCounts[domain.RainNone], rainCounts[domain.RainLight],
		rainCounts[domain.RainModerate], rainCounts[domain.RainHeavy])
	fmt.Printf("Flags: curfew=%d, school_holiday=%d, public_holiday=%d, is_peak=%d\n",
		curfewRows, schoolRows, publicRows, peakRows)
	fmt.Printf("Weather flags: hot=%d, cold=%d, high_wind=%d\n", hotRows, coldRows, windRows)
}
