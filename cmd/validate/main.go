// Command validate performs data integrity checks across the mock fixtures:
// the raw JSON rows and the features JSON produced by genmock. It verifies
// field presence, re-runs the domain transforms and compares the result
// row by row, checks encoding invariants, and confirms dead counter-days
// never reach the feature set.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-json data/mock/bike_counts_raw.json \
//	  -features-json data/mock/bike_count_features.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/velodata/bike-count-etl/internal/adapter/frcal"
	"github.com/velodata/bike-count-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawJSON := flag.String("raw-json", "", "path to the raw JSON fixture")
	featuresJSON := flag.String("features-json", "", "path to the features JSON fixture")
	flag.Parse()

	if *rawJSON == "" || *featuresJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rawJSON, *featuresJSON); code != 0 {
		os.Exit(code)
	}
}

func run(rawPath, featuresPath string) int {
	// Fixed clock matching genmock, so processed_at stamps compare equal.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2021, time.May, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Bike Count Fixture Validation ===")
	fmt.Println()

	rawRecords, err := loadJSON[domain.RawRecord](rawPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw JSON: %v\n", err)
		return 1
	}

	featureRows, err := loadJSON[domain.FeatureRow](featuresPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load features JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRawIntegrity(rawRecords),
		validateTransformParity(rawRecords, featureRows),
		validateFeatureInvariants(featureRows),
		validateDeadPeriods(rawRecords, featureRows),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw, %d features\n", len(rawRecords), len(featureRows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Raw Integrity ──
// Every raw row must satisfy the input contract the pipeline enforces.

func validateRawIntegrity(raws []domain.RawRecord) *phase {
	p := &phase{name: "Phase 1: Raw Integrity (input contract)"}

	for i, rec := range raws {
		payload, err := json.Marshal(rec)
		if err != nil {
			p.errorf("record %d: marshal: %v", i, err)
			continue
		}
		if _, err := domain.ParseRawRow(domain.RawEvent{Value: payload}); err != nil {
			p.errorf("record %d (%s): %v", i, rec.CounterName, err)
		}
		if rec.LogBikeCount < 0 {
			p.errorf("record %d (%s): negative log_bike_count %g", i, rec.CounterName, rec.LogBikeCount)
		}
	}
	return p
}

// ── Phase 2: Transform Parity ──
// Re-runs the domain transforms on the raw rows and compares the output with
// the features fixture row by row.

func validateTransformParity(raws []domain.RawRecord, features []domain.FeatureRow) *phase {
	p := &phase{name: "Phase 2: Transform Parity (re-run pipeline)"}

	expected, err := transformRaw(raws)
	if err != nil {
		p.errorf("re-running transforms: %v", err)
		return p
	}

	if len(expected) != len(features) {
		p.errorf("row count: expected %d, got %d", len(expected), len(features))
		return p
	}

	for i := range expected {
		if diff := cmp.Diff(expected[i], features[i]); diff != "" {
			p.errorf("row %d (%s): mismatch (-expected +fixture):\n%s",
				i, expected[i].CounterName, diff)
		}
	}
	return p
}

func transformRaw(raws []domain.RawRecord) ([]domain.FeatureRow, error) {
	ctx := context.Background()

	calendar := frcal.NewCachedCalendar(frcal.NewCalendar())
	school, err := calendar.SchoolHolidays(ctx, domain.ZoneC, 2020, 2021)
	if err != nil {
		return nil, fmt.Errorf("school holidays: %w", err)
	}
	public, err := calendar.PublicHolidays(ctx, 2020, 2021)
	if err != nil {
		return nil, fmt.Errorf("public holidays: %w", err)
	}
	curfew, err := domain.NewCurfewClassifier(domain.DefaultCurfewWindows)
	if err != nil {
		return nil, fmt.Errorf("curfew table: %w", err)
	}
	encoder := domain.NewFeatureEncoder(school, public, curfew)

	observations := make([]domain.Observation, 0, len(raws))
	for i, rec := range raws {
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal record %d: %w", i, err)
		}
		obs, err := domain.ParseRawRow(domain.RawEvent{Value: payload})
		if err != nil {
			return nil, fmt.Errorf("parse record %d: %w", i, err)
		}
		observations = append(observations, obs)
	}

	kept, _ := domain.RemoveDeadPeriods(observations)
	encoded, err := encoder.EncodeDataset(kept)
	if err != nil {
		return nil, err
	}
	return domain.AddWeatherFeatures(encoded), nil
}

// ── Phase 3: Feature Invariants ──
// Checks every feature row against the encoding's structural guarantees.

var (
	validSeasons = map[string]bool{"Winter": true, "Spring": true, "Summer": true, "Fall": true}
	validRain    = map[string]bool{
		domain.RainNone: true, domain.RainLight: true,
		domain.RainModerate: true, domain.RainHeavy: true,
	}
)

func validateFeatureInvariants(features []domain.FeatureRow) *phase {
	p := &phase{name: "Phase 3: Feature Invariants (encoding)"}
	for i := range features {
		checkFeatureRow(p, i, &features[i])
	}
	return p
}

func checkFeatureRow(p *phase, i int, r *domain.FeatureRow) {
	pf := func(format string, args ...any) {
		p.errorf("row %d (%s): "+format, append([]any{i, r.CounterName}, args...)...)
	}

	if r.CounterName == "" {
		pf("counter_name is empty")
	}
	if !validSeasons[r.Season] {
		pf("season %q not in {Winter, Spring, Summer, Fall}", r.Season)
	}
	if !validRain[r.RainCategory] {
		pf("rain_category %q is not a known bin", r.RainCategory)
	}
	if r.Weekday < 0 || r.Weekday > 6 {
		pf("weekday %d outside 0..6", r.Weekday)
	}

	for name, flag := range map[string]int{
		"school_holiday": r.SchoolHoliday,
		"public_holiday": r.PublicHoliday,
		"is_peak":        r.IsPeak,
		"curfew":         r.Curfew,
		"is_hot_day":     r.IsHotDay,
		"is_cold_day":    r.IsColdDay,
		"high_wind":      r.HighWind,
	} {
		if flag != 0 && flag != 1 {
			pf("%s is %d (expected 0 or 1)", name, flag)
		}
	}

	if r.IsHotDay == 1 && r.IsColdDay == 1 {
		pf("is_hot_day and is_cold_day both set (t=%g)", r.Temperature)
	}

	if norm := r.SinHour*r.SinHour + r.CosHour*r.CosHour; math.Abs(norm-1) > 1e-9 {
		pf("sin_hour/cos_hour norm %g != 1", norm)
	}
	if norm := r.SinMonth*r.SinMonth + r.CosMonth*r.CosMonth; math.Abs(norm-1) > 1e-9 {
		pf("sin_month/cos_month norm %g != 1", norm)
	}

	if r.ProcessedAt.IsZero() {
		pf("processed_at is zero")
	}
}

// ── Phase 4: Dead Periods ──
// Any counter-day whose raw log counts sum to zero must be absent from the
// features fixture.

func validateDeadPeriods(raws []domain.RawRecord, features []domain.FeatureRow) *phase {
	p := &phase{name: "Phase 4: Dead Periods (cleaner)"}

	type counterDay struct {
		counter string
		day     string
	}

	sums := map[counterDay]float64{}
	for i, rec := range raws {
		at, err := time.Parse(time.RFC3339, rec.Date)
		if err != nil {
			p.errorf("record %d: malformed date %q", i, rec.Date)
			continue
		}
		key := counterDay{rec.CounterName, at.Format("2006-01-02")}
		sums[key] += rec.LogBikeCount
	}

	// Feature rows carry year and day-of-month. That is enough to match the
	// fixture's short windows, where no counter repeats a (year, day) pair
	// across months.
	featureDays := map[string]map[int]bool{}
	for i := range features {
		r := &features[i]
		if featureDays[r.CounterName] == nil {
			featureDays[r.CounterName] = map[int]bool{}
		}
		featureDays[r.CounterName][r.Year*100+r.Day] = true
	}

	for key, sum := range sums {
		day, err := time.Parse("2006-01-02", key.day)
		if err != nil {
			continue
		}
		present := featureDays[key.counter][day.Year()*100+day.Day()]
		if sum == 0 && present {
			p.errorf("%s on %s: dead day present in features", key.counter, key.day)
		}
		if sum > 0 && !present {
			p.errorf("%s on %s: live day missing from features", key.counter, key.day)
		}
	}
	return p
}
