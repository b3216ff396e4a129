package domain

import (
	"fmt"
	"time"
)

// CurfewWindow is a recurring nightly restriction: between StartHour
// (inclusive) and EndHour (exclusive, past midnight) on every calendar day in
// [Start, End]. StartHour must be later than EndHour: the hour test below
// only handles windows that wrap midnight.
type CurfewWindow struct {
	Start     time.Time
	End       time.Time
	StartHour int
	EndHour   int
}

// DefaultCurfewWindows lists the five COVID-19 curfew periods enforced in
// Paris between October 2020 and June 2021. Static historical policy.
var DefaultCurfewWindows = []CurfewWindow{
	{Start: date(2020, 10, 17), End: date(2020, 10, 29), StartHour: 21, EndHour: 6},
	{Start: date(2021, 1, 16), End: date(2021, 3, 20), StartHour: 18, EndHour: 6},
	{Start: date(2021, 3, 21), End: date(2021, 5, 19), StartHour: 19, EndHour: 6},
	{Start: date(2021, 5, 20), End: date(2021, 6, 9), StartHour: 21, EndHour: 6},
	{Start: date(2021, 6, 10), End: date(2021, 6, 20), StartHour: 23, EndHour: 6},
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CurfewClassifier decides whether a timestamp falls inside one of a fixed,
// ordered list of curfew windows.
type CurfewClassifier struct {
	windows []CurfewWindow
}

// NewCurfewClassifier builds a classifier over the given windows. A window
// whose StartHour is not later than its EndHour is rejected: the membership
// test is `hour >= start || hour < end`, which is only correct for
// restrictions spanning midnight. A same-day window would match every hour
// outside its intended range, so it must be caught here rather than at
// classification time.
func NewCurfewClassifier(windows []CurfewWindow) (*CurfewClassifier, error) {
	for _, w := range windows {
		if w.StartHour <= w.EndHour {
			return nil, fmt.Errorf("curfew window %s–%s: start hour %d must be later than end hour %d (windows must span midnight)",
				w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"), w.StartHour, w.EndHour)
		}
		if w.End.Before(w.Start) {
			return nil, fmt.Errorf("curfew window %s–%s: end date before start date",
				w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
		}
	}
	return &CurfewClassifier{windows: windows}, nil
}

// IsCurfew reports whether at falls inside an active curfew. The date must
// lie within a window's range and the hour must be at or after the start
// hour, or before the end hour on the far side of midnight. First matching
// window wins; the source windows do not overlap, so ordering is only a
// determinism guarantee.
func (c *CurfewClassifier) IsCurfew(at time.Time) bool {
	day := dayOf(at)
	for _, w := range c.windows {
		if day.Before(w.Start) || day.After(w.End) {
			continue
		}
		hour := at.Hour()
		if hour >= w.StartHour || hour < w.EndHour {
			return true
		}
	}
	return false
}
