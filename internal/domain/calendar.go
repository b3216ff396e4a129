package domain

import (
	"context"
	"time"
)

// Zone is a French school-holiday administrative zone. Paris counters sit in
// zone C.
type Zone string

const (
	ZoneA Zone = "A"
	ZoneB Zone = "B"
	ZoneC Zone = "C"
)

// DateSet is a day-granularity set of calendar dates. Membership ignores the
// time-of-day component of the probe.
type DateSet map[time.Time]struct{}

// NewDateSet builds a DateSet from the given dates, truncated to midnight.
func NewDateSet(dates ...time.Time) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

// Add inserts the calendar day of t.
func (s DateSet) Add(t time.Time) {
	s[dayOf(t)] = struct{}{}
}

// Contains reports whether the calendar day of t is in the set.
func (s DateSet) Contains(t time.Time) bool {
	_, ok := s[dayOf(t)]
	return ok
}

// dayOf truncates a timestamp to its calendar day, preserving nothing but
// year/month/day. Used as the canonical set and grouping key.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// HolidayCalendar supplies the two holiday date sets the feature encoder
// needs. Implementations may call external providers; the core only ever
// performs membership tests, so tests can substitute fixed in-memory sets.
type HolidayCalendar interface {
	// SchoolHolidays returns every school-holiday date for the zone across
	// the given years.
	SchoolHolidays(ctx context.Context, zone Zone, years ...int) (DateSet, error)

	// PublicHolidays returns every public-holiday date across the given years.
	PublicHolidays(ctx context.Context, years ...int) (DateSet, error)
}
