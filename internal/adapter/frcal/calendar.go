// Package frcal provides the French holiday calendar behind the domain's
// HolidayCalendar interface: computed public holidays (jours fériés) and the
// official school term-break dates for the years the bike-count dataset
// covers.
package frcal

import (
	"context"
	"fmt"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/fr"

	"github.com/velodata/bike-count-etl/internal/domain"
)

// Calendar implements domain.HolidayCalendar for France.
type Calendar struct {
	calendar *cal.BusinessCalendar
}

// NewCalendar builds a Calendar observing the eleven French public holidays.
func NewCalendar() *Calendar {
	calendar := cal.NewBusinessCalendar()
	calendar.AddHoliday(fr.Holidays...)
	return &Calendar{calendar: calendar}
}

// PublicHolidays returns every public-holiday date across the given years.
func (c *Calendar) PublicHolidays(_ context.Context, years ...int) (domain.DateSet, error) {
	set := domain.NewDateSet()
	for _, year := range years {
		for _, h := range c.calendar.Holidays {
			actual, _ := h.Calc(year)
			if actual.IsZero() {
				continue
			}
			set.Add(actual)
		}
	}
	return set, nil
}

// SchoolHolidays returns every school-holiday date for the zone across the
// given years. Only zone C (Paris, Versailles, Créteil...) is tabulated, for
// the dataset years 2020-2021; anything else is outside this provider's data.
func (c *Calendar) SchoolHolidays(_ context.Context, zone domain.Zone, years ...int) (domain.DateSet, error) {
	byYear, ok := schoolTerms[zone]
	if !ok {
		return nil, fmt.Errorf("school holidays: no data for zone %q", zone)
	}

	set := domain.NewDateSet()
	for _, year := range years {
		ranges, ok := byYear[year]
		if !ok {
			return nil, fmt.Errorf("school holidays: no data for zone %q year %d", zone, year)
		}
		for _, r := range ranges {
			for d := r.first; !d.After(r.last); d = d.AddDate(0, 0, 1) {
				set.Add(d)
			}
		}
	}
	return set, nil
}

// termRange is an inclusive run of school-holiday dates.
type termRange struct {
	first time.Time
	last  time.Time
}

func span(y1 int, m1 time.Month, d1, y2 int, m2 time.Month, d2 int) termRange {
	return termRange{
		first: time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC),
		last:  time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC),
	}
}

// schoolTerms holds the official French school-holiday calendar, zone C,
// clipped to calendar years. Ranges that straddle New Year appear in both
// years' entries.
var schoolTerms = map[domain.Zone]map[int][]termRange{
	domain.ZoneC: {
		2020: {
			span(2020, time.January, 1, 2020, time.January, 5),    // tail of Christmas 2019
			span(2020, time.February, 8, 2020, time.February, 23), // winter
			span(2020, time.April, 4, 2020, time.April, 19),       // spring
			span(2020, time.July, 4, 2020, time.August, 31),       // summer
			span(2020, time.October, 17, 2020, time.November, 1),  // Toussaint
			span(2020, time.December, 19, 2020, time.December, 31),
		},
		2021: {
			span(2021, time.January, 1, 2021, time.January, 3),     // tail of Christmas 2020
			span(2021, time.February, 13, 2021, time.February, 28), // winter
			span(2021, time.April, 10, 2021, time.April, 25),       // spring, unified COVID calendar
			span(2021, time.July, 6, 2021, time.August, 31),        // summer
			span(2021, time.October, 23, 2021, time.November, 7),   // Toussaint
			span(2021, time.December, 18, 2021, time.December, 31),
		},
	},
}
