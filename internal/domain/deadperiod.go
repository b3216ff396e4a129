package domain

import "time"

// DeadPeriod identifies a counter-day whose every reading summed to zero,
// presumed a sensor outage rather than true zero traffic.
type DeadPeriod struct {
	CounterName string
	Day         time.Time
}

// deadKey groups observations by (counter, calendar day of the `date`
// column) for the daily sums.
type deadKey struct {
	counter string
	day     time.Time
}

// RemoveDeadPeriods drops every row belonging to a counter-day whose summed
// log_bike_count is exactly zero, and reports which counter-days were
// removed. A day with at least one non-zero reading is kept in full,
// including its individual zero rows.
//
// The decision for any row depends on sibling rows of the same counter-day,
// so this is a two-pass dataset operation: aggregate daily sums first, then
// filter. It must see all rows for a counter before filtering that counter.
func RemoveDeadPeriods(rows []Observation) ([]Observation, []DeadPeriod) {
	sums := make(map[deadKey]float64)
	order := make([]deadKey, 0)
	for _, obs := range rows {
		k := deadKey{counter: obs.CounterName, day: dayOf(obs.Date)}
		if _, seen := sums[k]; !seen {
			order = append(order, k)
		}
		sums[k] += obs.LogBikeCount
	}

	dead := make(map[deadKey]bool)
	periods := make([]DeadPeriod, 0)
	for _, k := range order {
		if sums[k] == 0 {
			dead[k] = true
			periods = append(periods, DeadPeriod{CounterName: k.counter, Day: k.day})
		}
	}

	kept := make([]Observation, 0, len(rows))
	for _, obs := range rows {
		if dead[deadKey{counter: obs.CounterName, day: dayOf(obs.Date)}] {
			continue
		}
		kept = append(kept, obs)
	}
	return kept, periods
}
