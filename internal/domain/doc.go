// Package domain models hourly bicycle-counter observations and the
// feature-engineering passes that prepare them for a downstream
// traffic-forecasting model.
//
// # Data Source
//
// Observations come from the permanent eco-counters operated by the City of
// Paris, joined upstream with the nearest Météo-France synoptic station
// readings. The collector service exports one JSON row per counter per hour
// and publishes it to the Kafka source topic.
//
// # Column Contract
//
// The collector emits a fixed set of fields; callers with different schemas
// must adapt before this service:
//
//	date          row timestamp used by the dead-period cleaner
//	date_x        timestamp used for all calendar/temporal features
//	counter_name  stable counter identifier, e.g. "27 quai de la Tournelle SE"
//	log_bike_count  log1p-transformed hourly count
//	t             air temperature in Kelvin (synoptic convention)
//	rr1           rainfall over the past hour, millimetres
//	ff            mean wind speed, metres per second
//
// Timestamps are naive local time (Europe/Paris wall clock); no timezone
// conversion is performed anywhere in this package.
//
// # Feature Conventions
//
// Weekday is encoded Monday=0 through Sunday=6, matching the convention the
// forecasting model was trained with (not Go's Sunday=0).
//
// Hour and month are replaced by (sine, cosine) pairs with periods 24 and 12
// so the model sees 23:00 and 00:00 as neighbours. The scalar hour and month
// columns, and both raw timestamps, are dropped from the output: FeatureRow
// deliberately has no field for them, so the transformation is one-way.
//
// # Calendar Context
//
// School holidays follow the French national calendar; Paris is in zone C.
// Public holidays are the eleven French jours fériés. Both are consumed as
// day-granularity date sets through the HolidayCalendar interface.
//
// Curfews are the five COVID-19 nightly restriction periods in force between
// October 2020 and June 2021 (21h, 18h, 19h, 21h and 23h starts, all ending
// at 06h). The table is static historical policy; see DefaultCurfewWindows.
//
// # Dead Periods
//
// A counter that reports zero for every hour of a calendar day is presumed
// broken rather than unused (the network never sees a true zero-traffic day).
// RemoveDeadPeriods drops all rows of such counter-days before feature
// encoding so outages do not teach the model phantom quiet days.
package domain
