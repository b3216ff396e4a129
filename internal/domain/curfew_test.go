package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultClassifier(t *testing.T) *CurfewClassifier {
	t.Helper()
	c, err := NewCurfewClassifier(DefaultCurfewWindows)
	require.NoError(t, err)
	return c
}

func TestIsCurfew(t *testing.T) {
	c := defaultClassifier(t)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"evening inside first window", time.Date(2020, 10, 20, 22, 0, 0, 0, time.UTC), true},
		{"daytime inside first window", time.Date(2020, 10, 20, 10, 0, 0, 0, time.UTC), false},
		{"early morning wrap", time.Date(2020, 10, 20, 5, 0, 0, 0, time.UTC), true},
		{"end hour is exclusive", time.Date(2020, 10, 20, 6, 0, 0, 0, time.UTC), false},
		{"start hour is inclusive", time.Date(2020, 10, 20, 21, 0, 0, 0, time.UTC), true},
		{"before any window", time.Date(2020, 10, 16, 22, 0, 0, 0, time.UTC), false},
		{"after last window", time.Date(2021, 6, 21, 23, 30, 0, 0, time.UTC), false},
		{"between windows", time.Date(2020, 11, 15, 23, 0, 0, 0, time.UTC), false},
		{"window start date inclusive", time.Date(2020, 10, 17, 22, 0, 0, 0, time.UTC), true},
		{"window end date inclusive", time.Date(2020, 10, 29, 22, 0, 0, 0, time.UTC), true},
		{"18h window matches earlier evening", time.Date(2021, 2, 1, 18, 30, 0, 0, time.UTC), true},
		{"19h window excludes 18h", time.Date(2021, 4, 1, 18, 30, 0, 0, time.UTC), false},
		{"23h window only late night", time.Date(2021, 6, 15, 22, 0, 0, 0, time.UTC), false},
		{"23h window matches", time.Date(2021, 6, 15, 23, 15, 0, 0, time.UTC), true},
		{"minutes ignored for hour test", time.Date(2020, 10, 20, 20, 59, 59, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsCurfew(tt.at))
		})
	}
}

func TestIsCurfew_EveryHourOutsideWindowsIsFalse(t *testing.T) {
	c := defaultClassifier(t)

	// A day with no curfew in force: no hour may match.
	day := time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC)
	for h := 0; h < 24; h++ {
		assert.False(t, c.IsCurfew(day.Add(time.Duration(h)*time.Hour)), "hour %d", h)
	}
}

func TestNewCurfewClassifier_RejectsSameDayWindow(t *testing.T) {
	// A window with start_hour < end_hour would match every hour outside the
	// intended range under the wrap-around test; the constructor must refuse it.
	_, err := NewCurfewClassifier([]CurfewWindow{
		{Start: date(2022, 1, 1), End: date(2022, 1, 31), StartHour: 8, EndHour: 18},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "span midnight")
}

func TestNewCurfewClassifier_RejectsReversedDates(t *testing.T) {
	_, err := NewCurfewClassifier([]CurfewWindow{
		{Start: date(2022, 2, 1), End: date(2022, 1, 1), StartHour: 21, EndHour: 6},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end date before start date")
}

func TestIsCurfew_NoWindows(t *testing.T) {
	c, err := NewCurfewClassifier(nil)
	require.NoError(t, err)
	assert.False(t, c.IsCurfew(time.Date(2021, 2, 1, 23, 0, 0, 0, time.UTC)))
}
