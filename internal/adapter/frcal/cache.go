package frcal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/velodata/bike-count-etl/internal/domain"
)

// CachedCalendar wraps a HolidayCalendar and memoizes its results. The
// key space is tiny (zone × year), so a plain map with no eviction is enough;
// the point is to pay the per-year computation once per process even when
// several pipeline components ask for the same sets.
type CachedCalendar struct {
	inner domain.HolidayCalendar

	mu      sync.Mutex
	entries map[string]domain.DateSet
}

// NewCachedCalendar creates a memoizing decorator around a calendar.
func NewCachedCalendar(inner domain.HolidayCalendar) *CachedCalendar {
	return &CachedCalendar{
		inner:   inner,
		entries: make(map[string]domain.DateSet),
	}
}

func (c *CachedCalendar) SchoolHolidays(ctx context.Context, zone domain.Zone, years ...int) (domain.DateSet, error) {
	key := cacheKey("school:"+string(zone), years)
	if set, ok := c.get(key); ok {
		return set, nil
	}
	set, err := c.inner.SchoolHolidays(ctx, zone, years...)
	if err != nil {
		return nil, err
	}
	c.put(key, set)
	return set, nil
}

func (c *CachedCalendar) PublicHolidays(ctx context.Context, years ...int) (domain.DateSet, error) {
	key := cacheKey("public", years)
	if set, ok := c.get(key); ok {
		return set, nil
	}
	set, err := c.inner.PublicHolidays(ctx, years...)
	if err != nil {
		return nil, err
	}
	c.put(key, set)
	return set, nil
}

func (c *CachedCalendar) get(key string) (domain.DateSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.entries[key]
	return set, ok
}

func (c *CachedCalendar) put(key string, set domain.DateSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = set
}

func cacheKey(prefix string, years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = fmt.Sprintf("%d", y)
	}
	return prefix + ":" + strings.Join(parts, ",")
}
