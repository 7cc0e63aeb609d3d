package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// dayLayout is the canonical key format for calendar days.
const dayLayout = "2006-01-02"

// DayKey normalizes a timestamp to its calendar-day key.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// ParseDay parses a calendar-day key back into a UTC midnight timestamp.
func ParseDay(key string) (time.Time, error) {
	return time.Parse(dayLayout, key)
}

// WeeklyPattern is the recurring availability of an artisan, one flag per weekday.
// A weekday absent from the map counts as unavailable.
type WeeklyPattern map[time.Weekday]bool

// AvailabilitySlot is one explicit date-indexed calendar entry.
// An explicit slot overrides the weekly pattern for its day.
type AvailabilitySlot struct {
	ID        uuid.UUID
	ArtisanID uuid.UUID
	Day       time.Time
	Available bool
}

// Calendar is the merged availability view of one artisan: explicit slots,
// the recurring weekly pattern, and the days occupied by signed contracts.
type Calendar struct {
	// Slots maps a day key to its explicit available/unavailable flag.
	Slots map[string]bool
	// Weekly applies on days with no explicit slot.
	Weekly WeeklyPattern
	// Occupied holds contract-occupied day keys. Contracts are non-negotiable
	// commitments: an occupied day is unavailable even when a slot marks it
	// available.
	Occupied map[string]bool
}

// AvailableOn reports whether the artisan can take work on the given day.
func (c Calendar) AvailableOn(day time.Time) bool {
	key := DayKey(day)

	if c.Occupied[key] {
		return false
	}
	if available, ok := c.Slots[key]; ok {
		return available
	}
	return c.Weekly[day.Weekday()]
}

// OccupyRange marks every day in [start, end] as contract-occupied.
func (c *Calendar) OccupyRange(start, end time.Time) {
	if c.Occupied == nil {
		c.Occupied = make(map[string]bool)
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		c.Occupied[DayKey(d)] = true
	}
}

// ExpandDates builds the acceptance window for a set of desired dates.
// With flexibility, each desired date widens symmetrically by flexDays; the
// result is the sorted union of all windows, keyed by day.
func ExpandDates(desired []time.Time, flexible bool, flexDays int) []time.Time {
	if !flexible || flexDays < 0 {
		flexDays = 0
	}

	seen := make(map[string]time.Time)
	for _, d := range desired {
		for off := -flexDays; off <= flexDays; off++ {
			day := d.AddDate(0, 0, off)
			seen[DayKey(day)] = day
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	window := make([]time.Time, 0, len(keys))
	for _, k := range keys {
		window = append(window, seen[k])
	}
	return window
}
