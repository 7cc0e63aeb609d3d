package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDay(t *testing.T, key string) time.Time {
	t.Helper()
	d, err := ParseDay(key)
	require.NoError(t, err)
	return d
}

func TestCalendar_AvailableOn(t *testing.T) {
	monday := "2026-09-07"
	tuesday := "2026-09-08"

	tests := []struct {
		name string
		cal  Calendar
		day  string
		want bool
	}{
		{
			name: "empty calendar is unavailable",
			cal:  Calendar{},
			day:  monday,
			want: false,
		},
		{
			name: "weekly pattern applies without explicit slot",
			cal:  Calendar{Weekly: WeeklyPattern{time.Monday: true}},
			day:  monday,
			want: true,
		},
		{
			name: "weekday absent from pattern is unavailable",
			cal:  Calendar{Weekly: WeeklyPattern{time.Monday: true}},
			day:  tuesday,
			want: false,
		},
		{
			name: "explicit slot overrides weekly pattern",
			cal: Calendar{
				Weekly: WeeklyPattern{time.Monday: true},
				Slots:  map[string]bool{monday: false},
			},
			day:  monday,
			want: false,
		},
		{
			name: "explicit slot enables an off-pattern day",
			cal:  Calendar{Slots: map[string]bool{tuesday: true}},
			day:  tuesday,
			want: true,
		},
		{
			name: "contract occupation beats an explicit available slot",
			cal: Calendar{
				Slots:    map[string]bool{monday: true},
				Occupied: map[string]bool{monday: true},
			},
			day:  monday,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cal.AvailableOn(mustDay(t, tt.day))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalendar_OccupyRange(t *testing.T) {
	var cal Calendar
	cal.Weekly = WeeklyPattern{}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		cal.Weekly[wd] = true
	}

	cal.OccupyRange(mustDay(t, "2026-09-07"), mustDay(t, "2026-09-09"))

	assert.False(t, cal.AvailableOn(mustDay(t, "2026-09-07")))
	assert.False(t, cal.AvailableOn(mustDay(t, "2026-09-08")))
	assert.False(t, cal.AvailableOn(mustDay(t, "2026-09-09")))
	assert.True(t, cal.AvailableOn(mustDay(t, "2026-09-10")))
}

func TestExpandDates(t *testing.T) {
	desired := []time.Time{mustDay(t, "2026-09-07")}

	t.Run("no flexibility keeps the desired dates", func(t *testing.T) {
		window := ExpandDates(desired, false, 3)
		require.Len(t, window, 1)
		assert.Equal(t, "2026-09-07", DayKey(window[0]))
	})

	t.Run("flexibility widens symmetrically", func(t *testing.T) {
		window := ExpandDates(desired, true, 2)
		keys := make([]string, 0, len(window))
		for _, d := range window {
			keys = append(keys, DayKey(d))
		}
		assert.Equal(t, []string{
			"2026-09-05", "2026-09-06", "2026-09-07", "2026-09-08", "2026-09-09",
		}, keys)
	})

	t.Run("overlapping windows deduplicate", func(t *testing.T) {
		multi := []time.Time{mustDay(t, "2026-09-07"), mustDay(t, "2026-09-08")}
		window := ExpandDates(multi, true, 1)
		// 09-06..09-09, overlap collapsed
		require.Len(t, window, 4)
		assert.Equal(t, "2026-09-06", DayKey(window[0]))
		assert.Equal(t, "2026-09-09", DayKey(window[3]))
	})

	t.Run("negative flex days are ignored", func(t *testing.T) {
		window := ExpandDates(desired, true, -5)
		require.Len(t, window, 1)
	})
}
