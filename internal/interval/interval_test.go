package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestNightsBetween(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     int
	}{
		{"two nights", date(t, "2024-06-10"), date(t, "2024-06-12"), 2},
		{"one night", date(t, "2024-06-10"), date(t, "2024-06-11"), 1},
		{"time of day ignored", time.Date(2024, 6, 10, 22, 0, 0, 0, time.UTC), time.Date(2024, 6, 12, 6, 30, 0, 0, time.UTC), 2},
		{"month boundary", date(t, "2024-01-30"), date(t, "2024-02-02"), 3},
		{"same day clamps to one", date(t, "2024-06-10"), date(t, "2024-06-10"), 1},
		{"negative span clamps to one", date(t, "2024-06-12"), date(t, "2024-06-10"), 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NightsBetween(tc.checkIn, tc.checkOut))
		})
	}
}

func TestOverlaps(t *testing.T) {
	a1, a2 := date(t, "2024-06-10"), date(t, "2024-06-12")

	assert.True(t, Overlaps(a1, a2, a1, a2), "identical ranges")
	assert.True(t, Overlaps(a1, a2, date(t, "2024-06-11"), date(t, "2024-06-15")), "partial overlap")
	assert.True(t, Overlaps(a1, a2, date(t, "2024-06-01"), date(t, "2024-06-30")), "containment")
	assert.False(t, Overlaps(a1, a2, a2, date(t, "2024-06-14")), "checkout day is free for next checkin")
	assert.False(t, Overlaps(a1, a2, date(t, "2024-06-08"), a1), "previous stay ends on checkin day")
	assert.False(t, Overlaps(a1, a2, date(t, "2024-07-01"), date(t, "2024-07-03")), "disjoint")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("10/06/2024")
	assert.Error(t, err)
}
