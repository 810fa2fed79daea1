// Package interval implements the calendar arithmetic used by bookings.
// Stays are half-open date ranges [checkIn, checkOut): the checkout day is
// free for the next guest to check in.
package interval

import (
	"math"
	"time"
)

// DateLayout is the wire format for check-in and check-out dates.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Midnight drops the time-of-day part of t, keeping its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// NightsBetween returns the number of nights charged for a stay. Both dates
// are normalised to midnight and the span is rounded up to whole days. The
// result is clamped to at least one night; callers must still reject
// checkOut <= checkIn before pricing.
func NightsBetween(checkIn, checkOut time.Time) int {
	diff := Midnight(checkOut).Sub(Midnight(checkIn))
	nights := int(math.Ceil(float64(diff) / float64(day)))
	return max(1, nights)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
