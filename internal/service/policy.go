package service

import (
	"time"

	"github.com/iliyamo/hotel-room-reservation/internal/model"
)

// DefaultCancellationWindow is how long before check-in a reservation may
// still be cancelled.
const DefaultCancellationWindow = 48 * time.Hour

// DenialReason explains why a reservation cannot be cancelled.
type DenialReason string

const (
	ReasonNone             DenialReason = ""
	ReasonAlreadyCancelled DenialReason = "already_cancelled"
	ReasonTooClose         DenialReason = "too_close_to_check_in"
)

// CancellationPolicy decides whether a reservation may be cancelled at a
// given instant.  It is a pure function of the reservation and now.
type CancellationPolicy struct {
	Window time.Duration
}

// NewCancellationPolicy returns a policy with the given window, falling
// back to DefaultCancellationWindow for non-positive values.
func NewCancellationPolicy(window time.Duration) CancellationPolicy {
	if window <= 0 {
		window = DefaultCancellationWindow
	}
	return CancellationPolicy{Window: window}
}

// Evaluate reports whether res may be cancelled at now and, if not, why.
// A cancelled reservation is never cancellable again.  A confirmed one is
// cancellable while check-in is at least Window away; once the cutoff has
// passed it stays non-cancellable as now moves forward.
func (p CancellationPolicy) Evaluate(res *model.Reservation, now time.Time) (bool, DenialReason) {
	if res.Status != model.StatusConfirmed {
		return false, ReasonAlreadyCancelled
	}
	if res.CheckIn.Sub(now) < p.Window {
		return false, ReasonTooClose
	}
	return true, ReasonNone
}

// CanCancel applies the default 48 hour policy.
func CanCancel(res *model.Reservation, now time.Time) bool {
	ok, _ := NewCancellationPolicy(DefaultCancellationWindow).Evaluate(res, now)
	return ok
}
