// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking services and handlers to distinguish between different failure
// scenarios. ErrConflict is a business outcome (the dates are taken), not
// a storage fault, and must never be retried blindly.
package repository

import "errors"

// ErrNotFound is returned when a room, reservation or user does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned by CreateIfNoConflict when a confirmed
// reservation for the same room already overlaps the requested
// dates. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrStaleState is returned by Cancel when the reservation disappeared
// between the status update and the read-back of the row.
var ErrStaleState = errors.New("stale reservation state")
