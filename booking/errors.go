/*
errors.go - Centralized error types for the booking engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The HTTP layer maps these onto status codes; the core never logs-and-
  swallows - every failure is surfaced to the immediate caller.

ERROR CATEGORIES:
  1. Validation errors - malformed input (bad dates, empty required fields)
  2. Conflict errors   - double-booking, lost concurrent race
  3. State errors      - illegal reservation status transitions
  4. Availability      - no qualifying rate plan, lock-wait timeout

USAGE:
  Callers distinguish errors with errors.Is / errors.As:

    if errors.Is(err, booking.ErrConflict) {
        // prompt the user to pick different dates
    }

SEE ALSO:
  - ledger.go: Produces most of these
  - api/handlers.go: Maps them to HTTP status codes
*/
package booking

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input: empty guest fields,
	// non-positive occupancy, inverted date ranges.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidRange is returned when a stay range is empty or inverted.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrNotFound is returned when a referenced id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a booking would double-book a room-night,
	// or when a concurrent mutation lost the race.
	ErrConflict = errors.New("booking conflict")

	// ErrRateUnavailable is returned when no qualifying rate plan covers the
	// requested stay.
	ErrRateUnavailable = errors.New("no applicable rate")

	// ErrInvalidState is returned for illegal status transitions, e.g.
	// cancelling a checked-out reservation.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrBusy is returned when the per-room lock could not be acquired within
	// the bounded wait. Callers are expected to retry with backoff.
	ErrBusy = errors.New("room busy, try again")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field was malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidRangeError reports an empty or inverted stay range.
type InvalidRangeError struct {
	CheckIn  Date
	CheckOut Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: check-in %s must be before check-out %s",
		e.CheckIn, e.CheckOut)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// NotFoundError identifies the missing record.
type NotFoundError struct {
	Kind string // "room", "reservation", "property", "rate plan"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports the first room-night that is already taken.
type ConflictError struct {
	RoomID     RoomID
	Date       Date
	OccupiedBy ReservationID
}

func (e *ConflictError) Error() string {
	if e.OccupiedBy != "" {
		return fmt.Sprintf("room %s not available on %s (held by reservation %s)",
			e.RoomID, e.Date, e.OccupiedBy)
	}
	return fmt.Sprintf("room %s not available on %s", e.RoomID, e.Date)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// RateUnavailableError reports why no plan qualified.
type RateUnavailableError struct {
	RoomID RoomID
	Stay   StayRange
	Reason string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("no rate for room %s over %s: %s", e.RoomID, e.Stay, e.Reason)
}

func (e *RateUnavailableError) Unwrap() error { return ErrRateUnavailable }

// InvalidStateError reports an illegal status transition.
type InvalidStateError struct {
	ReservationID ReservationID
	From          ReservationStatus
	To            ReservationStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("reservation %s: cannot transition %s -> %s",
		e.ReservationID, e.From, e.To)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// BusyError reports a lock-wait timeout on a room.
type BusyError struct {
	RoomID RoomID
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("room %s is being modified by another request", e.RoomID)
}

func (e *BusyError) Unwrap() error { return ErrBusy }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBusy)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrRateUnavailable) ||
		errors.Is(err, ErrInvalidState)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
