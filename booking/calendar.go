/*
calendar.go - The Calendar Index: per-room, per-date availability state

PURPOSE:
  Answers "is room R free for [a, b)?" and maintains the per-day status tag
  (OPEN / BOOKED / BLOCKED / MAINTENANCE). This is the leaf data structure
  the no-double-booking invariant lives on.

INVARIANT:
  A day is BOOKED iff exactly one active reservation covers it. The index
  enforces the "at most one" half: marking a day BOOKED that is already
  BOOKED by a different reservation fails with ConflictError. The Ledger
  enforces the "exactly one" half by pairing every reservation write with
  the matching mark/release in one store transaction.

IDEMPOTENCY:
  Re-marking a range with the owning reservation's id succeeds and leaves
  the calendar unchanged. This is what makes a same-dates re-save of a
  reservation a no-op rather than a conflict with itself. The same holds
  for BLOCKED and MAINTENANCE: re-posting an identical hold overwrites the
  existing days instead of conflicting with them.

SIDE EFFECTS:
  Confined to the store; no other I/O.

SEE ALSO:
  - ledger.go: The only caller of the mutating operations
  - store.go: LoadCalendar / PutCalendarDays / DeleteCalendarDays
*/
package booking

import "context"

// =============================================================================
// CALENDAR INDEX
// =============================================================================

// CalendarIndex reads and writes per-day room availability through a Store.
type CalendarIndex struct {
	store Store
}

func NewCalendarIndex(store Store) *CalendarIndex {
	return &CalendarIndex{store: store}
}

// IsRangeFree reports whether every night in [checkIn, checkOut) is OPEN.
// An empty or inverted interval fails with InvalidRangeError.
func (c *CalendarIndex) IsRangeFree(ctx context.Context, roomID RoomID, checkIn, checkOut Date) (bool, error) {
	stay, err := NewStayRange(checkIn, checkOut)
	if err != nil {
		return false, err
	}
	conflict, err := firstConflict(ctx, c.store, roomID, stay, "")
	if err != nil {
		return false, err
	}
	return conflict == nil, nil
}

// MarkRange tags every night in the stay with the given status. Marking
// BOOKED requires the owning reservation id; see markBooked.
// Used for BLOCKED and MAINTENANCE holds (housekeeping, renovations).
// Idempotent: nights already carrying the requested tag are overwritten,
// so re-posting the same hold is a no-op rather than a conflict.
func (c *CalendarIndex) MarkRange(ctx context.Context, roomID RoomID, stay StayRange, status DayStatus) error {
	if status == DayBooked {
		return &ValidationError{Field: "status", Message: "booked days must carry a reservation id"}
	}
	existing, err := c.store.LoadCalendar(ctx, roomID, DateRange{From: stay.CheckIn, To: stay.CheckOut.AddDays(-1)})
	if err != nil {
		return err
	}
	for i := range existing {
		if existing[i].Status != status {
			return conflictError(roomID, &existing[i])
		}
	}
	days := make([]CalendarDay, 0, stay.Nights())
	for _, d := range stay.Dates() {
		days = append(days, CalendarDay{RoomID: roomID, Date: d, Status: status})
	}
	return c.store.PutCalendarDays(ctx, days)
}

// ReleaseRange returns every night in the stay to OPEN.
// Only the Ledger calls this for BOOKED days (on cancellation); it is also
// how BLOCKED / MAINTENANCE holds are lifted.
func (c *CalendarIndex) ReleaseRange(ctx context.Context, roomID RoomID, stay StayRange) error {
	return c.store.DeleteCalendarDays(ctx, roomID, stay.Dates())
}

// Days returns the stored day records for a room over a closed range,
// for availability calendar reads. OPEN days with no record are omitted.
func (c *CalendarIndex) Days(ctx context.Context, roomID RoomID, rng DateRange) ([]CalendarDay, error) {
	return c.store.LoadCalendar(ctx, roomID, rng)
}

// =============================================================================
// INTERNAL OPERATIONS - Shared with the Ledger, usable inside WithTx
// =============================================================================

// firstConflict returns the first night in the stay that is not OPEN and not
// owned by the given reservation, or nil if the whole range is bookable.
func firstConflict(ctx context.Context, s Store, roomID RoomID, stay StayRange, owner ReservationID) (*CalendarDay, error) {
	days, err := s.LoadCalendar(ctx, roomID, DateRange{From: stay.CheckIn, To: stay.CheckOut.AddDays(-1)})
	if err != nil {
		return nil, err
	}
	for i := range days {
		day := days[i]
		if day.Status == DayBooked && owner != "" && day.ReservationID == owner {
			continue
		}
		return &day, nil
	}
	return nil, nil
}

// markBooked tags the stay's nights BOOKED for the owning reservation, with
// the resolved nightly rates. Idempotent for the owner; ConflictError if any
// night is held by someone else.
func markBooked(ctx context.Context, s Store, roomID RoomID, stay StayRange, owner ReservationID, nightly []Money) error {
	conflict, err := firstConflict(ctx, s, roomID, stay, owner)
	if err != nil {
		return err
	}
	if conflict != nil {
		return conflictError(roomID, conflict)
	}
	dates := stay.Dates()
	days := make([]CalendarDay, 0, len(dates))
	for i, d := range dates {
		day := CalendarDay{RoomID: roomID, Date: d, Status: DayBooked, ReservationID: owner}
		if i < len(nightly) {
			day.Rate = nightly[i]
		}
		days = append(days, day)
	}
	return s.PutCalendarDays(ctx, days)
}

// releaseBooked returns to OPEN only the nights held by the given
// reservation, leaving unrelated holds untouched.
func releaseBooked(ctx context.Context, s Store, roomID RoomID, stay StayRange, owner ReservationID) error {
	days, err := s.LoadCalendar(ctx, roomID, DateRange{From: stay.CheckIn, To: stay.CheckOut.AddDays(-1)})
	if err != nil {
		return err
	}
	var owned []Date
	for _, day := range days {
		if day.Status == DayBooked && day.ReservationID == owner {
			owned = append(owned, day.Date)
		}
	}
	if len(owned) == 0 {
		return nil
	}
	return s.DeleteCalendarDays(ctx, roomID, owned)
}

func conflictError(roomID RoomID, day *CalendarDay) *ConflictError {
	return &ConflictError{RoomID: roomID, Date: day.Date, OccupiedBy: day.ReservationID}
}
