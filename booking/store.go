/*
store.go - Persistence interface for inventory and reservations

PURPOSE:
  Defines the interface between the booking engine and the database.
  Different implementations can use SQLite, PostgreSQL, or in-memory storage.

KEY INTERFACES:
  Store:   Calendar days, reservations, and referenced catalog records
  TxStore: Transactional wrapper for atomic multi-record writes

OWNERSHIP:
  The Ledger is the only component that writes calendar days and
  reservations. Properties, rooms, and rate plans are owned by property
  management; the engine reads them and the HTTP layer persists them
  through the same Store for convenience.

ATOMICITY:
  WithTx() ensures all-or-nothing semantics. Inserting a reservation and
  marking its room-nights BOOKED is one logical transaction - either both
  happen or neither does. This is what keeps the calendar invariant intact
  when a request dies halfway.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - booking/store: In-memory for testing/dev

SEE ALSO:
  - ledger.go: The component holding a TxStore
  - calendar.go: Calendar reads/writes through Store
*/
package booking

import "context"

// =============================================================================
// RESERVATION QUERY FILTER
// =============================================================================

// ReservationFilter narrows ListReservations. Zero values mean "no filter".
type ReservationFilter struct {
	Statuses []ReservationStatus
	RoomID   RoomID
	Overlaps *DateRange // stays sharing at least one night with the range
}

func (f ReservationFilter) matchStatus(s ReservationStatus) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, want := range f.Statuses {
		if s == want {
			return true
		}
	}
	return false
}

// Match reports whether a reservation passes the filter.
func (f ReservationFilter) Match(r Reservation) bool {
	if !f.matchStatus(r.Status) {
		return false
	}
	if f.RoomID != "" && r.RoomID != f.RoomID {
		return false
	}
	if f.Overlaps != nil {
		window := StayRange{CheckIn: f.Overlaps.From, CheckOut: f.Overlaps.To.AddDays(1)}
		if !r.Stay.Overlaps(window) {
			return false
		}
	}
	return true
}

// =============================================================================
// STORE - Persistence interface
// =============================================================================

// Store handles persistence of calendar days, reservations, and the
// referenced catalog (properties, rooms, rate plans).
type Store interface {
	// --- Calendar days (written only by the Ledger / Calendar Index) ---

	// LoadCalendar returns the stored days for a room in [rng.From, rng.To],
	// ordered by date. Missing days are OPEN and are not returned.
	LoadCalendar(ctx context.Context, roomID RoomID, rng DateRange) ([]CalendarDay, error)

	// PutCalendarDays upserts day records, keyed by (roomID, date).
	PutCalendarDays(ctx context.Context, days []CalendarDay) error

	// DeleteCalendarDays removes day records, returning those days to OPEN.
	DeleteCalendarDays(ctx context.Context, roomID RoomID, dates []Date) error

	// --- Reservations (written only by the Ledger) ---

	InsertReservation(ctx context.Context, r Reservation) error
	UpdateReservation(ctx context.Context, r Reservation) error
	GetReservation(ctx context.Context, id ReservationID) (*Reservation, error)

	// ListReservations returns reservations for a property passing the
	// filter, ordered by check-in. Re-invoking re-runs the query.
	ListReservations(ctx context.Context, propertyID PropertyID, filter ReservationFilter) ([]Reservation, error)

	// --- Catalog (owned by property management; engine reads only) ---

	GetProperty(ctx context.Context, id PropertyID) (*Property, error)
	ListProperties(ctx context.Context) ([]Property, error)
	SaveProperty(ctx context.Context, p Property) error
	DeleteProperty(ctx context.Context, id PropertyID) error

	GetRoom(ctx context.Context, id RoomID) (*Room, error)
	ListRooms(ctx context.Context, propertyID PropertyID) ([]Room, error)
	SaveRoom(ctx context.Context, r Room) error
	// DeleteRoom removes the room and cascades to its calendar days.
	// Callers must first ensure no active reservations reference the room.
	DeleteRoom(ctx context.Context, id RoomID) error

	GetRatePlan(ctx context.Context, id RatePlanID) (*RatePlan, error)
	// ListRatePlans returns plans for the property, including room-scoped
	// ones; pass a roomID to restrict to that room plus property-wide plans.
	ListRatePlans(ctx context.Context, propertyID PropertyID, roomID RoomID) ([]RatePlan, error)
	SaveRatePlan(ctx context.Context, p RatePlan) error
	DeleteRatePlan(ctx context.Context, id RatePlanID) error
}

// TxStore wraps Store with transaction support.
// Use this when two writes must land together (insert + mark).
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// PROPERTY - Referenced record carrying per-property pricing knobs
// =============================================================================

// Property is the owning scope for rooms, rate plans, and reservations.
// It carries the pricing configuration the resolver consults (weekend days,
// discount thresholds), which is policy, not engine logic.
type Property struct {
	ID       PropertyID
	Name     string
	City     string
	Country  string
	Currency string
	Pricing  PricingConfig
}
