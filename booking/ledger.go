/*
ledger.go - The Reservation Ledger: sole mutator of reservations and calendar

PURPOSE:
  Owns the set of reservations and enforces the no-double-booking invariant
  over the Calendar Index. Every mutation follows the same shape:

    1. validate input
    2. acquire the room's lock (bounded wait, BusyError on timeout)
    3. check the calendar, resolve the rate
    4. write reservation + calendar days in ONE store transaction

  Steps 3-4 are serialized per room by the lock, so two concurrent creates
  for overlapping ranges cannot both succeed; the loser observes a
  ConflictError, never a torn calendar.

STATE MACHINE:
  pending -> confirmed -> checked-in -> checked-out
  cancelled is reachable from pending, confirmed, and checked-in.
  cancelled and checked-out are terminal.

AUDIT:
  Reservations are never deleted. Cancellation is a transition that releases
  the calendar range and computes the refund from the plan's cancellation
  policy.

SEE ALSO:
  - calendar.go: markBooked / releaseBooked used inside transactions
  - rates.go: Resolve, RefundPercent
  - locks.go: Per-room bounded-wait locks
*/
package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultLockWait bounds how long a mutation waits for a room's lock before
// failing fast with BusyError.
const DefaultLockWait = 2 * time.Second

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is the single writer of Reservation and CalendarDay records.
type Ledger struct {
	store    TxStore
	calendar *CalendarIndex
	resolver *Resolver
	locks    *roomLocks
	lockWait time.Duration
	now      func() time.Time
}

// LedgerOption customizes a Ledger.
type LedgerOption func(*Ledger)

// WithClock injects a deterministic clock, for tests.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// WithLockWait overrides the bounded lock wait.
func WithLockWait(d time.Duration) LedgerOption {
	return func(l *Ledger) { l.lockWait = d }
}

func NewLedger(store TxStore, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:    store,
		calendar: NewCalendarIndex(store),
		resolver: NewResolver(store),
		locks:    newRoomLocks(),
		lockWait: DefaultLockWait,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Calendar exposes the read side of the index (availability queries).
func (l *Ledger) Calendar() *CalendarIndex { return l.calendar }

// Resolver exposes the rate resolver for price quotes without booking.
func (l *Ledger) Resolver() *Resolver { return l.resolver }

// Quote prices a prospective stay without reserving anything. Availability
// is not checked; a quoted stay can still fail at booking time.
func (l *Ledger) Quote(ctx context.Context, roomID RoomID, checkIn, checkOut Date, occupancy int) (*PriceBreakdown, error) {
	stay, err := NewStayRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	room, err := l.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, &NotFoundError{Kind: "room", ID: string(roomID)}
	}
	return l.resolver.Resolve(ctx, room, stay, occupancy, DateOf(l.now()), l.pricingConfig(ctx, room.PropertyID))
}

// =============================================================================
// CREATE
// =============================================================================

// CreateRequest carries the pre-validated, typed input for a new booking.
// Field presence/type validation happens at the HTTP boundary; the Ledger
// re-checks only the business rules.
type CreateRequest struct {
	PropertyID PropertyID
	RoomID     RoomID
	CheckIn    Date
	CheckOut   Date
	Guest      Guest
	Adults     int
	Children   int
}

func (req CreateRequest) validate() error {
	if strings.TrimSpace(req.Guest.Name) == "" {
		return &ValidationError{Field: "guest.name", Message: "must not be empty"}
	}
	if strings.TrimSpace(req.Guest.Email) == "" {
		return &ValidationError{Field: "guest.email", Message: "must not be empty"}
	}
	if req.Adults < 1 {
		return &ValidationError{Field: "adults", Message: "must be at least 1"}
	}
	if req.Children < 0 {
		return &ValidationError{Field: "children", Message: "must not be negative"}
	}
	return nil
}

// CreateReservation books a room for the requested stay. On success the
// reservation is confirmed with payment pending and every night of the stay
// is BOOKED. On any failure there are no partial effects.
func (l *Ledger) CreateReservation(ctx context.Context, req CreateRequest) (*Reservation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	stay, err := NewStayRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	release, err := l.locks.acquire(ctx, req.RoomID, l.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	room, err := l.store.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, &NotFoundError{Kind: "room", ID: string(req.RoomID)}
	}
	if room.PropertyID != req.PropertyID {
		return nil, &ValidationError{Field: "room_id", Message: "room does not belong to property"}
	}

	if conflict, err := firstConflict(ctx, l.store, req.RoomID, stay, ""); err != nil {
		return nil, err
	} else if conflict != nil {
		return nil, conflictError(req.RoomID, conflict)
	}

	bookedAt := DateOf(l.now())
	breakdown, err := l.resolver.Resolve(ctx, room, stay, req.Adults+req.Children, bookedAt, l.pricingConfig(ctx, req.PropertyID))
	if err != nil {
		return nil, err
	}

	res := Reservation{
		ID:            ReservationID(uuid.NewString()),
		PropertyID:    req.PropertyID,
		RoomID:        req.RoomID,
		RatePlanID:    breakdown.PlanID,
		Guest:         req.Guest,
		Stay:          stay,
		Adults:        req.Adults,
		Children:      req.Children,
		TotalAmount:   breakdown.Total,
		Currency:      breakdown.Currency,
		Status:        StatusConfirmed,
		PaymentStatus: PaymentPending,
		BookedAt:      bookedAt,
	}

	err = l.store.WithTx(ctx, func(s Store) error {
		if err := s.InsertReservation(ctx, res); err != nil {
			return err
		}
		return markBooked(ctx, s, req.RoomID, stay, res.ID, breakdown.NightlyRates())
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// =============================================================================
// UPDATE
// =============================================================================

// UpdatePatch carries the mutable fields of a reservation. Nil pointers
// leave the field unchanged.
type UpdatePatch struct {
	CheckIn  *Date
	CheckOut *Date
	Guest    *Guest
	Adults   *int
	Children *int
}

// UpdateReservation applies a patch. When dates change, the new interval is
// validated excluding the reservation's own nights, the old range released
// and the new one marked, all in one transaction - on any failure the
// reservation keeps its original dates.
func (l *Ledger) UpdateReservation(ctx context.Context, id ReservationID, patch UpdatePatch) (*Reservation, error) {
	// Room is not known until the reservation is loaded, so take the lock
	// after a preliminary read and re-read inside it.
	existing, err := l.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	release, err := l.locks.acquire(ctx, existing.RoomID, l.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := l.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status.Terminal() {
		return nil, &InvalidStateError{ReservationID: id, From: res.Status, To: res.Status}
	}

	updated := *res
	if patch.Guest != nil {
		updated.Guest = *patch.Guest
	}
	if patch.Adults != nil {
		updated.Adults = *patch.Adults
	}
	if patch.Children != nil {
		updated.Children = *patch.Children
	}
	if updated.Adults < 1 {
		return nil, &ValidationError{Field: "adults", Message: "must be at least 1"}
	}
	if updated.Children < 0 {
		return nil, &ValidationError{Field: "children", Message: "must not be negative"}
	}

	newStay := res.Stay
	if patch.CheckIn != nil {
		newStay.CheckIn = *patch.CheckIn
	}
	if patch.CheckOut != nil {
		newStay.CheckOut = *patch.CheckOut
	}
	datesChanged := !newStay.CheckIn.Equal(res.Stay.CheckIn) || !newStay.CheckOut.Equal(res.Stay.CheckOut)

	if !datesChanged {
		// Same-dates re-save: the calendar is untouched, so this can never
		// conflict with the reservation's own nights.
		err = l.store.WithTx(ctx, func(s Store) error {
			return s.UpdateReservation(ctx, updated)
		})
		if err != nil {
			return nil, err
		}
		return &updated, nil
	}

	stay, err := NewStayRange(newStay.CheckIn, newStay.CheckOut)
	if err != nil {
		return nil, err
	}

	// Free-check excludes the reservation's own current nights.
	if conflict, err := firstConflict(ctx, l.store, res.RoomID, stay, res.ID); err != nil {
		return nil, err
	} else if conflict != nil {
		return nil, conflictError(res.RoomID, conflict)
	}

	room, err := l.store.GetRoom(ctx, res.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, &NotFoundError{Kind: "room", ID: string(res.RoomID)}
	}
	breakdown, err := l.resolver.Resolve(ctx, room, stay, updated.Occupancy(), res.BookedAt, l.pricingConfig(ctx, res.PropertyID))
	if err != nil {
		return nil, err
	}

	updated.Stay = stay
	updated.RatePlanID = breakdown.PlanID
	updated.TotalAmount = breakdown.Total
	updated.Currency = breakdown.Currency

	err = l.store.WithTx(ctx, func(s Store) error {
		if err := releaseBooked(ctx, s, res.RoomID, res.Stay, res.ID); err != nil {
			return err
		}
		if err := markBooked(ctx, s, res.RoomID, stay, res.ID, breakdown.NightlyRates()); err != nil {
			return err
		}
		return s.UpdateReservation(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

var transitions = map[ReservationStatus][]ReservationStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut, StatusCancelled},
}

func canTransition(from, to ReservationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Confirm moves a pending reservation to confirmed.
func (l *Ledger) Confirm(ctx context.Context, id ReservationID) (*Reservation, error) {
	return l.transition(ctx, id, StatusConfirmed)
}

// CheckIn moves a confirmed reservation to checked-in.
func (l *Ledger) CheckIn(ctx context.Context, id ReservationID) (*Reservation, error) {
	return l.transition(ctx, id, StatusCheckedIn)
}

// CheckOut moves a checked-in reservation to checked-out. The stay's nights
// stay BOOKED: they were consumed, not released.
func (l *Ledger) CheckOut(ctx context.Context, id ReservationID) (*Reservation, error) {
	return l.transition(ctx, id, StatusCheckedOut)
}

func (l *Ledger) transition(ctx context.Context, id ReservationID, to ReservationStatus) (*Reservation, error) {
	res, err := l.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	release, err := l.locks.acquire(ctx, res.RoomID, l.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err = l.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(res.Status, to) {
		return nil, &InvalidStateError{ReservationID: id, From: res.Status, To: to}
	}

	updated := *res
	updated.Status = to
	err = l.store.WithTx(ctx, func(s Store) error {
		return s.UpdateReservation(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// =============================================================================
// CANCEL
// =============================================================================

// CancelReservation transitions the reservation to cancelled, releases its
// calendar range, and settles the payment per the plan's cancellation policy:
// any refund moves paymentStatus to refunded, no refund leaves it as-is.
func (l *Ledger) CancelReservation(ctx context.Context, id ReservationID) (*Reservation, error) {
	res, err := l.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	release, err := l.locks.acquire(ctx, res.RoomID, l.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err = l.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(res.Status, StatusCancelled) {
		return nil, &InvalidStateError{ReservationID: id, From: res.Status, To: StatusCancelled}
	}

	refund := RefundPercent(l.cancellationPolicy(ctx, res), res.Stay.CheckIn, l.now())

	updated := *res
	updated.Status = StatusCancelled
	updated.CancelledAt = DateOf(l.now())
	if refund > 0 {
		updated.PaymentStatus = PaymentRefunded
	}

	err = l.store.WithTx(ctx, func(s Store) error {
		if err := releaseBooked(ctx, s, res.RoomID, res.Stay, res.ID); err != nil {
			return err
		}
		return s.UpdateReservation(ctx, updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// cancellationPolicy looks up the booked plan's policy, defaulting to
// flexible when the stay was priced from the room's base rate.
func (l *Ledger) cancellationPolicy(ctx context.Context, res *Reservation) CancellationPolicy {
	if res.RatePlanID == "" {
		return CancelFlexible
	}
	plan, err := l.store.GetRatePlan(ctx, res.RatePlanID)
	if err != nil || plan == nil {
		return CancelFlexible
	}
	return plan.Cancellation
}

// =============================================================================
// READS
// =============================================================================

// GetReservation returns a reservation by id.
func (l *Ledger) GetReservation(ctx context.Context, id ReservationID) (*Reservation, error) {
	return l.getReservation(ctx, id)
}

// ListReservations returns the property's reservations passing the filter,
// ordered by check-in. The query is finite and restartable: calling it again
// re-runs it against current state.
func (l *Ledger) ListReservations(ctx context.Context, propertyID PropertyID, filter ReservationFilter) ([]Reservation, error) {
	prop, err := l.store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, &NotFoundError{Kind: "property", ID: string(propertyID)}
	}
	return l.store.ListReservations(ctx, propertyID, filter)
}

func (l *Ledger) getReservation(ctx context.Context, id ReservationID) (*Reservation, error) {
	res, err := l.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &NotFoundError{Kind: "reservation", ID: string(id)}
	}
	return res, nil
}

func (l *Ledger) pricingConfig(ctx context.Context, propertyID PropertyID) PricingConfig {
	prop, err := l.store.GetProperty(ctx, propertyID)
	if err != nil || prop == nil || prop.Pricing.isZero() {
		return DefaultPricingConfig()
	}
	return prop.Pricing
}
