package booking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborstay/reservation-engine/booking"
	"github.com/harborstay/reservation-engine/booking/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// fixedNow keeps pricing and refund decisions deterministic: far enough
// before the test stays in June 2026 that flexible cancellations refund.
var fixedNow = time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T) (*booking.Ledger, *store.TxMemory) {
	t.Helper()
	mem := store.NewTxMemory()
	ledger := booking.NewLedger(mem, booking.WithClock(func() time.Time { return fixedNow }))
	seedProperty(t, mem)
	return ledger, mem
}

func seedProperty(t *testing.T, mem *store.TxMemory) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, mem.SaveProperty(ctx, booking.Property{
		ID: "prop-1", Name: "Test Hotel", Currency: "USD",
	}))
	require.NoError(t, mem.SaveRoom(ctx, booking.Room{
		ID: "room-1", PropertyID: "prop-1", Name: "Room 1",
		Type: booking.RoomDouble, Capacity: 2,
		BaseRate: booking.FromUnits(100), Currency: "USD",
	}))
	require.NoError(t, mem.SaveRoom(ctx, booking.Room{
		ID: "room-2", PropertyID: "prop-1", Name: "Room 2",
		Type: booking.RoomDouble, Capacity: 2,
		BaseRate: booking.FromUnits(100), Currency: "USD",
	}))
}

func createRequest(roomID booking.RoomID, fromDay, toDay int) booking.CreateRequest {
	return booking.CreateRequest{
		PropertyID: "prop-1",
		RoomID:     roomID,
		CheckIn:    booking.NewDate(2026, time.June, fromDay),
		CheckOut:   booking.NewDate(2026, time.June, toDay),
		Guest:      booking.Guest{Name: "Test Guest", Email: "guest@example.com"},
		Adults:     2,
	}
}

func calendarDays(t *testing.T, s booking.Store, roomID booking.RoomID) []booking.CalendarDay {
	t.Helper()
	days, err := s.LoadCalendar(context.Background(), roomID, booking.DateRange{
		From: booking.NewDate(2026, time.June, 1),
		To:   booking.NewDate(2026, time.June, 30),
	})
	require.NoError(t, err)
	return days
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestCreateReservation_BooksEveryNight(t *testing.T) {
	// GIVEN: An empty room at $100/night
	// WHEN: Booking [June 10, June 13)
	// THEN: Reservation is confirmed at $300 and all 3 nights are BOOKED
	ledger, mem := newTestLedger(t)

	res, err := ledger.CreateReservation(context.Background(), createRequest("room-1", 10, 13))
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, booking.StatusConfirmed, res.Status)
	assert.Equal(t, booking.PaymentPending, res.PaymentStatus)
	assert.Equal(t, booking.FromUnits(300), res.TotalAmount)
	assert.Equal(t, "2026-05-01", res.BookedAt.String())

	days := calendarDays(t, mem, "room-1")
	require.Len(t, days, 3)
	for _, d := range days {
		assert.Equal(t, booking.DayBooked, d.Status)
		assert.Equal(t, res.ID, d.ReservationID)
		assert.Equal(t, booking.FromUnits(100), d.Rate)
	}
}

func TestCreateReservation_DoubleBookingRejected(t *testing.T) {
	// GIVEN: Room booked [June 10, June 13)
	// WHEN: A second guest tries [June 12, June 15)
	// THEN: ConflictError naming June 12, and nothing is written
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	first, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)

	_, err = ledger.CreateReservation(ctx, createRequest("room-1", 12, 15))
	require.ErrorIs(t, err, booking.ErrConflict)

	var conflict *booking.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "2026-06-12", conflict.Date.String())
	assert.Equal(t, first.ID, conflict.OccupiedBy)

	// Failed attempt left no partial nights behind.
	assert.Len(t, calendarDays(t, mem, "room-1"), 3)
}

func TestCreateReservation_BackToBackStaysAllowed(t *testing.T) {
	// Same-day turnover: one guest checks out June 13, the next checks in.
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)

	_, err = ledger.CreateReservation(ctx, createRequest("room-1", 13, 16))
	assert.NoError(t, err)
}

func TestCreateReservation_Validation(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	req := createRequest("room-1", 10, 13)
	req.Guest.Name = ""
	_, err := ledger.CreateReservation(ctx, req)
	assert.ErrorIs(t, err, booking.ErrValidation)

	req = createRequest("room-1", 10, 13)
	req.Adults = 0
	_, err = ledger.CreateReservation(ctx, req)
	assert.ErrorIs(t, err, booking.ErrValidation)

	req = createRequest("room-1", 13, 13)
	_, err = ledger.CreateReservation(ctx, req)
	assert.ErrorIs(t, err, booking.ErrInvalidRange)
}

func TestCreateReservation_UnknownRoom(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.CreateReservation(context.Background(), createRequest("no-such-room", 10, 13))
	assert.True(t, booking.IsNotFound(err))
}

func TestCreateReservation_RoomPropertyMismatch(t *testing.T) {
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, mem.SaveProperty(ctx, booking.Property{ID: "prop-2", Name: "Other", Currency: "USD"}))
	req := createRequest("room-1", 10, 13)
	req.PropertyID = "prop-2"

	_, err := ledger.CreateReservation(ctx, req)
	assert.ErrorIs(t, err, booking.ErrValidation)
}

// =============================================================================
// UPDATE TESTS
// =============================================================================

func TestUpdateReservation_SameDatesResaveIsIdempotent(t *testing.T) {
	// GIVEN: A reservation for [June 10, June 13)
	// WHEN: Re-saving with unchanged dates (guest name fix)
	// THEN: No conflict with its own nights; calendar untouched
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)

	guest := res.Guest
	guest.Name = "Corrected Name"
	updated, err := ledger.UpdateReservation(ctx, res.ID, booking.UpdatePatch{Guest: &guest})
	require.NoError(t, err)

	assert.Equal(t, "Corrected Name", updated.Guest.Name)
	assert.Equal(t, res.Stay, updated.Stay)
	assert.Equal(t, res.TotalAmount, updated.TotalAmount)
	assert.Len(t, calendarDays(t, mem, "room-1"), 3)
}

func TestUpdateReservation_RejectsNegativeChildren(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)

	children := -1
	_, err = ledger.UpdateReservation(ctx, res.ID, booking.UpdatePatch{Children: &children})
	assert.ErrorIs(t, err, booking.ErrValidation)

	kept, err := ledger.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, kept.Children, "a rejected patch leaves the stored count alone")
}

func TestUpdateReservation_DateChange_MovesCalendarAndReprices(t *testing.T) {
	// GIVEN: A 3-night reservation
	// WHEN: Extending to 5 nights
	// THEN: Old nights released, new nights booked, total repriced
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)

	newOut := booking.NewDate(2026, time.June, 15)
	updated, err := ledger.UpdateReservation(ctx, res.ID, booking.UpdatePatch{CheckOut: &newOut})
	require.NoError(t, err)

	assert.Equal(t, 5, updated.Stay.Nights())
	assert.Equal(t, booking.FromUnits(500), updated.TotalAmount)

	days := calendarDays(t, mem, "room-1")
	require.Len(t, days, 5)
	for _, d := range days {
		assert.Equal(t, res.ID, d.ReservationID)
	}
}

func TestUpdateReservation_DateChange_ConflictKeepsOriginal(t *testing.T) {
	// GIVEN: Reservation A [June 10, 13) and B [June 14, 16) on one room
	// WHEN: Extending A through June 15
	// THEN: ConflictError, and A keeps its original dates and nights
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	a, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)
	_, err = ledger.CreateReservation(ctx, createRequest("room-1", 14, 16))
	require.NoError(t, err)

	newOut := booking.NewDate(2026, time.June, 15)
	_, err = ledger.UpdateReservation(ctx, a.ID, booking.UpdatePatch{CheckOut: &newOut})
	require.ErrorIs(t, err, booking.ErrConflict)

	kept, err := ledger.GetReservation(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Stay, kept.Stay)
	assert.Len(t, calendarDays(t, mem, "room-1"), 5, "3 nights of A + 2 of B")
}

func TestUpdateReservation_TerminalStateRejected(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)
	_, err = ledger.CancelReservation(ctx, res.ID)
	require.NoError(t, err)

	guest := booking.Guest{Name: "Too Late", Email: "late@example.com"}
	_, err = ledger.UpdateReservation(ctx, res.ID, booking.UpdatePatch{Guest: &guest})
	assert.ErrorIs(t, err, booking.ErrInvalidState)
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestLifecycle_ConfirmedThroughCheckout(t *testing.T) {
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)
	require.Equal(t, booking.StatusConfirmed, res.Status)

	res, err = ledger.CheckIn(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCheckedIn, res.Status)

	res, err = ledger.CheckOut(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCheckedOut, res.Status)
	assert.True(t, res.Status.Terminal())

	// Consumed nights stay on the books.
	assert.Len(t, calendarDays(t, mem, "room-1"), 3)
}

func TestLifecycle_IllegalTransitionsRejected(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)

	// Confirmed cannot check out without checking in.
	_, err = ledger.CheckOut(ctx, res.ID)
	assert.ErrorIs(t, err, booking.ErrInvalidState)

	// Checked-out is terminal.
	_, err = ledger.CheckIn(ctx, res.ID)
	require.NoError(t, err)
	_, err = ledger.CheckOut(ctx, res.ID)
	require.NoError(t, err)
	_, err = ledger.CancelReservation(ctx, res.ID)
	assert.ErrorIs(t, err, booking.ErrInvalidState)
}

// =============================================================================
// CANCELLATION TESTS
// =============================================================================

func TestCancelReservation_ReleasesNightsAndRefunds(t *testing.T) {
	// GIVEN: A confirmed reservation more than 24h before check-in (flexible)
	// WHEN: Cancelling
	// THEN: Nights reopen, payment is refunded, record survives as cancelled
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	res, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)

	cancelled, err := ledger.CancelReservation(ctx, res.ID)
	require.NoError(t, err)

	assert.Equal(t, booking.StatusCancelled, cancelled.Status)
	assert.Equal(t, booking.PaymentRefunded, cancelled.PaymentStatus)
	assert.Equal(t, "2026-05-01", cancelled.CancelledAt.String())
	assert.Empty(t, calendarDays(t, mem, "room-1"))

	// The room is immediately bookable again.
	_, err = ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	assert.NoError(t, err)

	// The cancelled record is preserved, not deleted.
	kept, err := ledger.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, kept.Status)
}

func TestCancelReservation_StrictPolicyNoRefund(t *testing.T) {
	// GIVEN: A plan with strict cancellation, cancelled a week before check-in
	// THEN: No refund; payment status is left alone
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, mem.SaveRatePlan(ctx, booking.RatePlan{
		ID: "strict-plan", PropertyID: "prop-1", Name: "Strict",
		BaseRate: booking.FromUnits(100), Currency: "USD",
		RateType: booking.RateNightly, SeasonType: booking.SeasonStandard,
		ValidFrom: booking.NewDate(2026, time.January, 1),
		ValidTo:   booking.NewDate(2026, time.December, 31),
		Cancellation: booking.CancelStrict,
		IsActive:     true,
	}))

	res, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)
	require.Equal(t, booking.RatePlanID("strict-plan"), res.RatePlanID)

	// Move the clock to 7 days before check-in: inside the strict window.
	lateLedger := booking.NewLedger(mem, booking.WithClock(func() time.Time {
		return time.Date(2026, time.June, 3, 10, 0, 0, 0, time.UTC)
	}))
	cancelled, err := lateLedger.CancelReservation(ctx, res.ID)
	require.NoError(t, err)

	assert.Equal(t, booking.StatusCancelled, cancelled.Status)
	assert.Equal(t, booking.PaymentPending, cancelled.PaymentStatus, "no refund inside the strict window")
	assert.Empty(t, calendarDays(t, mem, "room-1"), "nights reopen regardless of refund")
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

func TestCreateReservation_ConcurrentSameRange_ExactlyOneWins(t *testing.T) {
	// GIVEN: Two goroutines racing for the same room and dates
	// THEN: Exactly one succeeds, the other gets ConflictError
	ledger, mem := newTestLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else if assert.ErrorIs(t, err, booking.ErrConflict) {
			lost++
		}
	}
	assert.Equal(t, 1, won, "exactly one booking wins")
	assert.Equal(t, 1, lost)
	assert.Len(t, calendarDays(t, mem, "room-1"), 3)
}

func TestCreateReservation_ConcurrentDifferentRooms_BothWin(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	rooms := []booking.RoomID{"room-1", "room-2"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.CreateReservation(ctx, createRequest(rooms[i], 10, 13))
		}(i)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}

func TestRoomLock_BoundedWaitTimesOut(t *testing.T) {
	// GIVEN: A ledger whose lock wait is tiny and a held room lock
	// WHEN: A second mutation arrives for the same room
	// THEN: It fails fast with BusyError (retryable) instead of queueing
	mem := store.NewTxMemory()
	seedProperty(t, mem)
	slow := &slowStore{TxMemory: mem, delay: 200 * time.Millisecond}
	ledger := booking.NewLedger(slow,
		booking.WithClock(func() time.Time { return fixedNow }),
		booking.WithLockWait(20*time.Millisecond))

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = ledger.CreateReservation(ctx, createRequest("room-1", 20, 22))
	}()

	// Let the first booking take the lock and stall inside the store.
	time.Sleep(50 * time.Millisecond)
	_, err := ledger.CreateReservation(ctx, createRequest("room-1", 20, 22))
	<-done

	require.ErrorIs(t, err, booking.ErrBusy)
	assert.True(t, booking.IsRetryable(err))
}

// slowStore delays transactional writes to hold the room lock long enough
// for a competing request to hit the bounded wait.
type slowStore struct {
	*store.TxMemory
	delay time.Duration
}

func (s *slowStore) WithTx(ctx context.Context, fn func(booking.Store) error) error {
	time.Sleep(s.delay)
	return s.TxMemory.WithTx(ctx, fn)
}
