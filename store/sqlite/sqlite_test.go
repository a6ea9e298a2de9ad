package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborstay/reservation-engine/booking"
	"github.com/harborstay/reservation-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedReservation(t *testing.T, s *sqlite.Store, id string, status booking.ReservationStatus, fromDay, toDay int) {
	t.Helper()
	require.NoError(t, s.InsertReservation(context.Background(), booking.Reservation{
		ID:         booking.ReservationID(id),
		PropertyID: "prop-1",
		RoomID:     "room-1",
		Guest:      booking.Guest{Name: "Test Guest", Email: "guest@example.com"},
		Stay: booking.StayRange{
			CheckIn:  booking.NewDate(2026, time.June, fromDay),
			CheckOut: booking.NewDate(2026, time.June, toDay),
		},
		Adults:        2,
		TotalAmount:   booking.FromUnits(300),
		Currency:      "USD",
		Status:        status,
		PaymentStatus: booking.PaymentPaid,
		BookedAt:      booking.NewDate(2026, time.May, 1),
	}))
}

func TestSQLite_ListReservations_StatusFilter(t *testing.T) {
	// GIVEN: Confirmed, pending and cancelled reservations for one property
	// WHEN: Filtering by one status, then by two
	// THEN: The IN clause matches exactly the requested statuses
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveProperty(ctx, booking.Property{ID: "prop-1", Name: "Test Hotel", Currency: "USD"}))
	require.NoError(t, s.SaveRoom(ctx, booking.Room{
		ID: "room-1", PropertyID: "prop-1", Name: "Room 1",
		Type: booking.RoomDouble, Capacity: 2,
		BaseRate: booking.FromUnits(100), Currency: "USD",
	}))

	seedReservation(t, s, "res-confirmed", booking.StatusConfirmed, 10, 13)
	seedReservation(t, s, "res-pending", booking.StatusPending, 14, 16)
	seedReservation(t, s, "res-cancelled", booking.StatusCancelled, 17, 19)

	one, err := s.ListReservations(ctx, "prop-1", booking.ReservationFilter{
		Statuses: []booking.ReservationStatus{booking.StatusConfirmed},
	})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, booking.ReservationID("res-confirmed"), one[0].ID)

	two, err := s.ListReservations(ctx, "prop-1", booking.ReservationFilter{
		Statuses: []booking.ReservationStatus{booking.StatusConfirmed, booking.StatusPending},
	})
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, booking.ReservationID("res-confirmed"), two[0].ID, "results ordered by check-in")
	assert.Equal(t, booking.ReservationID("res-pending"), two[1].ID)

	all, err := s.ListReservations(ctx, "prop-1", booking.ReservationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "no status filter returns everything")
}
