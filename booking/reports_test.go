package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborstay/reservation-engine/booking"
)

// =============================================================================
// OCCUPANCY TESTS
// =============================================================================

func TestOccupancy_BookedOverTotalRoomNights(t *testing.T) {
	// GIVEN: 2 rooms over a 5-day window, one 3-night booking
	// THEN: 3 booked of 10 total room-nights, rate 0.3
	ledger, mem := newTestLedger(t)
	reports := booking.NewReports(mem)
	ctx := context.Background()

	_, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)

	rng := booking.DateRange{
		From: booking.NewDate(2026, time.June, 10),
		To:   booking.NewDate(2026, time.June, 14),
	}
	report, err := reports.Occupancy(ctx, "prop-1", rng)
	require.NoError(t, err)

	assert.Equal(t, 10, report.TotalRoomNights)
	assert.Equal(t, 3, report.BookedRoomNights)
	assert.InDelta(t, 0.3, report.Rate, 1e-9)
}

func TestOccupancy_BlockedNightsDoNotCount(t *testing.T) {
	ledger, mem := newTestLedger(t)
	reports := booking.NewReports(mem)
	ctx := context.Background()

	block := mustStay(t, booking.NewDate(2026, time.June, 10), booking.NewDate(2026, time.June, 13))
	require.NoError(t, ledger.Calendar().MarkRange(ctx, "room-1", block, booking.DayMaintenance))

	rng := booking.DateRange{
		From: booking.NewDate(2026, time.June, 10),
		To:   booking.NewDate(2026, time.June, 14),
	}
	report, err := reports.Occupancy(ctx, "prop-1", rng)
	require.NoError(t, err)

	assert.Equal(t, 0, report.BookedRoomNights, "maintenance holds are not occupancy")
	assert.Zero(t, report.Rate)
}

func TestOccupancy_UnknownProperty(t *testing.T) {
	_, mem := newTestLedger(t)
	reports := booking.NewReports(mem)

	rng := booking.DateRange{
		From: booking.NewDate(2026, time.June, 10),
		To:   booking.NewDate(2026, time.June, 14),
	}
	_, err := reports.Occupancy(context.Background(), "no-such-property", rng)
	assert.True(t, booking.IsNotFound(err))
}

// =============================================================================
// REVENUE TESTS
// =============================================================================

func TestRevenue_SumsConfirmedStays(t *testing.T) {
	ledger, mem := newTestLedger(t)
	reports := booking.NewReports(mem)
	ctx := context.Background()

	_, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13)) // $300
	require.NoError(t, err)
	_, err = ledger.CreateReservation(ctx, createRequest("room-2", 11, 13)) // $200
	require.NoError(t, err)

	rng := booking.DateRange{
		From: booking.NewDate(2026, time.June, 1),
		To:   booking.NewDate(2026, time.June, 30),
	}
	report, err := reports.Revenue(ctx, "prop-1", rng, nil)
	require.NoError(t, err)

	assert.Equal(t, booking.FromUnits(500), report.TotalRevenue)
	assert.Equal(t, 2, report.BookingCount)
	assert.Equal(t, booking.FromUnits(100), report.AverageDailyRate, "$500 over 5 booked nights")
}

func TestRevenue_CancelledStaysExcluded(t *testing.T) {
	ledger, mem := newTestLedger(t)
	reports := booking.NewReports(mem)
	ctx := context.Background()

	res, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)
	_, err = ledger.CancelReservation(ctx, res.ID)
	require.NoError(t, err)

	rng := booking.DateRange{
		From: booking.NewDate(2026, time.June, 1),
		To:   booking.NewDate(2026, time.June, 30),
	}
	report, err := reports.Revenue(ctx, "prop-1", rng, nil)
	require.NoError(t, err)

	assert.Zero(t, report.TotalRevenue)
	assert.Zero(t, report.BookingCount)
}

func TestRevenue_PartialOverlapProRated(t *testing.T) {
	// GIVEN: A 3-night $300 stay [June 10, 13)
	// WHEN: Reporting on a window covering only the first 2 nights
	// THEN: Only those nights' share ($200) counts
	ledger, mem := newTestLedger(t)
	reports := booking.NewReports(mem)
	ctx := context.Background()

	_, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)

	rng := booking.DateRange{
		From: booking.NewDate(2026, time.June, 1),
		To:   booking.NewDate(2026, time.June, 11),
	}
	report, err := reports.Revenue(ctx, "prop-1", rng, nil)
	require.NoError(t, err)

	assert.Equal(t, booking.FromUnits(200), report.TotalRevenue)
	assert.Equal(t, 1, report.BookingCount)
}

func TestRevenue_ProRatedSharesSumExactly(t *testing.T) {
	// $100.00 over 3 nights does not divide evenly; the shares must still
	// sum to the full amount when the whole stay is inside the window.
	total := booking.FromUnits(100)
	shares := total.SplitEven(3)
	require.Len(t, shares, 3)

	var sum booking.Money
	for _, s := range shares {
		sum = sum.Add(s)
	}
	assert.Equal(t, total, sum)
	assert.Equal(t, booking.Cents(3334), shares[0], "remainder goes to the first night")
	assert.Equal(t, booking.Cents(3333), shares[1])
}

func TestRevenue_StatusFilter(t *testing.T) {
	ledger, mem := newTestLedger(t)
	reports := booking.NewReports(mem)
	ctx := context.Background()

	res, err := ledger.CreateReservation(ctx, createRequest("room-1", 10, 13))
	require.NoError(t, err)
	_, err = ledger.CheckIn(ctx, res.ID)
	require.NoError(t, err)

	rng := booking.DateRange{
		From: booking.NewDate(2026, time.June, 1),
		To:   booking.NewDate(2026, time.June, 30),
	}

	onlyConfirmed, err := reports.Revenue(ctx, "prop-1", rng, []booking.ReservationStatus{booking.StatusConfirmed})
	require.NoError(t, err)
	assert.Zero(t, onlyConfirmed.BookingCount)

	onlyCheckedIn, err := reports.Revenue(ctx, "prop-1", rng, []booking.ReservationStatus{booking.StatusCheckedIn})
	require.NoError(t, err)
	assert.Equal(t, 1, onlyCheckedIn.BookingCount)
	assert.Equal(t, booking.FromUnits(300), onlyCheckedIn.TotalRevenue)
}
