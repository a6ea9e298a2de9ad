package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborstay/reservation-engine/booking"
)

// =============================================================================
// DATE TESTS
// =============================================================================

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := booking.ParseDate("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", d.String())
	assert.Equal(t, time.Tuesday, d.Weekday())
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := booking.ParseDate("03/10/2026")
	assert.Error(t, err)

	_, err = booking.ParseDate("")
	assert.Error(t, err)
}

func TestDateOf_TruncatesToUTCDay(t *testing.T) {
	// 23:30 on March 10 in UTC-5 is March 11 in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	instant := time.Date(2026, time.March, 10, 23, 30, 0, 0, loc)

	d := booking.DateOf(instant)
	assert.Equal(t, "2026-03-11", d.String())
}

func TestDaysBetween(t *testing.T) {
	a := booking.NewDate(2026, time.March, 10)
	b := booking.NewDate(2026, time.March, 13)

	assert.Equal(t, 3, booking.DaysBetween(a, b))
	assert.Equal(t, -3, booking.DaysBetween(b, a))
	assert.Equal(t, 0, booking.DaysBetween(a, a))
}

// =============================================================================
// STAY RANGE TESTS
// =============================================================================

func TestNewStayRange_RejectsEmptyAndInverted(t *testing.T) {
	d := booking.NewDate(2026, time.March, 10)

	_, err := booking.NewStayRange(d, d)
	assert.ErrorIs(t, err, booking.ErrInvalidRange, "zero-night stay is invalid")

	_, err = booking.NewStayRange(d.AddDays(2), d)
	assert.ErrorIs(t, err, booking.ErrInvalidRange, "inverted range is invalid")
}

func TestStayRange_Nights_CheckOutDayExcluded(t *testing.T) {
	// GIVEN: A stay [Mar 10, Mar 13)
	// THEN: It occupies exactly 3 nights and Mar 13 is free
	stay, err := booking.NewStayRange(
		booking.NewDate(2026, time.March, 10),
		booking.NewDate(2026, time.March, 13),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, stay.Nights())
	assert.True(t, stay.Contains(booking.NewDate(2026, time.March, 10)))
	assert.True(t, stay.Contains(booking.NewDate(2026, time.March, 12)))
	assert.False(t, stay.Contains(booking.NewDate(2026, time.March, 13)), "check-out day is not occupied")

	dates := stay.Dates()
	require.Len(t, dates, 3)
	assert.Equal(t, "2026-03-10", dates[0].String())
	assert.Equal(t, "2026-03-12", dates[2].String())
}

func TestStayRange_Overlaps_SameDayTurnover(t *testing.T) {
	// GIVEN: Guest A leaves Mar 13, guest B arrives Mar 13
	// THEN: The stays do not overlap (same-day turnover allowed)
	a, err := booking.NewStayRange(booking.NewDate(2026, time.March, 10), booking.NewDate(2026, time.March, 13))
	require.NoError(t, err)
	b, err := booking.NewStayRange(booking.NewDate(2026, time.March, 13), booking.NewDate(2026, time.March, 15))
	require.NoError(t, err)

	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))

	// One shared night does overlap.
	c, err := booking.NewStayRange(booking.NewDate(2026, time.March, 12), booking.NewDate(2026, time.March, 14))
	require.NoError(t, err)
	assert.True(t, a.Overlaps(c))
}

// =============================================================================
// DATE RANGE TESTS
// =============================================================================

func TestDateRange_Inclusive(t *testing.T) {
	rng := booking.DateRange{
		From: booking.NewDate(2026, time.March, 10),
		To:   booking.NewDate(2026, time.March, 12),
	}

	assert.Equal(t, 3, rng.Days())
	assert.True(t, rng.Contains(booking.NewDate(2026, time.March, 12)), "To is included")
	assert.False(t, rng.Contains(booking.NewDate(2026, time.March, 13)))
	assert.Len(t, rng.Dates(), 3)
}
