/*
Package booking is the core inventory and reservation engine.

PURPOSE:
  This package owns the authoritative model of room-night inventory: which
  nights of which rooms are open, booked, blocked, or under maintenance, and
  the reservations that consume them. Everything else in the system (HTTP
  layer, reporting UI, property management) is a consumer of this package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: integer minor-unit (cents) amounts, never floats
  - Room / RatePlan: referenced records owned by property management
  - Reservation: a guest's claim on a half-open range of room-nights
  - CalendarDay: per-(room, date) inventory state

THE CORE INVARIANT:
  For any (roomID, date), CalendarDay status is DayBooked if and only if
  exactly one non-cancelled reservation's [checkIn, checkOut) interval covers
  that date for that room. The Ledger is the only writer of both structures
  and maintains this invariant transactionally.

DESIGN PRINCIPLES:
  1. Integer cents: monetary arithmetic never touches floating point
  2. Type safety: strong ID types prevent mixing room/plan/reservation IDs
  3. Half-open stays: check-out day is free for same-day turnover
  4. Audit: reservations are never deleted, only transitioned

SEE ALSO:
  - date.go: Date, StayRange, DateRange
  - errors.go: Error taxonomy
  - ledger.go: The sole mutator of reservations and calendar days
*/
package booking

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Integer minor units (cents)
// =============================================================================

// Money is an amount in minor currency units (cents). All internal pricing
// arithmetic is integer; decimals appear only when applying percentages and
// when formatting for display.
type Money int64

// Cents constructs a Money value from minor units.
func Cents(v int64) Money { return Money(v) }

// FromUnits constructs Money from whole currency units (e.g. dollars).
func FromUnits(v int64) Money { return Money(v * 100) }

func (m Money) Add(other Money) Money { return m + other }
func (m Money) Sub(other Money) Money { return m - other }
func (m Money) Mul(n int64) Money     { return m * Money(n) }
func (m Money) IsZero() bool          { return m == 0 }
func (m Money) IsNegative() bool      { return m < 0 }

// ApplyPercent returns m scaled by pct/100, rounded half-up to the cent.
func (m Money) ApplyPercent(pct decimal.Decimal) Money {
	result := decimal.NewFromInt(int64(m)).Mul(pct).Div(decimal.NewFromInt(100))
	return Money(result.Round(0).IntPart())
}

// SplitEven divides m across n parts, rounding each share down and giving the
// remainder to the first part, so the shares always sum to m exactly.
func (m Money) SplitEven(n int) []Money {
	if n <= 0 {
		return nil
	}
	base := int64(m) / int64(n)
	rem := int64(m) % int64(n)
	parts := make([]Money, n)
	for i := range parts {
		parts[i] = Money(base)
	}
	parts[0] += Money(rem)
	return parts
}

// Display formats the amount with two decimal places, e.g. "123.45".
func (m Money) Display() string {
	return decimal.NewFromInt(int64(m)).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type PropertyID string
type RoomID string
type RatePlanID string
type ReservationID string

// =============================================================================
// ROOM - Referenced, owned by property management
// =============================================================================

type RoomType string

const (
	RoomSingle       RoomType = "single"
	RoomDouble       RoomType = "double"
	RoomSuite        RoomType = "suite"
	RoomDeluxe       RoomType = "deluxe"
	RoomPresidential RoomType = "presidential"
)

// Room is a bookable unit. The booking engine reads rooms but never mutates
// them; property management owns the records.
type Room struct {
	ID         RoomID
	PropertyID PropertyID
	Name       string
	Type       RoomType
	Capacity   int
	BaseRate   Money // fallback nightly rate when no rate plan applies
	Currency   string
	Floor      int
	Size       int // square meters
}

// =============================================================================
// RATE PLAN - Referenced pricing rules
// =============================================================================

type RateType string

const (
	RateNightly RateType = "nightly"
	RateWeekly  RateType = "weekly"
	RateMonthly RateType = "monthly"
)

type SeasonType string

const (
	SeasonStandard SeasonType = "standard"
	SeasonPeak     SeasonType = "peak"
	SeasonOffPeak  SeasonType = "off-peak"
)

type CancellationPolicy string

const (
	CancelFlexible CancellationPolicy = "flexible"
	CancelModerate CancellationPolicy = "moderate"
	CancelStrict   CancellationPolicy = "strict"
)

// Restrictions bound when and how a rate plan may be booked.
type Restrictions struct {
	MinimumStay      int // nights; 0 = no minimum
	MaximumStay      int // nights; 0 = no maximum
	WeekendSurcharge Money
	MinimumOccupancy int
	MaximumOccupancy int
	BlackoutDates    []Date
}

// Discounts are percentages (0-100) combined additively by the resolver.
type Discounts struct {
	EarlyBird    decimal.Decimal
	LastMinute   decimal.Decimal
	ExtendedStay decimal.Decimal
}

// RatePlan is a pricing rule scoped to a property, optionally narrowed to a
// single room. Multiple plans may overlap in validity for the same room; the
// resolver's tie-break picks one.
type RatePlan struct {
	ID         RatePlanID
	PropertyID PropertyID
	RoomID     RoomID // empty = property-wide
	Name       string
	BaseRate   Money
	Currency   string
	RateType   RateType
	SeasonType SeasonType

	ValidFrom Date // inclusive
	ValidTo   Date // inclusive

	AdvanceBookingDays int // minimum days between booking and check-in; 0 = none
	Cancellation       CancellationPolicy
	Restrictions       Restrictions
	Discounts          Discounts
	IsActive           bool
}

// RoomSpecific reports whether the plan is scoped to a single room.
func (p RatePlan) RoomSpecific() bool { return p.RoomID != "" }

// IsBlackout reports whether d is in the plan's blackout set.
func (p RatePlan) IsBlackout(d Date) bool {
	for _, b := range p.Restrictions.BlackoutDates {
		if b.Equal(d) {
			return true
		}
	}
	return false
}

// =============================================================================
// CALENDAR DAY - Per-(room, date) inventory state
// =============================================================================

type DayStatus string

const (
	DayOpen        DayStatus = "open"
	DayBooked      DayStatus = "booked"
	DayBlocked     DayStatus = "blocked"
	DayMaintenance DayStatus = "maintenance"
)

// CalendarDay is the inventory state of one room on one date. A missing
// record is equivalent to DayOpen with no resolved rate.
type CalendarDay struct {
	RoomID        RoomID
	Date          Date
	Status        DayStatus
	ReservationID ReservationID // set iff Status == DayBooked
	Rate          Money         // resolved nightly rate when OPEN or BOOKED
}

// =============================================================================
// RESERVATION
// =============================================================================

type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusCheckedIn  ReservationStatus = "checked-in"
	StatusCheckedOut ReservationStatus = "checked-out"
	StatusCancelled  ReservationStatus = "cancelled"
)

// Active reports whether the status still occupies calendar inventory.
// Checked-out stays keep their historic BOOKED days; cancelled ones do not.
func (s ReservationStatus) Active() bool {
	return s != StatusCancelled
}

// Terminal reports whether no further transition is allowed.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCheckedOut
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Guest holds the contact fields captured at booking time.
type Guest struct {
	Name  string
	Email string
	Phone string
}

// Reservation is a guest's claim on [CheckIn, CheckOut) for one room.
// Reservations are never deleted; cancellation is a status transition that
// preserves the audit history.
type Reservation struct {
	ID         ReservationID
	PropertyID PropertyID
	RoomID     RoomID
	RatePlanID RatePlanID // empty when priced from the room's base rate

	Guest    Guest
	Stay     StayRange
	Adults   int
	Children int

	TotalAmount Money
	Currency    string

	Status        ReservationStatus
	PaymentStatus PaymentStatus

	BookedAt    Date
	CancelledAt Date // zero unless Status == StatusCancelled
}

// Occupancy returns the total guest count.
func (r Reservation) Occupancy() int { return r.Adults + r.Children }
