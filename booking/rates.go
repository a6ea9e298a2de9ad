/*
rates.go - The Rate Resolver: plan selection and stay pricing

PURPOSE:
  Given a room, a stay, and an occupancy, determine the applicable rate plan
  and compute the price, night by night, in integer cents.

SELECTION RULE:
  Among active plans for the room (or property-wide plans with no room)
  whose validity window contains the entire stay and whose restrictions are
  satisfied:
    1. room-specific scope beats property-wide
    2. remaining ties: lowest base rate wins (guest-favorable)
  If no plan exists at all for the room, the room's own base rate prices the
  stay with no surcharges or discounts. If plans exist but none qualifies,
  the resolver fails with RateUnavailableError.

PRICING:
  Per night: base rate (weekly/monthly plans divided evenly across 7/30
  nights for per-night accounting) plus the weekend surcharge when the night
  falls on one of the property's weekend days. Discounts (early-bird,
  last-minute, extended-stay) are summed, capped at 100%, and applied to the
  pre-discount nightly subtotal. All arithmetic is integer cents; decimal is
  used only for the percentage application.

CANCELLATION POLICIES:
  A fixed refund table, consumed by the Ledger's cancellation flow:
    flexible: full refund if cancelled >= 24h before check-in
    moderate: full refund >= 5 days before, 50% thereafter
    strict:   no refund within 14 days of check-in

SEE ALSO:
  - types.go: RatePlan, Restrictions, Discounts
  - ledger.go: Calls Resolve at booking time, RefundPercent at cancellation
*/
package booking

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRICING CONFIG - Per-property policy knobs
// =============================================================================

// PricingConfig holds the property-configurable thresholds the resolver
// consults. These are policy choices, not engine logic.
type PricingConfig struct {
	WeekendDays []time.Weekday

	// EarlyBirdLeadDays: booking at least this many days before check-in
	// qualifies for the early-bird discount.
	EarlyBirdLeadDays int

	// LastMinuteWindowDays: booking within this many days of check-in
	// qualifies for the last-minute discount.
	LastMinuteWindowDays int

	// ExtendedStayNights: stays longer than this many nights qualify for the
	// extended-stay discount.
	ExtendedStayNights int
}

// DefaultPricingConfig returns the conventional hospitality defaults.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		WeekendDays:          []time.Weekday{time.Friday, time.Saturday},
		EarlyBirdLeadDays:    30,
		LastMinuteWindowDays: 3,
		ExtendedStayNights:   7,
	}
}

func (c PricingConfig) isZero() bool {
	return len(c.WeekendDays) == 0 && c.EarlyBirdLeadDays == 0 &&
		c.LastMinuteWindowDays == 0 && c.ExtendedStayNights == 0
}

func (c PricingConfig) isWeekend(d Date) bool {
	for _, wd := range c.WeekendDays {
		if d.Weekday() == wd {
			return true
		}
	}
	return false
}

// =============================================================================
// PRICE BREAKDOWN
// =============================================================================

// NightPrice is the priced detail of a single night.
type NightPrice struct {
	Date      Date
	Base      Money
	Surcharge Money
	Discount  Money // amount subtracted, not a percentage
	Total     Money
}

// PriceBreakdown is the result of resolving a stay.
type PriceBreakdown struct {
	RoomID   RoomID
	PlanID   RatePlanID // empty when priced from the room's base rate
	Currency string
	Nights   []NightPrice
	Total    Money
}

// NightlyRates returns the per-night totals in stay order, for the calendar.
func (b *PriceBreakdown) NightlyRates() []Money {
	rates := make([]Money, len(b.Nights))
	for i, n := range b.Nights {
		rates[i] = n.Total
	}
	return rates
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver selects a rate plan and prices stays.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve prices a stay for the given room and occupancy. bookedAt is the
// day the booking is made, used for the advance-booking restriction and the
// early-bird / last-minute discounts.
func (r *Resolver) Resolve(ctx context.Context, room *Room, stay StayRange, occupancy int, bookedAt Date, cfg PricingConfig) (*PriceBreakdown, error) {
	plans, err := r.store.ListRatePlans(ctx, room.PropertyID, room.ID)
	if err != nil {
		return nil, err
	}

	// No plans defined at all: price from the room's own base rate.
	if len(plans) == 0 {
		return priceFromBaseRate(room, stay), nil
	}

	candidates := make([]RatePlan, 0, len(plans))
	var lastReason string
	for _, p := range plans {
		if reason := disqualify(p, stay, occupancy, bookedAt); reason != "" {
			lastReason = reason
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		if lastReason == "" {
			lastReason = "no rate plan covers the stay"
		}
		return nil, &RateUnavailableError{RoomID: room.ID, Stay: stay, Reason: lastReason}
	}

	plan := pickPlan(candidates)
	return price(room, plan, stay, bookedAt, cfg), nil
}

// disqualify returns a non-empty reason when the plan cannot serve the stay.
func disqualify(p RatePlan, stay StayRange, occupancy int, bookedAt Date) string {
	if !p.IsActive {
		return "plan inactive"
	}
	lastNight := stay.CheckOut.AddDays(-1)
	if stay.CheckIn.Before(p.ValidFrom) || lastNight.After(p.ValidTo) {
		return "stay outside plan validity window"
	}
	nights := stay.Nights()
	if p.Restrictions.MinimumStay > 0 && nights < p.Restrictions.MinimumStay {
		return "stay shorter than minimum"
	}
	if p.Restrictions.MaximumStay > 0 && nights > p.Restrictions.MaximumStay {
		return "stay longer than maximum"
	}
	if p.Restrictions.MinimumOccupancy > 0 && occupancy < p.Restrictions.MinimumOccupancy {
		return "occupancy below minimum"
	}
	if p.Restrictions.MaximumOccupancy > 0 && occupancy > p.Restrictions.MaximumOccupancy {
		return "occupancy above maximum"
	}
	if p.AdvanceBookingDays > 0 && DaysBetween(bookedAt, stay.CheckIn) < p.AdvanceBookingDays {
		return "inside advance-booking window"
	}
	for _, d := range stay.Dates() {
		if p.IsBlackout(d) {
			return "stay includes blackout date " + d.String()
		}
	}
	return ""
}

// pickPlan applies the tie-break: most specific scope first, then lowest
// base rate.
func pickPlan(candidates []RatePlan) RatePlan {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.RoomSpecific() != b.RoomSpecific() {
			return a.RoomSpecific()
		}
		return a.BaseRate < b.BaseRate
	})
	return candidates[0]
}

// nightlyBase returns the plan's per-night base, splitting weekly and
// monthly rates evenly for internal accounting.
func nightlyBase(p RatePlan) Money {
	switch p.RateType {
	case RateWeekly:
		return Money(int64(p.BaseRate) / 7)
	case RateMonthly:
		return Money(int64(p.BaseRate) / 30)
	default:
		return p.BaseRate
	}
}

func price(room *Room, plan RatePlan, stay StayRange, bookedAt Date, cfg PricingConfig) *PriceBreakdown {
	discount := combinedDiscount(plan.Discounts, stay, bookedAt, cfg)
	base := nightlyBase(plan)

	breakdown := &PriceBreakdown{
		RoomID:   room.ID,
		PlanID:   plan.ID,
		Currency: plan.Currency,
	}
	for _, d := range stay.Dates() {
		night := NightPrice{Date: d, Base: base}
		if cfg.isWeekend(d) {
			night.Surcharge = plan.Restrictions.WeekendSurcharge
		}
		subtotal := night.Base.Add(night.Surcharge)
		night.Discount = subtotal.ApplyPercent(discount)
		night.Total = subtotal.Sub(night.Discount)
		breakdown.Nights = append(breakdown.Nights, night)
		breakdown.Total = breakdown.Total.Add(night.Total)
	}
	return breakdown
}

// combinedDiscount sums the qualifying discount percentages, capped at 100.
func combinedDiscount(d Discounts, stay StayRange, bookedAt Date, cfg PricingConfig) decimal.Decimal {
	total := decimal.Zero
	lead := DaysBetween(bookedAt, stay.CheckIn)
	if cfg.EarlyBirdLeadDays > 0 && lead >= cfg.EarlyBirdLeadDays {
		total = total.Add(d.EarlyBird)
	}
	if cfg.LastMinuteWindowDays > 0 && lead >= 0 && lead <= cfg.LastMinuteWindowDays {
		total = total.Add(d.LastMinute)
	}
	if cfg.ExtendedStayNights > 0 && stay.Nights() > cfg.ExtendedStayNights {
		total = total.Add(d.ExtendedStay)
	}
	cap := decimal.NewFromInt(100)
	if total.GreaterThan(cap) {
		return cap
	}
	return total
}

// priceFromBaseRate prices a stay from the room's own nightly rate, with no
// surcharges or discounts. Used when the property defines no rate plans.
func priceFromBaseRate(room *Room, stay StayRange) *PriceBreakdown {
	breakdown := &PriceBreakdown{
		RoomID:   room.ID,
		Currency: room.Currency,
	}
	for _, d := range stay.Dates() {
		night := NightPrice{Date: d, Base: room.BaseRate, Total: room.BaseRate}
		breakdown.Nights = append(breakdown.Nights, night)
		breakdown.Total = breakdown.Total.Add(night.Total)
	}
	return breakdown
}

// =============================================================================
// CANCELLATION REFUND TABLE
// =============================================================================

// RefundPercent returns the refund percentage for cancelling at the given
// instant, per the fixed policy table.
func RefundPercent(policy CancellationPolicy, checkIn Date, at time.Time) int {
	untilCheckIn := checkIn.Time().Sub(at.UTC())
	switch policy {
	case CancelFlexible:
		if untilCheckIn >= 24*time.Hour {
			return 100
		}
		return 0
	case CancelModerate:
		if untilCheckIn >= 5*24*time.Hour {
			return 100
		}
		return 50
	case CancelStrict:
		if untilCheckIn >= 14*24*time.Hour {
			return 100
		}
		return 0
	default:
		// Unknown policies err on the guest's side.
		return 100
	}
}
