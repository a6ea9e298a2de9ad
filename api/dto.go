/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts cross the wire as integer cents (*_cents fields) plus a
  two-decimal display string where clients render them directly.

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run
  them before touching the core, which assumes pre-validated, typed input.

SEE ALSO:
  - handlers.go: Uses these types
  - booking/types.go: The domain model behind them
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/harborstay/reservation-engine/booking"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// PROPERTIES
// =============================================================================

type PricingConfigDTO struct {
	WeekendDays          []int `json:"weekend_days,omitempty"`
	EarlyBirdLeadDays    int   `json:"early_bird_lead_days,omitempty"`
	LastMinuteWindowDays int   `json:"last_minute_window_days,omitempty"`
	ExtendedStayNights   int   `json:"extended_stay_nights,omitempty"`
}

type PropertyDTO struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	City     string            `json:"city,omitempty"`
	Country  string            `json:"country,omitempty"`
	Currency string            `json:"currency"`
	Pricing  *PricingConfigDTO `json:"pricing,omitempty"`
}

type SavePropertyRequest struct {
	Name     string            `json:"name" validate:"required"`
	City     string            `json:"city"`
	Country  string            `json:"country"`
	Currency string            `json:"currency" validate:"omitempty,len=3"`
	Pricing  *PricingConfigDTO `json:"pricing"`
}

// =============================================================================
// ROOMS
// =============================================================================

type RoomDTO struct {
	ID            string `json:"id"`
	PropertyID    string `json:"property_id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Capacity      int    `json:"capacity"`
	BaseRateCents int64  `json:"base_rate_cents"`
	BaseRate      string `json:"base_rate"`
	Currency      string `json:"currency"`
	Floor         int    `json:"floor,omitempty"`
	Size          int    `json:"size,omitempty"`
}

type SaveRoomRequest struct {
	Name          string `json:"name" validate:"required"`
	Type          string `json:"type" validate:"required,oneof=single double suite deluxe presidential"`
	Capacity      int    `json:"capacity" validate:"min=1"`
	BaseRateCents int64  `json:"base_rate_cents" validate:"min=0"`
	Currency      string `json:"currency" validate:"omitempty,len=3"`
	Floor         int    `json:"floor"`
	Size          int    `json:"size"`
}

type CalendarDayDTO struct {
	Date          string `json:"date"`
	Status        string `json:"status"`
	ReservationID string `json:"reservation_id,omitempty"`
	RateCents     int64  `json:"rate_cents,omitempty"`
}

type BlockRoomRequest struct {
	From   string `json:"from" validate:"required,datetime=2006-01-02"`
	To     string `json:"to" validate:"required,datetime=2006-01-02"`
	Status string `json:"status" validate:"omitempty,oneof=blocked maintenance"`
}

// =============================================================================
// RATE PLANS
// =============================================================================

type RestrictionsDTO struct {
	MinimumStay           int      `json:"minimum_stay,omitempty"`
	MaximumStay           int      `json:"maximum_stay,omitempty"`
	WeekendSurchargeCents int64    `json:"weekend_surcharge_cents,omitempty"`
	MinimumOccupancy      int      `json:"minimum_occupancy,omitempty"`
	MaximumOccupancy      int      `json:"maximum_occupancy,omitempty"`
	BlackoutDates         []string `json:"blackout_dates,omitempty"`
}

type DiscountsDTO struct {
	EarlyBird    string `json:"early_bird,omitempty"`
	LastMinute   string `json:"last_minute,omitempty"`
	ExtendedStay string `json:"extended_stay,omitempty"`
}

type RatePlanDTO struct {
	ID                 string           `json:"id"`
	PropertyID         string           `json:"property_id"`
	RoomID             string           `json:"room_id,omitempty"`
	Name               string           `json:"name"`
	BaseRateCents      int64            `json:"base_rate_cents"`
	Currency           string           `json:"currency"`
	RateType           string           `json:"rate_type"`
	SeasonType         string           `json:"season_type"`
	ValidFrom          string           `json:"valid_from"`
	ValidTo            string           `json:"valid_to"`
	AdvanceBookingDays int              `json:"advance_booking_days,omitempty"`
	CancellationPolicy string           `json:"cancellation_policy"`
	Restrictions       *RestrictionsDTO `json:"restrictions,omitempty"`
	Discounts          *DiscountsDTO    `json:"discounts,omitempty"`
	IsActive           bool             `json:"is_active"`
}

type SaveRatePlanRequest struct {
	RoomID             string           `json:"room_id"`
	Name               string           `json:"name" validate:"required"`
	BaseRateCents      int64            `json:"base_rate_cents" validate:"min=0"`
	Currency           string           `json:"currency" validate:"omitempty,len=3"`
	RateType           string           `json:"rate_type" validate:"omitempty,oneof=nightly weekly monthly"`
	SeasonType         string           `json:"season_type" validate:"omitempty,oneof=standard peak off-peak"`
	ValidFrom          string           `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidTo            string           `json:"valid_to" validate:"required,datetime=2006-01-02"`
	AdvanceBookingDays int              `json:"advance_booking_days" validate:"min=0"`
	CancellationPolicy string           `json:"cancellation_policy" validate:"omitempty,oneof=flexible moderate strict"`
	Restrictions       *RestrictionsDTO `json:"restrictions"`
	Discounts          *DiscountsDTO    `json:"discounts"`
	IsActive           *bool            `json:"is_active"`
}

// =============================================================================
// RESERVATIONS
// =============================================================================

type ReservationDTO struct {
	ID            string `json:"id"`
	PropertyID    string `json:"property_id"`
	RoomID        string `json:"room_id"`
	RatePlanID    string `json:"rate_plan_id,omitempty"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email"`
	GuestPhone    string `json:"guest_phone,omitempty"`
	CheckIn       string `json:"check_in"`
	CheckOut      string `json:"check_out"`
	Nights        int    `json:"nights"`
	Adults        int    `json:"adults"`
	Children      int    `json:"children"`
	TotalCents    int64  `json:"total_cents"`
	TotalAmount   string `json:"total_amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	BookedAt      string `json:"booked_at"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
}

type CreateReservationRequest struct {
	PropertyID string `json:"property_id" validate:"required"`
	RoomID     string `json:"room_id" validate:"required"`
	GuestName  string `json:"guest_name" validate:"required"`
	GuestEmail string `json:"guest_email" validate:"required,email"`
	GuestPhone string `json:"guest_phone"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Adults     int    `json:"adults" validate:"min=1"`
	Children   int    `json:"children" validate:"min=0"`
}

// UpdateReservationRequest patches a reservation; omitted fields are kept.
type UpdateReservationRequest struct {
	GuestName  *string `json:"guest_name" validate:"omitempty,min=1"`
	GuestEmail *string `json:"guest_email" validate:"omitempty,email"`
	GuestPhone *string `json:"guest_phone"`
	CheckIn    *string `json:"check_in" validate:"omitempty,datetime=2006-01-02"`
	CheckOut   *string `json:"check_out" validate:"omitempty,datetime=2006-01-02"`
	Adults     *int    `json:"adults" validate:"omitempty,min=1"`
	Children   *int    `json:"children" validate:"omitempty,min=0"`
}

// =============================================================================
// QUOTES
// =============================================================================

type QuoteRequest struct {
	RoomID    string `json:"room_id" validate:"required"`
	CheckIn   string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut  string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Occupancy int    `json:"occupancy" validate:"min=1"`
}

type QuoteNightDTO struct {
	Date           string `json:"date"`
	BaseCents      int64  `json:"base_cents"`
	SurchargeCents int64  `json:"surcharge_cents,omitempty"`
	DiscountCents  int64  `json:"discount_cents,omitempty"`
	TotalCents     int64  `json:"total_cents"`
}

type QuoteDTO struct {
	RoomID      string          `json:"room_id"`
	RatePlanID  string          `json:"rate_plan_id,omitempty"`
	Currency    string          `json:"currency"`
	Nights      []QuoteNightDTO `json:"nights"`
	TotalCents  int64           `json:"total_cents"`
	TotalAmount string          `json:"total_amount"`
}

// =============================================================================
// REPORTS
// =============================================================================

type OccupancyDTO struct {
	PropertyID       string  `json:"property_id"`
	From             string  `json:"from"`
	To               string  `json:"to"`
	TotalRoomNights  int     `json:"total_room_nights"`
	BookedRoomNights int     `json:"booked_room_nights"`
	Rate             float64 `json:"rate"`
}

type RevenueDTO struct {
	PropertyID       string `json:"property_id"`
	From             string `json:"from"`
	To               string `json:"to"`
	TotalCents       int64  `json:"total_cents"`
	TotalRevenue     string `json:"total_revenue"`
	AverageDailyRate string `json:"average_daily_rate"`
	BookingCount     int    `json:"booking_count"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toPropertyDTO(p booking.Property) PropertyDTO {
	dto := PropertyDTO{
		ID:       string(p.ID),
		Name:     p.Name,
		City:     p.City,
		Country:  p.Country,
		Currency: p.Currency,
	}
	if weekdays := p.Pricing.WeekendDays; len(weekdays) > 0 {
		pc := PricingConfigDTO{
			EarlyBirdLeadDays:    p.Pricing.EarlyBirdLeadDays,
			LastMinuteWindowDays: p.Pricing.LastMinuteWindowDays,
			ExtendedStayNights:   p.Pricing.ExtendedStayNights,
		}
		for _, wd := range weekdays {
			pc.WeekendDays = append(pc.WeekendDays, int(wd))
		}
		dto.Pricing = &pc
	}
	return dto
}

func toRoomDTO(r booking.Room) RoomDTO {
	return RoomDTO{
		ID:            string(r.ID),
		PropertyID:    string(r.PropertyID),
		Name:          r.Name,
		Type:          string(r.Type),
		Capacity:      r.Capacity,
		BaseRateCents: int64(r.BaseRate),
		BaseRate:      r.BaseRate.Display(),
		Currency:      r.Currency,
		Floor:         r.Floor,
		Size:          r.Size,
	}
}

func toRatePlanDTO(p booking.RatePlan) RatePlanDTO {
	dto := RatePlanDTO{
		ID:                 string(p.ID),
		PropertyID:         string(p.PropertyID),
		RoomID:             string(p.RoomID),
		Name:               p.Name,
		BaseRateCents:      int64(p.BaseRate),
		Currency:           p.Currency,
		RateType:           string(p.RateType),
		SeasonType:         string(p.SeasonType),
		ValidFrom:          p.ValidFrom.String(),
		ValidTo:            p.ValidTo.String(),
		AdvanceBookingDays: p.AdvanceBookingDays,
		CancellationPolicy: string(p.Cancellation),
		IsActive:           p.IsActive,
	}
	r := p.Restrictions
	if r.MinimumStay != 0 || r.MaximumStay != 0 || r.WeekendSurcharge != 0 ||
		r.MinimumOccupancy != 0 || r.MaximumOccupancy != 0 || len(r.BlackoutDates) > 0 {
		rd := RestrictionsDTO{
			MinimumStay:           r.MinimumStay,
			MaximumStay:           r.MaximumStay,
			WeekendSurchargeCents: int64(r.WeekendSurcharge),
			MinimumOccupancy:      r.MinimumOccupancy,
			MaximumOccupancy:      r.MaximumOccupancy,
		}
		for _, d := range r.BlackoutDates {
			rd.BlackoutDates = append(rd.BlackoutDates, d.String())
		}
		dto.Restrictions = &rd
	}
	d := p.Discounts
	if !d.EarlyBird.IsZero() || !d.LastMinute.IsZero() || !d.ExtendedStay.IsZero() {
		dto.Discounts = &DiscountsDTO{
			EarlyBird:    d.EarlyBird.String(),
			LastMinute:   d.LastMinute.String(),
			ExtendedStay: d.ExtendedStay.String(),
		}
	}
	return dto
}

func toReservationDTO(r booking.Reservation) ReservationDTO {
	dto := ReservationDTO{
		ID:            string(r.ID),
		PropertyID:    string(r.PropertyID),
		RoomID:        string(r.RoomID),
		RatePlanID:    string(r.RatePlanID),
		GuestName:     r.Guest.Name,
		GuestEmail:    r.Guest.Email,
		GuestPhone:    r.Guest.Phone,
		CheckIn:       r.Stay.CheckIn.String(),
		CheckOut:      r.Stay.CheckOut.String(),
		Nights:        r.Stay.Nights(),
		Adults:        r.Adults,
		Children:      r.Children,
		TotalCents:    int64(r.TotalAmount),
		TotalAmount:   r.TotalAmount.Display(),
		Currency:      r.Currency,
		Status:        string(r.Status),
		PaymentStatus: string(r.PaymentStatus),
		BookedAt:      r.BookedAt.String(),
	}
	if !r.CancelledAt.IsZero() {
		dto.CancelledAt = r.CancelledAt.String()
	}
	return dto
}

func toQuoteDTO(b *booking.PriceBreakdown) QuoteDTO {
	dto := QuoteDTO{
		RoomID:      string(b.RoomID),
		RatePlanID:  string(b.PlanID),
		Currency:    b.Currency,
		TotalCents:  int64(b.Total),
		TotalAmount: b.Total.Display(),
	}
	for _, n := range b.Nights {
		dto.Nights = append(dto.Nights, QuoteNightDTO{
			Date:           n.Date.String(),
			BaseCents:      int64(n.Base),
			SurchargeCents: int64(n.Surcharge),
			DiscountCents:  int64(n.Discount),
			TotalCents:     int64(n.Total),
		})
	}
	return dto
}

func parseDiscountsDTO(d *DiscountsDTO) (booking.Discounts, error) {
	if d == nil {
		return booking.Discounts{}, nil
	}
	var out booking.Discounts
	var err error
	if out.EarlyBird, err = parsePercent(d.EarlyBird); err != nil {
		return out, err
	}
	if out.LastMinute, err = parsePercent(d.LastMinute); err != nil {
		return out, err
	}
	if out.ExtendedStay, err = parsePercent(d.ExtendedStay); err != nil {
		return out, err
	}
	return out, nil
}

func parsePercent(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
