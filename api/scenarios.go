/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates a property, rooms,
	rate plans and reservations that demonstrate specific features.

AVAILABLE SCENARIOS:

	city-hotel:     Small city hotel, mixed rate plans, a few bookings
	seaside-resort: Seasonal pricing, surcharges, discounts, maintenance
	busy-weekend:   Near-full house with the whole reservation lifecycle

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create property and rooms
 3. Create rate plans
 4. Book reservations through the ledger (so pricing and calendar apply)
 5. Optionally drive lifecycle transitions and cancellations

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "city-hotel"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Store and ledger wiring
  - server.go: Scenario routes
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/harborstay/reservation-engine/booking"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "city-hotel",
		Name:        "City Hotel",
		Description: "Small city hotel with a property-wide plan and a suite-only plan",
		Category:    "hotel",
	},
	{
		ID:          "seaside-resort",
		Name:        "Seaside Resort",
		Description: "Peak-season pricing with weekend surcharges, discounts and a maintenance block",
		Category:    "hotel",
	},
	{
		ID:          "busy-weekend",
		Name:        "Busy Weekend",
		Description: "Near-full house covering the whole reservation lifecycle",
		Category:    "hotel",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "city-hotel":
		err = h.loadCityHotelScenario(ctx)
	case "seaside-resort":
		err = h.loadSeasideResortScenario(ctx)
	case "busy-weekend":
		err = h.loadBusyWeekendScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// ResetDatabase wipes all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO: CITY HOTEL
// =============================================================================

// loadCityHotelScenario builds a three-room city hotel with a property-wide
// standard plan and a suite-only plan, then books two stays next week.
func (h *Handler) loadCityHotelScenario(ctx context.Context) error {
	today := booking.Today()

	prop := booking.Property{
		ID:       "grand-central",
		Name:     "Grand Central Hotel",
		City:     "Chicago",
		Country:  "US",
		Currency: "USD",
	}
	if err := h.Store.SaveProperty(ctx, prop); err != nil {
		return err
	}

	rooms := []booking.Room{
		{ID: "gc-101", PropertyID: prop.ID, Name: "Room 101", Type: booking.RoomDouble, Capacity: 2, BaseRate: booking.FromUnits(120), Currency: "USD", Floor: 1, Size: 24},
		{ID: "gc-102", PropertyID: prop.ID, Name: "Room 102", Type: booking.RoomDouble, Capacity: 2, BaseRate: booking.FromUnits(120), Currency: "USD", Floor: 1, Size: 24},
		{ID: "gc-201", PropertyID: prop.ID, Name: "Skyline Suite", Type: booking.RoomSuite, Capacity: 4, BaseRate: booking.FromUnits(260), Currency: "USD", Floor: 2, Size: 55},
	}
	for _, rm := range rooms {
		if err := h.Store.SaveRoom(ctx, rm); err != nil {
			return err
		}
	}

	plans := []booking.RatePlan{
		{
			ID:         "gc-standard",
			PropertyID: prop.ID,
			Name:       "Standard Rate",
			BaseRate:   booking.FromUnits(110),
			Currency:   "USD",
			RateType:   booking.RateNightly,
			SeasonType: booking.SeasonStandard,
			ValidFrom:  today.AddDays(-30),
			ValidTo:    today.AddDays(365),
			Cancellation: booking.CancelFlexible,
			IsActive:     true,
		},
		{
			ID:         "gc-suite",
			PropertyID: prop.ID,
			RoomID:     "gc-201",
			Name:       "Suite Rate",
			BaseRate:   booking.FromUnits(240),
			Currency:   "USD",
			RateType:   booking.RateNightly,
			SeasonType: booking.SeasonStandard,
			ValidFrom:  today.AddDays(-30),
			ValidTo:    today.AddDays(365),
			Cancellation: booking.CancelModerate,
			Restrictions: booking.Restrictions{MinimumStay: 2},
			IsActive:     true,
		},
	}
	for _, p := range plans {
		if err := h.Store.SaveRatePlan(ctx, p); err != nil {
			return err
		}
	}

	if _, err := h.Ledger.CreateReservation(ctx, booking.CreateRequest{
		PropertyID: prop.ID,
		RoomID:     "gc-101",
		CheckIn:    today.AddDays(7),
		CheckOut:   today.AddDays(10),
		Guest:      booking.Guest{Name: "Alice Morgan", Email: "alice@example.com"},
		Adults:     2,
	}); err != nil {
		return err
	}
	if _, err := h.Ledger.CreateReservation(ctx, booking.CreateRequest{
		PropertyID: prop.ID,
		RoomID:     "gc-201",
		CheckIn:    today.AddDays(8),
		CheckOut:   today.AddDays(12),
		Guest:      booking.Guest{Name: "Ben Carter", Email: "ben@example.com"},
		Adults:     2,
		Children:   2,
	}); err != nil {
		return err
	}

	return nil
}

// =============================================================================
// SCENARIO: SEASIDE RESORT
// =============================================================================

// loadSeasideResortScenario shows pricing features: a peak-season plan with
// weekend surcharge and early-bird discount, plus a maintenance block.
func (h *Handler) loadSeasideResortScenario(ctx context.Context) error {
	today := booking.Today()

	prop := booking.Property{
		ID:       "seaside",
		Name:     "Seaside Resort",
		City:     "San Diego",
		Country:  "US",
		Currency: "USD",
		Pricing:  booking.DefaultPricingConfig(),
	}
	if err := h.Store.SaveProperty(ctx, prop); err != nil {
		return err
	}

	rooms := []booking.Room{
		{ID: "sea-1", PropertyID: prop.ID, Name: "Ocean View 1", Type: booking.RoomDeluxe, Capacity: 3, BaseRate: booking.FromUnits(200), Currency: "USD", Floor: 3, Size: 32},
		{ID: "sea-2", PropertyID: prop.ID, Name: "Ocean View 2", Type: booking.RoomDeluxe, Capacity: 3, BaseRate: booking.FromUnits(200), Currency: "USD", Floor: 3, Size: 32},
	}
	for _, rm := range rooms {
		if err := h.Store.SaveRoom(ctx, rm); err != nil {
			return err
		}
	}

	plan := booking.RatePlan{
		ID:         "sea-peak",
		PropertyID: prop.ID,
		Name:       "Peak Season",
		BaseRate:   booking.FromUnits(250),
		Currency:   "USD",
		RateType:   booking.RateNightly,
		SeasonType: booking.SeasonPeak,
		ValidFrom:  today.AddDays(-7),
		ValidTo:    today.AddDays(180),
		Cancellation: booking.CancelStrict,
		Restrictions: booking.Restrictions{
			MinimumStay:      2,
			WeekendSurcharge: booking.FromUnits(40),
			MaximumOccupancy: 3,
		},
		Discounts: booking.Discounts{
			EarlyBird:    decimal.NewFromInt(10),
			ExtendedStay: decimal.NewFromInt(5),
		},
		IsActive: true,
	}
	if err := h.Store.SaveRatePlan(ctx, plan); err != nil {
		return err
	}

	// Early-bird booking, far enough out to earn the discount.
	if _, err := h.Ledger.CreateReservation(ctx, booking.CreateRequest{
		PropertyID: prop.ID,
		RoomID:     "sea-1",
		CheckIn:    today.AddDays(45),
		CheckOut:   today.AddDays(52),
		Guest:      booking.Guest{Name: "Carla Diaz", Email: "carla@example.com"},
		Adults:     2,
	}); err != nil {
		return err
	}

	// Second ocean-view room is down for repairs next week.
	block, err := booking.NewStayRange(today.AddDays(5), today.AddDays(9))
	if err != nil {
		return err
	}
	return h.Ledger.Calendar().MarkRange(ctx, "sea-2", block, booking.DayMaintenance)
}

// =============================================================================
// SCENARIO: BUSY WEEKEND
// =============================================================================

// loadBusyWeekendScenario fills most of a small property over one weekend
// and drives reservations through the full lifecycle so the occupancy and
// revenue reports have something to show.
func (h *Handler) loadBusyWeekendScenario(ctx context.Context) error {
	today := booking.Today()

	prop := booking.Property{
		ID:       "harbor-inn",
		Name:     "Harbor Inn",
		City:     "Portland",
		Country:  "US",
		Currency: "USD",
	}
	if err := h.Store.SaveProperty(ctx, prop); err != nil {
		return err
	}

	for i := 1; i <= 4; i++ {
		rm := booking.Room{
			ID:         booking.RoomID(fmt.Sprintf("hi-%d", i)),
			PropertyID: prop.ID,
			Name:       fmt.Sprintf("Room %d", i),
			Type:       booking.RoomDouble,
			Capacity:   2,
			BaseRate:   booking.FromUnits(90),
			Currency:   "USD",
			Floor:      1,
			Size:       20,
		}
		if err := h.Store.SaveRoom(ctx, rm); err != nil {
			return err
		}
	}

	guests := []booking.Guest{
		{Name: "Dana Evans", Email: "dana@example.com"},
		{Name: "Eli Foster", Email: "eli@example.com"},
		{Name: "Farah Gupta", Email: "farah@example.com"},
		{Name: "Gabe Hall", Email: "gabe@example.com"},
	}

	var ids []booking.ReservationID
	for i, g := range guests {
		res, err := h.Ledger.CreateReservation(ctx, booking.CreateRequest{
			PropertyID: prop.ID,
			RoomID:     booking.RoomID(fmt.Sprintf("hi-%d", i+1)),
			CheckIn:    today.AddDays(4),
			CheckOut:   today.AddDays(6),
			Guest:      g,
			Adults:     2,
		})
		if err != nil {
			return err
		}
		ids = append(ids, res.ID)
	}

	// One guest arrives early, one cancels and frees their room.
	if _, err := h.Ledger.CheckIn(ctx, ids[0]); err != nil {
		return err
	}
	if _, err := h.Ledger.CancelReservation(ctx, ids[3]); err != nil {
		return err
	}

	// A completed stay from last week for the revenue report.
	past, err := h.Ledger.CreateReservation(ctx, booking.CreateRequest{
		PropertyID: prop.ID,
		RoomID:     "hi-1",
		CheckIn:    today.AddDays(-6),
		CheckOut:   today.AddDays(-4),
		Guest:      booking.Guest{Name: "Iris Johnson", Email: "iris@example.com"},
		Adults:     1,
	})
	if err != nil {
		return err
	}
	if _, err := h.Ledger.CheckIn(ctx, past.ID); err != nil {
		return err
	}
	_, err = h.Ledger.CheckOut(ctx, past.ID)
	return err
}
