/*
handlers.go - HTTP API handlers for the reservation engine

PURPOSE:
  Exposes the booking engine via REST API. Handles HTTP request/response,
  JSON serialization and input validation, and delegates to domain logic.

ENDPOINTS:
  Properties:
    GET    /api/properties                      List properties
    POST   /api/properties                      Create property
    GET    /api/properties/{id}                 Get property
    PUT    /api/properties/{id}                 Update property
    DELETE /api/properties/{id}                 Delete property

  Rooms:
    GET    /api/properties/{id}/rooms           List rooms for a property
    POST   /api/properties/{id}/rooms           Create room
    GET    /api/rooms/{id}                      Get room
    PUT    /api/rooms/{id}                      Update room
    DELETE /api/rooms/{id}                      Delete room (refused while booked)
    GET    /api/rooms/{id}/calendar             Calendar days (?from=&to=)
    POST   /api/rooms/{id}/block                Block nights for maintenance
    POST   /api/rooms/{id}/unblock              Release blocked nights

  Rate plans:
    GET    /api/properties/{id}/rate-plans      List plans (?room_id= narrows)
    POST   /api/properties/{id}/rate-plans      Create plan
    GET    /api/rate-plans/{id}                 Get plan
    PUT    /api/rate-plans/{id}                 Update plan
    DELETE /api/rate-plans/{id}                 Delete plan

  Reservations:
    POST   /api/reservations                    Book a stay
    GET    /api/reservations                    List (?property_id=&status=&room_id=)
    GET    /api/reservations/{id}               Get reservation
    PATCH  /api/reservations/{id}               Amend guest details or dates
    DELETE /api/reservations/{id}               Cancel (refund per policy)
    POST   /api/reservations/{id}/confirm       pending -> confirmed
    POST   /api/reservations/{id}/check-in      confirmed -> checked-in
    POST   /api/reservations/{id}/check-out     checked-in -> checked-out

  Quotes:
    POST   /api/quotes                          Price a stay without booking

  Reports:
    GET    /api/properties/{id}/reports/occupancy  (?from=&to=)
    GET    /api/properties/{id}/reports/revenue    (?from=&to=)

  Scenarios:
    GET    /api/scenarios                       List demo scenarios
    POST   /api/scenarios/load                  Load a demo scenario
    POST   /api/reset                           Wipe all data (dev only)

ERROR HANDLING:
  Domain errors map to HTTP status via their sentinel class:
  - 400: validation, invalid date range
  - 404: not found
  - 409: calendar conflict, invalid state transition
  - 422: no applicable rate
  - 503: room lock busy (Retry-After set; safe to retry)
  - 500: everything else

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/harborstay/reservation-engine/booking"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is what the API layer needs from persistence: the ledger's
// transactional store plus a way to wipe state for demo scenarios.
type Store interface {
	booking.TxStore
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   Store
	Ledger  *booking.Ledger
	Reports *booking.Reports

	validate *validator.Validate

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, opts ...booking.LedgerOption) *Handler {
	return &Handler{
		Store:    store,
		Ledger:   booking.NewLedger(store, opts...),
		Reports:  booking.NewReports(store),
		validate: validator.New(),
	}
}

// decodeValid decodes the body into req and runs struct validation.
func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

// =============================================================================
// PROPERTY HANDLERS
// =============================================================================

// ListProperties returns all properties.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.Store.ListProperties(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list properties", err)
		return
	}

	dtos := make([]PropertyDTO, len(props))
	for i, p := range props {
		dtos[i] = toPropertyDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProperty returns a single property.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	prop, err := h.Store.GetProperty(r.Context(), booking.PropertyID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get property", err)
		return
	}
	if prop == nil {
		writeError(w, http.StatusNotFound, "Property not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(*prop))
}

// CreateProperty creates a new property with a generated ID.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req SavePropertyRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	prop := propertyFromRequest(booking.PropertyID(uuid.NewString()), req)
	if err := h.Store.SaveProperty(r.Context(), prop); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create property", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPropertyDTO(prop))
}

// UpdateProperty replaces a property's attributes.
func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id := booking.PropertyID(chi.URLParam(r, "id"))

	existing, err := h.Store.GetProperty(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get property", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Property not found", nil)
		return
	}

	var req SavePropertyRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	prop := propertyFromRequest(id, req)
	if err := h.Store.SaveProperty(r.Context(), prop); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update property", err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(prop))
}

// DeleteProperty removes a property.
func (h *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := booking.PropertyID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteProperty(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func propertyFromRequest(id booking.PropertyID, req SavePropertyRequest) booking.Property {
	prop := booking.Property{
		ID:       id,
		Name:     req.Name,
		City:     req.City,
		Country:  req.Country,
		Currency: req.Currency,
	}
	if prop.Currency == "" {
		prop.Currency = "USD"
	}
	if pc := req.Pricing; pc != nil {
		prop.Pricing = booking.PricingConfig{
			EarlyBirdLeadDays:    pc.EarlyBirdLeadDays,
			LastMinuteWindowDays: pc.LastMinuteWindowDays,
			ExtendedStayNights:   pc.ExtendedStayNights,
		}
		for _, wd := range pc.WeekendDays {
			prop.Pricing.WeekendDays = append(prop.Pricing.WeekendDays, time.Weekday(wd))
		}
	}
	return prop
}

// =============================================================================
// ROOM HANDLERS
// =============================================================================

// ListRooms returns all rooms of a property.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	propertyID := booking.PropertyID(chi.URLParam(r, "id"))

	rooms, err := h.Store.ListRooms(r.Context(), propertyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rooms", err)
		return
	}

	dtos := make([]RoomDTO, len(rooms))
	for i, rm := range rooms {
		dtos[i] = toRoomDTO(rm)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRoom returns a single room.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.Store.GetRoom(r.Context(), booking.RoomID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get room", err)
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "Room not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(*room))
}

// CreateRoom creates a room under a property.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	propertyID := booking.PropertyID(chi.URLParam(r, "id"))

	prop, err := h.Store.GetProperty(r.Context(), propertyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get property", err)
		return
	}
	if prop == nil {
		writeError(w, http.StatusNotFound, "Property not found", nil)
		return
	}

	var req SaveRoomRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	room := roomFromRequest(booking.RoomID(uuid.NewString()), propertyID, req, prop.Currency)
	if err := h.Store.SaveRoom(r.Context(), room); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create room", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomDTO(room))
}

// UpdateRoom replaces a room's attributes. Property assignment is fixed.
func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	id := booking.RoomID(chi.URLParam(r, "id"))

	existing, err := h.Store.GetRoom(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get room", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Room not found", nil)
		return
	}

	var req SaveRoomRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	room := roomFromRequest(id, existing.PropertyID, req, existing.Currency)
	if err := h.Store.SaveRoom(r.Context(), room); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update room", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(room))
}

// DeleteRoom removes a room, refusing while active reservations exist.
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := booking.RoomID(chi.URLParam(r, "id"))
	ctx := r.Context()

	room, err := h.Store.GetRoom(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get room", err)
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "Room not found", nil)
		return
	}

	active, err := h.Store.ListReservations(ctx, room.PropertyID, booking.ReservationFilter{
		RoomID:   id,
		Statuses: []booking.ReservationStatus{booking.StatusPending, booking.StatusConfirmed, booking.StatusCheckedIn},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check reservations", err)
		return
	}
	if len(active) > 0 {
		writeError(w, http.StatusConflict, "Room has active reservations", nil)
		return
	}

	if err := h.Store.DeleteRoom(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func roomFromRequest(id booking.RoomID, propertyID booking.PropertyID, req SaveRoomRequest, fallbackCurrency string) booking.Room {
	room := booking.Room{
		ID:         id,
		PropertyID: propertyID,
		Name:       req.Name,
		Type:       booking.RoomType(req.Type),
		Capacity:   req.Capacity,
		BaseRate:   booking.Money(req.BaseRateCents),
		Currency:   req.Currency,
		Floor:      req.Floor,
		Size:       req.Size,
	}
	if room.Currency == "" {
		room.Currency = fallbackCurrency
	}
	return room
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetRoomCalendar returns the room's calendar days for a date range.
// Days with no record are OPEN and omitted.
func (h *Handler) GetRoomCalendar(w http.ResponseWriter, r *http.Request) {
	id := booking.RoomID(chi.URLParam(r, "id"))

	rng, ok := queryDateRange(w, r)
	if !ok {
		return
	}

	days, err := h.Ledger.Calendar().Days(r.Context(), id, rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]CalendarDayDTO, len(days))
	for i, d := range days {
		dtos[i] = CalendarDayDTO{
			Date:          d.Date.String(),
			Status:        string(d.Status),
			ReservationID: string(d.ReservationID),
			RateCents:     int64(d.Rate),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// BlockRoom marks nights as blocked or under maintenance. From/to are
// inclusive calendar dates, not a check-in/check-out pair.
func (h *Handler) BlockRoom(w http.ResponseWriter, r *http.Request) {
	id := booking.RoomID(chi.URLParam(r, "id"))

	var req BlockRoomRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	stay, ok := inclusiveRange(w, req.From, req.To)
	if !ok {
		return
	}

	status := booking.DayBlocked
	if req.Status == string(booking.DayMaintenance) {
		status = booking.DayMaintenance
	}

	if err := h.Ledger.Calendar().MarkRange(r.Context(), id, stay, status); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnblockRoom releases blocked or maintenance nights back to open.
func (h *Handler) UnblockRoom(w http.ResponseWriter, r *http.Request) {
	id := booking.RoomID(chi.URLParam(r, "id"))

	var req BlockRoomRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	stay, ok := inclusiveRange(w, req.From, req.To)
	if !ok {
		return
	}

	if err := h.Ledger.Calendar().ReleaseRange(r.Context(), id, stay); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RATE PLAN HANDLERS
// =============================================================================

// ListRatePlans returns a property's rate plans, optionally narrowed to
// those applicable to one room.
func (h *Handler) ListRatePlans(w http.ResponseWriter, r *http.Request) {
	propertyID := booking.PropertyID(chi.URLParam(r, "id"))
	roomID := booking.RoomID(r.URL.Query().Get("room_id"))

	plans, err := h.Store.ListRatePlans(r.Context(), propertyID, roomID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rate plans", err)
		return
	}

	dtos := make([]RatePlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toRatePlanDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRatePlan returns a single rate plan.
func (h *Handler) GetRatePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Store.GetRatePlan(r.Context(), booking.RatePlanID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get rate plan", err)
		return
	}
	if plan == nil {
		writeError(w, http.StatusNotFound, "Rate plan not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRatePlanDTO(*plan))
}

// CreateRatePlan creates a rate plan under a property.
func (h *Handler) CreateRatePlan(w http.ResponseWriter, r *http.Request) {
	propertyID := booking.PropertyID(chi.URLParam(r, "id"))
	ctx := r.Context()

	prop, err := h.Store.GetProperty(ctx, propertyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get property", err)
		return
	}
	if prop == nil {
		writeError(w, http.StatusNotFound, "Property not found", nil)
		return
	}

	var req SaveRatePlanRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	plan, err := h.ratePlanFromRequest(ctx, booking.RatePlanID(uuid.NewString()), propertyID, prop.Currency, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate plan", err)
		return
	}

	if err := h.Store.SaveRatePlan(ctx, plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create rate plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRatePlanDTO(plan))
}

// UpdateRatePlan replaces a rate plan's attributes.
func (h *Handler) UpdateRatePlan(w http.ResponseWriter, r *http.Request) {
	id := booking.RatePlanID(chi.URLParam(r, "id"))
	ctx := r.Context()

	existing, err := h.Store.GetRatePlan(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get rate plan", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Rate plan not found", nil)
		return
	}

	var req SaveRatePlanRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	plan, err := h.ratePlanFromRequest(ctx, id, existing.PropertyID, existing.Currency, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate plan", err)
		return
	}

	if err := h.Store.SaveRatePlan(ctx, plan); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update rate plan", err)
		return
	}
	writeJSON(w, http.StatusOK, toRatePlanDTO(plan))
}

// DeleteRatePlan removes a rate plan. Existing reservations keep their
// locked-in price.
func (h *Handler) DeleteRatePlan(w http.ResponseWriter, r *http.Request) {
	id := booking.RatePlanID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteRatePlan(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ratePlanFromRequest(ctx context.Context, id booking.RatePlanID, propertyID booking.PropertyID, fallbackCurrency string, req SaveRatePlanRequest) (booking.RatePlan, error) {
	plan := booking.RatePlan{
		ID:                 id,
		PropertyID:         propertyID,
		RoomID:             booking.RoomID(req.RoomID),
		Name:               req.Name,
		BaseRate:           booking.Money(req.BaseRateCents),
		Currency:           req.Currency,
		RateType:           booking.RateType(req.RateType),
		SeasonType:         booking.SeasonType(req.SeasonType),
		AdvanceBookingDays: req.AdvanceBookingDays,
		Cancellation:       booking.CancellationPolicy(req.CancellationPolicy),
		IsActive:           true,
	}
	if plan.Currency == "" {
		plan.Currency = fallbackCurrency
	}
	if plan.RateType == "" {
		plan.RateType = booking.RateNightly
	}
	if plan.Cancellation == "" {
		plan.Cancellation = booking.CancelFlexible
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	var err error
	if plan.ValidFrom, err = booking.ParseDate(req.ValidFrom); err != nil {
		return plan, err
	}
	if plan.ValidTo, err = booking.ParseDate(req.ValidTo); err != nil {
		return plan, err
	}

	if plan.RoomID != "" {
		room, err := h.Store.GetRoom(ctx, plan.RoomID)
		if err != nil {
			return plan, err
		}
		if room == nil || room.PropertyID != propertyID {
			return plan, &booking.ValidationError{Field: "room_id", Message: "room does not belong to property"}
		}
	}

	if rd := req.Restrictions; rd != nil {
		plan.Restrictions = booking.Restrictions{
			MinimumStay:      rd.MinimumStay,
			MaximumStay:      rd.MaximumStay,
			WeekendSurcharge: booking.Money(rd.WeekendSurchargeCents),
			MinimumOccupancy: rd.MinimumOccupancy,
			MaximumOccupancy: rd.MaximumOccupancy,
		}
		for _, s := range rd.BlackoutDates {
			d, err := booking.ParseDate(s)
			if err != nil {
				return plan, err
			}
			plan.Restrictions.BlackoutDates = append(plan.Restrictions.BlackoutDates, d)
		}
	}

	if plan.Discounts, err = parseDiscountsDTO(req.Discounts); err != nil {
		return plan, err
	}
	return plan, nil
}

// =============================================================================
// RESERVATION HANDLERS
// =============================================================================

// CreateReservation books a stay.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	checkIn, err := booking.ParseDate(req.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_in date (use YYYY-MM-DD)", err)
		return
	}
	checkOut, err := booking.ParseDate(req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_out date (use YYYY-MM-DD)", err)
		return
	}

	res, err := h.Ledger.CreateReservation(r.Context(), booking.CreateRequest{
		PropertyID: booking.PropertyID(req.PropertyID),
		RoomID:     booking.RoomID(req.RoomID),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guest: booking.Guest{
			Name:  req.GuestName,
			Email: req.GuestEmail,
			Phone: req.GuestPhone,
		},
		Adults:   req.Adults,
		Children: req.Children,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationDTO(*res))
}

// ListReservations returns reservations for a property, optionally filtered
// by room, status and a from/to date window (stays sharing at least one day).
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	propertyID := booking.PropertyID(q.Get("property_id"))
	if propertyID == "" {
		writeError(w, http.StatusBadRequest, "property_id is required", nil)
		return
	}

	filter := booking.ReservationFilter{
		RoomID: booking.RoomID(q.Get("room_id")),
	}
	for _, s := range q["status"] {
		filter.Statuses = append(filter.Statuses, booking.ReservationStatus(s))
	}
	if q.Get("from") != "" || q.Get("to") != "" {
		rng, ok := queryDateRange(w, r)
		if !ok {
			return
		}
		filter.Overlaps = &rng
	}

	reservations, err := h.Ledger.ListReservations(r.Context(), propertyID, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]ReservationDTO, len(reservations))
	for i, res := range reservations {
		dtos[i] = toReservationDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetReservation returns a single reservation.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Ledger.GetReservation(r.Context(), booking.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

// UpdateReservation amends guest details, party size or dates.
func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id := booking.ReservationID(chi.URLParam(r, "id"))
	ctx := r.Context()

	var req UpdateReservationRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	patch := booking.UpdatePatch{
		Adults:   req.Adults,
		Children: req.Children,
	}

	if req.CheckIn != nil {
		d, err := booking.ParseDate(*req.CheckIn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid check_in date (use YYYY-MM-DD)", err)
			return
		}
		patch.CheckIn = &d
	}
	if req.CheckOut != nil {
		d, err := booking.ParseDate(*req.CheckOut)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid check_out date (use YYYY-MM-DD)", err)
			return
		}
		patch.CheckOut = &d
	}

	if req.GuestName != nil || req.GuestEmail != nil || req.GuestPhone != nil {
		current, err := h.Ledger.GetReservation(ctx, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		guest := current.Guest
		if req.GuestName != nil {
			guest.Name = *req.GuestName
		}
		if req.GuestEmail != nil {
			guest.Email = *req.GuestEmail
		}
		if req.GuestPhone != nil {
			guest.Phone = *req.GuestPhone
		}
		patch.Guest = &guest
	}

	res, err := h.Ledger.UpdateReservation(ctx, id, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

// CancelReservation cancels a reservation and releases its nights. The
// refund follows the rate plan's cancellation policy.
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Ledger.CancelReservation(r.Context(), booking.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

// ConfirmReservation moves a pending reservation to confirmed.
func (h *Handler) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Ledger.Confirm)
}

// CheckInReservation moves a confirmed reservation to checked-in.
func (h *Handler) CheckInReservation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Ledger.CheckIn)
}

// CheckOutReservation moves a checked-in reservation to checked-out.
func (h *Handler) CheckOutReservation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Ledger.CheckOut)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, booking.ReservationID) (*booking.Reservation, error)) {
	res, err := fn(r.Context(), booking.ReservationID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

// =============================================================================
// QUOTE HANDLER
// =============================================================================

// Quote prices a stay without booking it.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !h.decodeValid(w, r, &req) {
		return
	}

	checkIn, err := booking.ParseDate(req.CheckIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_in date (use YYYY-MM-DD)", err)
		return
	}
	checkOut, err := booking.ParseDate(req.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_out date (use YYYY-MM-DD)", err)
		return
	}

	breakdown, err := h.Ledger.Quote(r.Context(), booking.RoomID(req.RoomID), checkIn, checkOut, req.Occupancy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(breakdown))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// OccupancyReport returns booked vs available room-nights for a window.
func (h *Handler) OccupancyReport(w http.ResponseWriter, r *http.Request) {
	propertyID := booking.PropertyID(chi.URLParam(r, "id"))

	rng, ok := queryDateRange(w, r)
	if !ok {
		return
	}

	report, err := h.Reports.Occupancy(r.Context(), propertyID, rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, OccupancyDTO{
		PropertyID:       string(propertyID),
		From:             rng.From.String(),
		To:               rng.To.String(),
		TotalRoomNights:  report.TotalRoomNights,
		BookedRoomNights: report.BookedRoomNights,
		Rate:             report.Rate,
	})
}

// RevenueReport returns pro-rated revenue and ADR for a window.
func (h *Handler) RevenueReport(w http.ResponseWriter, r *http.Request) {
	propertyID := booking.PropertyID(chi.URLParam(r, "id"))

	rng, ok := queryDateRange(w, r)
	if !ok {
		return
	}

	report, err := h.Reports.Revenue(r.Context(), propertyID, rng, booking.DefaultRevenueStatuses)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RevenueDTO{
		PropertyID:       string(propertyID),
		From:             rng.From.String(),
		To:               rng.To.String(),
		TotalCents:       int64(report.TotalRevenue),
		TotalRevenue:     report.TotalRevenue.Display(),
		AverageDailyRate: report.AverageDailyRate.Display(),
		BookingCount:     report.BookingCount,
	})
}

// =============================================================================
// HEALTH
// =============================================================================

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// queryDateRange reads ?from=&to= as an inclusive date range.
func queryDateRange(w http.ResponseWriter, r *http.Request) (booking.DateRange, bool) {
	from, err := booking.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return booking.DateRange{}, false
	}
	to, err := booking.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return booking.DateRange{}, false
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from", nil)
		return booking.DateRange{}, false
	}
	return booking.DateRange{From: from, To: to}, true
}

// inclusiveRange converts inclusive from/to strings into the half-open
// night range the calendar works in.
func inclusiveRange(w http.ResponseWriter, fromStr, toStr string) (booking.StayRange, bool) {
	from, err := booking.ParseDate(fromStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return booking.StayRange{}, false
	}
	to, err := booking.ParseDate(toStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return booking.StayRange{}, false
	}
	stay, err := booking.NewStayRange(from, to.AddDays(1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must not be before from", err)
		return booking.StayRange{}, false
	}
	return stay, true
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrBusy):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "Room is busy, retry shortly", err)
	case booking.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, booking.ErrConflict):
		writeError(w, http.StatusConflict, "Dates are not available", err)
	case errors.Is(err, booking.ErrInvalidState):
		writeError(w, http.StatusConflict, "Invalid state transition", err)
	case errors.Is(err, booking.ErrRateUnavailable):
		writeError(w, http.StatusUnprocessableEntity, "No applicable rate for this stay", err)
	case booking.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
