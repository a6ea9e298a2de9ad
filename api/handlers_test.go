/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Reservation booking flow over HTTP (create, conflict, cancel)
- Error status mapping
- Report endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harborstay/reservation-engine/booking"
	"github.com/harborstay/reservation-engine/booking/store"
)

// testClock pins bookings to May 1 2026 so June stays are always bookable
// in advance and flexible cancellations refund.
var testClock = func() time.Time {
	return time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()
	h := NewHandler(store.NewTxMemory(), booking.WithClock(testClock))
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	if err := h.Store.SaveProperty(ctx, booking.Property{ID: "prop-1", Name: "Test Hotel", Currency: "USD"}); err != nil {
		t.Fatalf("Failed to seed property: %v", err)
	}
	if err := h.Store.SaveRoom(ctx, booking.Room{
		ID: "room-1", PropertyID: "prop-1", Name: "Room 1",
		Type: booking.RoomDouble, Capacity: 2,
		BaseRate: booking.FromUnits(100), Currency: "USD",
	}); err != nil {
		t.Fatalf("Failed to seed room: %v", err)
	}
	return srv, h
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	return resp, out.Bytes()
}

func createReservationBody(checkIn, checkOut string) map[string]any {
	return map[string]any{
		"property_id": "prop-1",
		"room_id":     "room-1",
		"guest_name":  "Test Guest",
		"guest_email": "guest@example.com",
		"check_in":    checkIn,
		"check_out":   checkOut,
		"adults":      2,
	}
}

func TestCreateReservation_HTTP(t *testing.T) {
	// GIVEN: An open room at $100/night
	// WHEN: Booking 3 nights over the API
	// THEN: 201 with a confirmed reservation priced at $300
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-10", "2026-06-13"))

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, body)
	}

	var dto ReservationDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if dto.ID == "" {
		t.Error("Expected a generated reservation id")
	}
	if dto.Status != string(booking.StatusConfirmed) {
		t.Errorf("Expected confirmed, got %s", dto.Status)
	}
	if dto.TotalCents != 30000 {
		t.Errorf("Expected 30000 cents, got %d", dto.TotalCents)
	}
	if dto.Nights != 3 {
		t.Errorf("Expected 3 nights, got %d", dto.Nights)
	}
}

func TestCreateReservation_Conflict_HTTP(t *testing.T) {
	// Overlapping booking for the same room returns 409.
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-10", "2026-06-13"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("First booking failed: %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-12", "2026-06-15"))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("Expected 409, got %d: %s", resp.StatusCode, body)
	}
}

func TestListReservations_DateWindow_HTTP(t *testing.T) {
	// GIVEN: Stays in early and late June
	// WHEN: Listing with a from/to window over early June only
	// THEN: Only the stay sharing a day with the window comes back
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-10", "2026-06-13"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("First booking failed: %d: %s", resp.StatusCode, body)
	}
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-20", "2026-06-23"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Second booking failed: %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet,
		srv.URL+"/api/reservations?property_id=prop-1&from=2026-06-01&to=2026-06-15", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	var dtos []ReservationDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(dtos) != 1 {
		t.Fatalf("Expected 1 reservation in the window, got %d", len(dtos))
	}
	if dtos[0].CheckIn != "2026-06-10" {
		t.Errorf("Expected the June 10 stay, got check-in %s", dtos[0].CheckIn)
	}

	// Malformed window is rejected.
	resp, _ = doJSON(t, http.MethodGet,
		srv.URL+"/api/reservations?property_id=prop-1&from=2026-06-01&to=not-a-date", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad window, got %d", resp.StatusCode)
	}
}

func TestCreateReservation_ValidationErrors_HTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	// Missing guest email.
	bad := createReservationBody("2026-06-10", "2026-06-13")
	delete(bad, "guest_email")
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/reservations", bad)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing email, got %d", resp.StatusCode)
	}

	// Zero-night stay.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-10", "2026-06-10"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty stay, got %d", resp.StatusCode)
	}

	// Unknown room.
	missing := createReservationBody("2026-06-10", "2026-06-13")
	missing["room_id"] = "no-such-room"
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/reservations", missing)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown room, got %d", resp.StatusCode)
	}
}

func TestCancelReservation_HTTP(t *testing.T) {
	// GIVEN: A confirmed booking
	// WHEN: DELETE on the reservation
	// THEN: 200 cancelled with refund, and the dates are bookable again
	srv, _ := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-10", "2026-06-13"))
	var created ReservationDTO
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	resp, body := doJSON(t, http.MethodDelete, srv.URL+"/api/reservations/"+created.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}

	var cancelled ReservationDTO
	if err := json.Unmarshal(body, &cancelled); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if cancelled.Status != string(booking.StatusCancelled) {
		t.Errorf("Expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.PaymentStatus != string(booking.PaymentRefunded) {
		t.Errorf("Expected refunded, got %s", cancelled.PaymentStatus)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-10", "2026-06-13"))
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected rebooking to succeed, got %d: %s", resp.StatusCode, body)
	}

	// Cancelling twice is an invalid transition.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/reservations/"+created.ID, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for double cancel, got %d", resp.StatusCode)
	}
}

func TestReservationLifecycle_HTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-10", "2026-06-13"))
	var res ReservationDTO
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	for _, step := range []struct {
		action string
		want   booking.ReservationStatus
	}{
		{"check-in", booking.StatusCheckedIn},
		{"check-out", booking.StatusCheckedOut},
	} {
		resp, body := doJSON(t, http.MethodPost,
			fmt.Sprintf("%s/api/reservations/%s/%s", srv.URL, res.ID, step.action), nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", step.action, resp.StatusCode, body)
		}
		var dto ReservationDTO
		if err := json.Unmarshal(body, &dto); err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if dto.Status != string(step.want) {
			t.Errorf("%s: expected %s, got %s", step.action, step.want, dto.Status)
		}
	}

	// Checked-out is terminal: confirm is now invalid.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/reservations/"+res.ID+"/confirm", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 after checkout, got %d", resp.StatusCode)
	}
}

func TestRoomBlockAndCalendar_HTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/rooms/room-1/block",
		map[string]any{"from": "2026-06-20", "to": "2026-06-22", "status": "maintenance"})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", resp.StatusCode, body)
	}

	// Booking across the block fails.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-19", "2026-06-22"))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 across a maintenance block, got %d", resp.StatusCode)
	}

	// Calendar shows the blocked days.
	resp, body = doJSON(t, http.MethodGet,
		srv.URL+"/api/rooms/room-1/calendar?from=2026-06-01&to=2026-06-30", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	var days []CalendarDayDTO
	if err := json.Unmarshal(body, &days); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("Expected 3 calendar days (inclusive block), got %d", len(days))
	}
	for _, d := range days {
		if d.Status != string(booking.DayMaintenance) {
			t.Errorf("Expected maintenance, got %s on %s", d.Status, d.Date)
		}
	}

	// Unblocking reopens the range.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/rooms/room-1/unblock",
		map[string]any{"from": "2026-06-20", "to": "2026-06-22"})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204 on unblock, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-19", "2026-06-22"))
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected booking after unblock to succeed, got %d", resp.StatusCode)
	}
}

func TestQuote_HTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/quotes", map[string]any{
		"room_id":   "room-1",
		"check_in":  "2026-06-10",
		"check_out": "2026-06-13",
		"occupancy": 2,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}

	var quote QuoteDTO
	if err := json.Unmarshal(body, &quote); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if quote.TotalCents != 30000 {
		t.Errorf("Expected 30000 cents, got %d", quote.TotalCents)
	}
	if len(quote.Nights) != 3 {
		t.Errorf("Expected 3 nights, got %d", len(quote.Nights))
	}
	if quote.TotalAmount != "300.00" {
		t.Errorf("Expected display 300.00, got %s", quote.TotalAmount)
	}
}

func TestReports_HTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-10", "2026-06-13"))
	var res ReservationDTO
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	resp, body := doJSON(t, http.MethodGet,
		srv.URL+"/api/properties/prop-1/reports/occupancy?from=2026-06-10&to=2026-06-14", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	var occ OccupancyDTO
	if err := json.Unmarshal(body, &occ); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if occ.TotalRoomNights != 5 || occ.BookedRoomNights != 3 {
		t.Errorf("Expected 3/5 room-nights, got %d/%d", occ.BookedRoomNights, occ.TotalRoomNights)
	}

	resp, body = doJSON(t, http.MethodGet,
		srv.URL+"/api/properties/prop-1/reports/revenue?from=2026-06-01&to=2026-06-30", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	var rev RevenueDTO
	if err := json.Unmarshal(body, &rev); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if rev.TotalCents != 30000 {
		t.Errorf("Expected 30000 cents revenue, got %d", rev.TotalCents)
	}
	if rev.BookingCount != 1 {
		t.Errorf("Expected 1 booking, got %d", rev.BookingCount)
	}
}

func TestDeleteRoom_RefusedWhileBooked_HTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/reservations",
		createReservationBody("2026-06-10", "2026-06-13"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Booking failed: %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/rooms/room-1", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 while booked, got %d", resp.StatusCode)
	}
}

func TestPropertyCRUD_HTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/properties", map[string]any{
		"name":     "New Hotel",
		"city":     "Boston",
		"country":  "US",
		"currency": "USD",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, body)
	}
	var created PropertyDTO
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if created.ID == "" {
		t.Error("Expected a generated property id")
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/properties/"+created.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 on get, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/properties/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 on unknown id, got %d", resp.StatusCode)
	}
}

func TestScenarios_HTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load",
		map[string]any{"scenario_id": "city-hotel"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet,
		srv.URL+"/api/reservations?property_id=grand-central", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	var reservations []ReservationDTO
	if err := json.Unmarshal(body, &reservations); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(reservations) != 2 {
		t.Errorf("Expected 2 scenario reservations, got %d", len(reservations))
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/scenarios/load",
		map[string]any{"scenario_id": "nope"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown scenario, got %d", resp.StatusCode)
	}
}
