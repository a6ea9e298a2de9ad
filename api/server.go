/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/properties/*     Properties, their rooms, rate plans and reports
  /api/rooms/*          Room detail, calendar, maintenance blocks
  /api/rate-plans/*     Rate plan detail
  /api/reservations/*   Booking lifecycle
  /api/quotes           Price quotes
  /api/scenarios/*      Demo scenarios
  /api/reset            Database reset (dev only)
  /health               Liveness probe

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Property routes
		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.ListProperties)
			r.Post("/", h.CreateProperty)
			r.Get("/{id}", h.GetProperty)
			r.Put("/{id}", h.UpdateProperty)
			r.Delete("/{id}", h.DeleteProperty)

			r.Get("/{id}/rooms", h.ListRooms)
			r.Post("/{id}/rooms", h.CreateRoom)

			r.Get("/{id}/rate-plans", h.ListRatePlans)
			r.Post("/{id}/rate-plans", h.CreateRatePlan)

			r.Get("/{id}/reports/occupancy", h.OccupancyReport)
			r.Get("/{id}/reports/revenue", h.RevenueReport)
		})

		// Room routes
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/{id}", h.GetRoom)
			r.Put("/{id}", h.UpdateRoom)
			r.Delete("/{id}", h.DeleteRoom)
			r.Get("/{id}/calendar", h.GetRoomCalendar)
			r.Post("/{id}/block", h.BlockRoom)
			r.Post("/{id}/unblock", h.UnblockRoom)
		})

		// Rate plan routes
		r.Route("/rate-plans", func(r chi.Router) {
			r.Get("/{id}", h.GetRatePlan)
			r.Put("/{id}", h.UpdateRatePlan)
			r.Delete("/{id}", h.DeleteRatePlan)
		})

		// Reservation routes
		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.ListReservations)
			r.Post("/", h.CreateReservation)
			r.Get("/{id}", h.GetReservation)
			r.Patch("/{id}", h.UpdateReservation)
			r.Delete("/{id}", h.CancelReservation)
			r.Post("/{id}/confirm", h.ConfirmReservation)
			r.Post("/{id}/check-in", h.CheckInReservation)
			r.Post("/{id}/check-out", h.CheckOutReservation)
		})

		// Quote routes
		r.Post("/quotes", h.Quote)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		// Dev helpers
		r.Post("/reset", h.ResetDatabase)
	})

	r.Get("/health", h.Health)

	return r
}
