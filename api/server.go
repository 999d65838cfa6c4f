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
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. requestLog: Structured request logging via zerolog
  4. CORS:       Cross-origin requests for admin frontend

ROUTE GROUPS:
  /api/employees/*      Employee and target-segment management
  /api/plans/*          Plan management
  /api/deals/*          Deal and collection recording
  /api/rates            Market rate recording
  /api/statements/*     Calculation runs and results
  /api/ledger/*         Clawback ledger operations
  /api/allocations/*    SPIFF pool allocations
  /api/simulate         What-if payout simulation
  /api/scenarios/*      Demo scenarios
  /api/admin/*          Period locks

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.
  Front with an authenticating proxy in production.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLog(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/segments", h.GetSegments)
			r.Post("/{id}/segments", h.CreateSegment)
			r.Get("/{id}/ledger", h.GetLedger)
		})

		// Plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.ListPlans)
			r.Post("/", h.CreatePlan)
			r.Get("/{id}", h.GetPlan)
		})

		// Deal routes
		r.Route("/deals", func(r chi.Router) {
			r.Post("/", h.CreateDeal)
			r.Get("/{id}", h.GetDeal)
			r.Put("/{id}/collection", h.UpdateCollection)
		})

		// Rate routes
		r.Post("/rates", h.SaveRate)

		// Statement routes
		r.Route("/statements", func(r chi.Router) {
			r.Post("/run", h.RunStatement)
			r.Post("/batch", h.RunBatch)
			r.Get("/{id}/{month}", h.GetStatement)
		})

		// Clawback ledger routes
		r.Route("/ledger", func(r chi.Router) {
			r.Post("/{id}/recover", h.RecoverLedgerEntry)
			r.Post("/{id}/write-off", h.WriteOffLedgerEntry)
		})

		// Allocation routes
		r.Route("/allocations", func(r chi.Router) {
			r.Get("/", h.ListAllocations)
			r.Post("/{id}/approve", h.ApproveAllocation)
		})

		// Simulation route
		r.Post("/simulate", h.Simulate)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/locks", h.LockPeriod)
			r.Delete("/locks", h.UnlockPeriod)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// requestLog logs one structured line per request.
func requestLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
