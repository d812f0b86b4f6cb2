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
  /api/settings         Cycle configuration
  /api/categories/*     Category management
  /api/budgets          Per-period budget rows
  /api/transactions     Raw ledger facts
  /api/cycles/*         Snapshots and reconciliation
  /api/scenarios/*      Demo data
  /api/reset            Database reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. Owner scoping via X-Owner-ID is
  cooperative, not a security boundary.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Owner-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.PutSettings)
		})

		// Category routes
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.SaveCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		// Budget routes
		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", h.ListBudgets)
			r.Put("/", h.UpsertBudget)
		})

		// Transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
		})

		// Cycle routes
		r.Route("/cycles", func(r chi.Router) {
			r.Get("/", h.ListCycles)
			r.Post("/rebuild", h.Rebuild)
			r.Post("/manual", h.AddManualCycle)
			r.Get("/{periodStart}", h.GetCycleDetail)
			r.Post("/{periodStart}/rebuild", h.RebuildSingle)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Post("/demo", h.LoadDemoScenario)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Budget Cycle Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Budget Cycle Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/settings">/api/settings</a> - Cycle configuration</li>
<li><a href="/api/categories">/api/categories</a> - Categories</li>
<li><a href="/api/cycles">/api/cycles</a> - Cycle snapshots</li>
</ul>
</body>
</html>`))
	})

	return r
}
