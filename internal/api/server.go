// Package api exposes the expense workflow over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quillhq/expenseflow/internal/auth"
	"github.com/quillhq/expenseflow/internal/dispatch"
	"github.com/quillhq/expenseflow/internal/engine"
	"github.com/quillhq/expenseflow/internal/ingest"
	"github.com/quillhq/expenseflow/internal/store"
)

// Deps bundles everything the router needs.
type Deps struct {
	Store       store.Store
	Engine      *engine.Engine
	Dispatcher  *dispatch.Dispatcher
	Ingestor    *ingest.Ingestor // optional
	Hosting     Hosting          // optional
	Credentials auth.CredentialStore
}

// NewRouter builds the HTTP router.
func NewRouter(deps Deps) http.Handler {
	authHandler := NewAuthHandler(deps.Store, deps.Credentials)
	expensesHandler := NewExpensesHandler(deps.Store, deps.Engine, deps.Hosting)
	adminHandler := NewAdminHandler(deps.Engine, deps.Dispatcher, deps.Ingestor)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Session endpoints (no authentication required).
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)

	// API endpoints (authentication required).
	r.Route("/api/1", func(r chi.Router) {
		r.Use(AuthMiddleware(deps.Credentials, deps.Store))

		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", expensesHandler.List)
			r.Post("/", expensesHandler.Create)
			r.Get("/stats", expensesHandler.Stats)
			r.Get("/{id}", expensesHandler.Get)
			r.Post("/{id}/decide", expensesHandler.Decide)
			r.Post("/{id}/receipt", expensesHandler.UploadReceipt)
		})

		r.Get("/settings/mileage_rate", adminHandler.GetMileageRate)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/users", authHandler.ListUsers)
			r.Put("/settings/mileage_rate", adminHandler.SetMileageRate)
			r.Post("/admin/resync", adminHandler.Resync)
			r.Post("/admin/ingest", adminHandler.Ingest)
		})
	})

	// Health check endpoint.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
