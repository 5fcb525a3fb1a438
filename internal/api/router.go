/**
 * @description
 * This file sets up the HTTP router for the billing-service using the
 * go-chi/chi router. The webhook endpoint is open (signature verification
 * is out of scope); the read endpoints require a bearer token validated
 * against the configured JWKS endpoint.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new Chi router and registers the billing-service
// routes.
func NewRouter(h *Handler, jwksURL string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Billing service is healthy"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/payments/webhook", h.handleWebhook)

	// Protected read endpoints for the authenticated customer.
	r.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(jwksURL))

		r.Get("/subscriptions/status", h.handleGetSubscriptions)
		r.Get("/payments/history", h.handleGetHistory)
	})

	return r
}
