/**
 * @description
 * This file contains the HTTP handler functions for the billing-service.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate business logic in the service layer, and writing the HTTP
 * response.
 *
 * The webhook handler validates payload shape only; everything past that
 * point is acknowledged with 200 whether the event was applied or
 * dropped, so the provider never retries recognized-but-unresolvable
 * events.
 */
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/transfa/billing-service/internal/app"
	"github.com/transfa/billing-service/internal/domain"
	"github.com/transfa/billing-service/internal/store"
)

// Handler holds the application service that handlers interact with.
type Handler struct {
	service *app.Service
	logger  zerolog.Logger
}

// NewHandler creates a new Handler with the given service.
func NewHandler(service *app.Service, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// handleWebhook processes a provider lifecycle event POSTed to
// /payments/webhook.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := h.logger.With().Str("request_id", requestID).Logger()

	var event domain.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		logger.Warn().Err(err).Msg("invalid webhook JSON payload")
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if reason, ok := validateWebhookShape(event); !ok {
		logger.Warn().Str("reason", reason).Msg("webhook payload failed shape validation")
		http.Error(w, reason, http.StatusBadRequest)
		return
	}

	logger.Info().
		Str("type", string(event.Type)).
		Str("provider_plan_id", event.Data.SubscriptionID).
		Msg("received webhook event")

	if err := h.service.HandleWebhook(r.Context(), event); err != nil {
		logger.Error().Err(err).Msg("webhook processing failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// validateWebhookShape enforces the payload contract that the original
// boundary validated before the core ran. Semantic failures (unknown
// user, missing plan) are deliberately not checked here.
func validateWebhookShape(event domain.WebhookEvent) (string, bool) {
	if event.Type == "" {
		return "missing event type", false
	}
	if event.Data.CustomerEmail == "" {
		return "missing customerEmail", false
	}
	if event.Data.SubscriptionID == "" {
		return "missing subscriptionId", false
	}
	if event.Type == domain.WebhookSubscriptionCreated {
		if _, ok := domain.ParseBillingPeriod(event.Data.BillingPeriod); !ok {
			return "billingPeriod must be monthly or yearly", false
		}
	}
	return "", true
}

// handleGetSubscriptions returns the authenticated user's subscription
// bindings.
func (h *Handler) handleGetSubscriptions(w http.ResponseWriter, r *http.Request) {
	email, ok := EmailFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	subs, err := h.service.Subscriptions(r.Context(), email)
	if errors.Is(err, store.ErrUserNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, subs)
}

// handleGetHistory returns the authenticated user's payment history.
func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	email, ok := EmailFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	entries, err := h.service.PaymentHistory(r.Context(), email)
	if errors.Is(err, store.ErrUserNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
