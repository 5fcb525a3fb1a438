/**
 * @description
 * The webhook dispatcher: resolves the customer behind an incoming
 * provider event and routes it to the plan catalog or the
 * user-subscription manager. It also backs the authenticated read API.
 *
 * Dispatch never surfaces business failures to the provider: events that
 * cannot be resolved are logged and dropped, and the HTTP layer answers
 * 200 either way. Only storage faults propagate.
 */
package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/transfa/billing-service/internal/domain"
	"github.com/transfa/billing-service/internal/metrics"
	"github.com/transfa/billing-service/internal/store"
)

// Service routes provider webhook events and serves billing reads.
type Service struct {
	repo    store.Repository
	catalog *Catalog
	manager *Manager
	ledger  *Ledger
	logger  zerolog.Logger
}

// NewService creates the dispatcher over the given collaborators.
func NewService(repo store.Repository, catalog *Catalog, manager *Manager, ledger *Ledger, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		manager: manager,
		ledger:  ledger,
		logger:  logger,
	}
}

// HandleWebhook processes one provider event. The customer is resolved
// first; unknown emails drop the event with an error log and a nil
// return, so the provider still receives an acknowledgment and will not
// re-deliver.
func (s *Service) HandleWebhook(ctx context.Context, event domain.WebhookEvent) error {
	user, err := s.repo.FindUserByEmail(ctx, event.Data.CustomerEmail)
	if errors.Is(err, store.ErrUserNotFound) {
		s.logger.Error().Str("customer_email", event.Data.CustomerEmail).Msg("user not found")
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), metrics.OutcomeDropped).Inc()
		return nil
	}
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return err
	}

	var opErr error
	switch event.Type {
	case domain.WebhookSubscriptionCreated:
		opErr = s.catalog.Create(ctx, event.Data.SubscriptionID, event.Data.Amount, event.Data.BillingPeriod)
	case domain.WebhookSubscriptionDeleted:
		opErr = s.catalog.Delete(ctx, event.Data.SubscriptionID)
	case domain.WebhookSubscriptionPurchaseSuccessful:
		opErr = s.manager.Purchase(ctx, user, event.Data.SubscriptionID, event.Data.PaymentMethodID)
	case domain.WebhookSubscriptionRenewalSuccessful:
		opErr = s.manager.Renew(ctx, user, event.Data.SubscriptionID)
	case domain.WebhookSubscriptionRenewalFailed, domain.WebhookSubscriptionExpired:
		opErr = s.manager.Expire(ctx, user, event.Data.SubscriptionID)
	case domain.WebhookSubscriptionCanceled:
		opErr = s.manager.Cancel(ctx, user, event.Data.SubscriptionID)
	default:
		s.logger.Warn().Str("type", string(event.Type)).Msg("unhandled webhook event type")
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), metrics.OutcomeDropped).Inc()
		return nil
	}

	if opErr != nil {
		metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), metrics.OutcomeError).Inc()
		return opErr
	}
	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), metrics.OutcomeOK).Inc()
	return nil
}

// Subscriptions returns the subscription bindings for the user behind an
// email address. store.ErrUserNotFound propagates for the handler to map.
func (s *Service) Subscriptions(ctx context.Context, email string) ([]domain.UserSubscription, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.repo.ListUserSubscriptions(ctx, user.ID)
}

// PaymentHistory returns the ledger for the user behind an email address,
// newest entries first.
func (s *Service) PaymentHistory(ctx context.Context, email string) ([]domain.PaymentHistory, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, user.ID)
}
