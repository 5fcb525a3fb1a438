/**
 * @description
 * The per-user subscription state machine: purchase, renew, cancel and
 * expire transitions driven by the provider's webhook stream.
 *
 * Every transition performs all of its existence checks before writing
 * anything, then mutates the user subscription and appends the ledger
 * entry in one repository transaction. Business "not found" conditions
 * are logged and dropped; only storage faults return an error.
 */
package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/transfa/billing-service/internal/domain"
	"github.com/transfa/billing-service/internal/store"
)

// EventPublisher fans successful transitions out to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
}

// Manager drives the user-subscription state machine.
type Manager struct {
	repo      store.Repository
	catalog   *Catalog
	ledger    *Ledger
	publisher EventPublisher
	clock     Clock
	logger    zerolog.Logger
}

// NewManager creates a manager. publisher may be nil, in which case no
// billing events are emitted.
func NewManager(repo store.Repository, catalog *Catalog, ledger *Ledger, publisher EventPublisher, logger zerolog.Logger) *Manager {
	return &Manager{
		repo:      repo,
		catalog:   catalog,
		ledger:    ledger,
		publisher: publisher,
		clock:     systemClock{},
		logger:    logger,
	}
}

// Purchase activates a subscription for the user. The plan and the
// payment method must both exist before any write happens. A purchase
// event for an already-bound (user, plan) pair reactivates the existing
// row in place instead of inserting a duplicate.
func (m *Manager) Purchase(ctx context.Context, user *domain.User, providerID string, paymentMethodID int64) error {
	plan, err := m.lookupPlan(ctx, providerID)
	if plan == nil || err != nil {
		return err
	}

	method, err := m.repo.FindPaymentMethodByID(ctx, paymentMethodID)
	if errors.Is(err, store.ErrPaymentMethodNotFound) {
		m.logger.Error().Int64("payment_method_id", paymentMethodID).Msg("payment method not found")
		return nil
	}
	if err != nil {
		return err
	}

	endAt := calculateEndAt(plan.BillingPeriod, m.clock.Now())

	existing, err := m.repo.FindUserSubscription(ctx, user.ID, plan.ID)
	switch {
	case err == nil:
		m.logger.Warn().
			Int64("user_id", user.ID).
			Int64("subscription_id", plan.ID).
			Msg("purchase event for existing subscription, reactivating in place")

		oldStatus := existing.Status
		newStatus := domain.SubscriptionStatusActive
		update := store.UserSubscriptionUpdate{Status: &newStatus, EndAt: &endAt}
		entry := m.ledger.Entry(user.ID, plan, &oldStatus, newStatus)
		if err := m.repo.UpdateUserSubscriptionWithHistory(ctx, existing.ID, update, entry); err != nil {
			return err
		}
		m.publish(ctx, "purchased", user.ID, plan, &oldStatus, newStatus, endAt)
		return nil

	case errors.Is(err, store.ErrUserSubscriptionNotFound):
		sub := &domain.UserSubscription{
			UserID:          user.ID,
			SubscriptionID:  plan.ID,
			Status:          domain.SubscriptionStatusActive,
			PaymentMethodID: method.ID,
			EndAt:           endAt,
		}
		entry := m.ledger.Entry(user.ID, plan, nil, domain.SubscriptionStatusActive)
		if err := m.repo.CreateUserSubscriptionWithHistory(ctx, sub, entry); err != nil {
			return err
		}
		m.publish(ctx, "purchased", user.ID, plan, nil, domain.SubscriptionStatusActive, endAt)
		return nil

	default:
		return err
	}
}

// Renew extends the subscription by one billing period from the previous
// period boundary, not from "now", so coverage stays contiguous even when
// the renewal event arrives late. The status field is left untouched by
// the update; the ledger records the transition to ACTIVE.
func (m *Manager) Renew(ctx context.Context, user *domain.User, providerID string) error {
	plan, sub, err := m.lookupBinding(ctx, user, providerID)
	if sub == nil || err != nil {
		return err
	}

	endAt := calculateEndAt(plan.BillingPeriod, sub.EndAt)
	oldStatus := sub.Status
	update := store.UserSubscriptionUpdate{EndAt: &endAt}
	entry := m.ledger.Entry(user.ID, plan, &oldStatus, domain.SubscriptionStatusActive)
	if err := m.repo.UpdateUserSubscriptionWithHistory(ctx, sub.ID, update, entry); err != nil {
		return err
	}
	m.publish(ctx, "renewed", user.ID, plan, &oldStatus, domain.SubscriptionStatusActive, endAt)
	return nil
}

// Cancel marks the subscription CANCELED effective immediately: endAt is
// set to the processing instant, not aligned to the period boundary.
func (m *Manager) Cancel(ctx context.Context, user *domain.User, providerID string) error {
	plan, sub, err := m.lookupBinding(ctx, user, providerID)
	if sub == nil || err != nil {
		return err
	}

	now := m.clock.Now()
	oldStatus := sub.Status
	newStatus := domain.SubscriptionStatusCanceled
	update := store.UserSubscriptionUpdate{Status: &newStatus, EndAt: &now}
	entry := m.ledger.Entry(user.ID, plan, &oldStatus, newStatus)
	if err := m.repo.UpdateUserSubscriptionWithHistory(ctx, sub.ID, update, entry); err != nil {
		return err
	}
	m.publish(ctx, "canceled", user.ID, plan, &oldStatus, newStatus, now)
	return nil
}

// Expire marks the subscription EXPIRED. endAt is left unchanged; only
// the status moves.
func (m *Manager) Expire(ctx context.Context, user *domain.User, providerID string) error {
	plan, sub, err := m.lookupBinding(ctx, user, providerID)
	if sub == nil || err != nil {
		return err
	}

	oldStatus := sub.Status
	newStatus := domain.SubscriptionStatusExpired
	update := store.UserSubscriptionUpdate{Status: &newStatus}
	entry := m.ledger.Entry(user.ID, plan, &oldStatus, newStatus)
	if err := m.repo.UpdateUserSubscriptionWithHistory(ctx, sub.ID, update, entry); err != nil {
		return err
	}
	m.publish(ctx, "expired", user.ID, plan, &oldStatus, newStatus, sub.EndAt)
	return nil
}

// lookupPlan resolves a plan by provider id. Absence is logged and
// reported as (nil, nil) so callers can drop the event.
func (m *Manager) lookupPlan(ctx context.Context, providerID string) (*domain.SubscriptionPlan, error) {
	plan, err := m.catalog.Lookup(ctx, providerID)
	if errors.Is(err, store.ErrPlanNotFound) {
		m.logger.Error().Str("provider_plan_id", providerID).Msg("subscription plan not found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// lookupBinding resolves the plan and the user's binding to it. Either
// one missing is logged and reported as (nil, nil, nil).
func (m *Manager) lookupBinding(ctx context.Context, user *domain.User, providerID string) (*domain.SubscriptionPlan, *domain.UserSubscription, error) {
	plan, err := m.lookupPlan(ctx, providerID)
	if plan == nil || err != nil {
		return nil, nil, err
	}

	sub, err := m.repo.FindUserSubscription(ctx, user.ID, plan.ID)
	if errors.Is(err, store.ErrUserSubscriptionNotFound) {
		m.logger.Error().
			Int64("user_id", user.ID).
			Int64("subscription_id", plan.ID).
			Msg("user subscription not found")
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return plan, sub, nil
}

// publish emits a billing event, best effort. Broker failures are logged
// and never fail the transition that already committed.
func (m *Manager) publish(ctx context.Context, action string, userID int64, plan *domain.SubscriptionPlan, oldStatus *domain.SubscriptionStatus, newStatus domain.SubscriptionStatus, endAt time.Time) {
	if m.publisher == nil {
		return
	}

	event := domain.BillingEvent{
		EventID:        uuid.NewString(),
		UserID:         userID,
		ProviderPlanID: plan.ProviderID,
		OldStatus:      oldStatus,
		NewStatus:      newStatus,
		EndAt:          endAt,
		OccurredAt:     m.clock.Now(),
	}
	if err := m.publisher.Publish(ctx, "billing.subscription."+action, event); err != nil {
		m.logger.Warn().Err(err).Str("action", action).Msg("failed to publish billing event")
	}
}
