/**
 * @description
 * The subscription plan catalog. Plans are mirrored from the payment
 * provider's SUBSCRIPTION_CREATED / SUBSCRIPTION_DELETED events and
 * looked up by the provider's own plan id on every other event.
 */
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/transfa/billing-service/internal/domain"
	"github.com/transfa/billing-service/internal/store"
)

// PlanCache caches plan lookups by provider id. A nil cache disables
// caching; implementations must tolerate being skipped entirely.
type PlanCache interface {
	Get(ctx context.Context, providerID string) (*domain.SubscriptionPlan, bool)
	Set(ctx context.Context, plan *domain.SubscriptionPlan)
	Invalidate(ctx context.Context, providerID string)
}

// Catalog owns the subscription plan records.
type Catalog struct {
	repo   store.Repository
	cache  PlanCache
	logger zerolog.Logger
}

// NewCatalog creates a catalog. cache may be nil.
func NewCatalog(repo store.Repository, cache PlanCache, logger zerolog.Logger) *Catalog {
	return &Catalog{repo: repo, cache: cache, logger: logger}
}

// Create mirrors a provider plan locally. The billing period is
// normalized to uppercase; duplicate provider ids are a storage concern
// and surface as a fault.
func (c *Catalog) Create(ctx context.Context, providerID string, amount float64, rawPeriod string) error {
	period, ok := domain.ParseBillingPeriod(rawPeriod)
	if !ok {
		return fmt.Errorf("unknown billing period %q", rawPeriod)
	}

	plan := &domain.SubscriptionPlan{
		Name:          fmt.Sprintf("%s Subscription", rawPeriod),
		ProviderID:    providerID,
		Amount:        amount,
		BillingPeriod: period,
	}
	if err := c.repo.CreatePlan(ctx, plan); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Set(ctx, plan)
	}

	c.logger.Info().Str("provider_plan_id", providerID).Str("billing_period", string(period)).Msg("created subscription plan")
	return nil
}

// Delete removes the plan the provider id refers to. A missing plan is a
// logged no-op, not an error.
func (c *Catalog) Delete(ctx context.Context, providerID string) error {
	plan, err := c.repo.FindPlanByProviderID(ctx, providerID)
	if errors.Is(err, store.ErrPlanNotFound) {
		c.logger.Error().Str("provider_plan_id", providerID).Msg("subscription plan not found")
		return nil
	}
	if err != nil {
		return err
	}

	if err := c.repo.DeletePlan(ctx, plan.ID); err != nil && !errors.Is(err, store.ErrPlanNotFound) {
		return err
	}
	if c.cache != nil {
		c.cache.Invalidate(ctx, providerID)
	}

	c.logger.Info().Str("provider_plan_id", providerID).Msg("deleted subscription plan")
	return nil
}

// Lookup returns the plan for a provider id, consulting the cache first.
// Absence is reported as store.ErrPlanNotFound, never as a fault.
func (c *Catalog) Lookup(ctx context.Context, providerID string) (*domain.SubscriptionPlan, error) {
	if c.cache != nil {
		if plan, ok := c.cache.Get(ctx, providerID); ok {
			return plan, nil
		}
	}

	plan, err := c.repo.FindPlanByProviderID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(ctx, plan)
	}
	return plan, nil
}
