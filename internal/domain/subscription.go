/**
 * @description
 * This file defines the core domain models for the billing-service: the
 * subscription plan catalog mirrored from the payment provider and the
 * per-user subscription state it drives.
 */
package domain

import (
	"strings"
	"time"
)

// BillingPeriod is the recurrence interval of a subscription plan.
type BillingPeriod string

const (
	BillingPeriodMonthly BillingPeriod = "MONTHLY"
	BillingPeriodYearly  BillingPeriod = "YEARLY"
)

// ParseBillingPeriod normalizes the provider's period values
// ("monthly"/"yearly", any casing) to the internal enum.
func ParseBillingPeriod(raw string) (BillingPeriod, bool) {
	switch BillingPeriod(strings.ToUpper(strings.TrimSpace(raw))) {
	case BillingPeriodMonthly:
		return BillingPeriodMonthly, true
	case BillingPeriodYearly:
		return BillingPeriodYearly, true
	}
	return "", false
}

// SubscriptionStatus is the lifecycle state of a user's subscription.
// EXPIRED is not terminal: a later successful renewal reactivates it.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
	SubscriptionStatusExpired  SubscriptionStatus = "EXPIRED"
)

// SubscriptionPlan is a billable plan mirrored from the payment provider.
// ProviderID is the provider's own identifier for the plan and the only
// stable join key from the incoming event stream.
type SubscriptionPlan struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	ProviderID    string        `json:"provider_id"`
	Amount        float64       `json:"amount"`
	BillingPeriod BillingPeriod `json:"billing_period"`
}

// UserSubscription binds one user to one plan and carries the current
// status plus the end of the paid-for period. At most one row exists per
// (user, plan) pair; the row is mutated in place, never recreated.
type UserSubscription struct {
	ID              int64              `json:"id"`
	UserID          int64              `json:"user_id"`
	SubscriptionID  int64              `json:"subscription_id"`
	Status          SubscriptionStatus `json:"status"`
	PaymentMethodID int64              `json:"payment_method_id"`
	EndAt           time.Time          `json:"end_at"`
}
