/**
 * @description
 * Wire types for the payment provider's webhook stream and for the
 * billing events this service publishes after processing them.
 */
package domain

import "time"

// WebhookType enumerates the provider's subscription lifecycle events.
type WebhookType string

const (
	WebhookSubscriptionCreated            WebhookType = "SUBSCRIPTION_CREATED"
	WebhookSubscriptionPurchaseSuccessful WebhookType = "SUBSCRIPTION_PURCHASE_SUCCESSFUL"
	WebhookSubscriptionRenewalSuccessful  WebhookType = "SUBSCRIPTION_RENEWAL_SUCCESSFUL"
	WebhookSubscriptionRenewalFailed      WebhookType = "SUBSCRIPTION_RENEWAL_FAILED"
	WebhookSubscriptionCanceled           WebhookType = "SUBSCRIPTION_CANCELED"
	WebhookSubscriptionExpired            WebhookType = "SUBSCRIPTION_EXPIRED"
	WebhookSubscriptionDeleted            WebhookType = "SUBSCRIPTION_DELETED"
)

// WebhookData is the payload carried by every provider lifecycle event.
// PaymentMethodID is only set on purchase events; Amount and
// BillingPeriod only on plan creation.
type WebhookData struct {
	CustomerEmail   string  `json:"customerEmail"`
	SubscriptionID  string  `json:"subscriptionId"`
	PaymentMethodID int64   `json:"paymentMethodId,omitempty"`
	Amount          float64 `json:"amount"`
	BillingPeriod   string  `json:"billingPeriod"`
}

// WebhookEvent is the envelope POSTed by the provider to
// /payments/webhook.
type WebhookEvent struct {
	Type WebhookType `json:"type"`
	Data WebhookData `json:"data"`
}

// BillingEvent is published to the message broker after a successful
// state transition so downstream services can react without polling the
// billing tables.
type BillingEvent struct {
	EventID        string              `json:"event_id"`
	UserID         int64               `json:"user_id"`
	ProviderPlanID string              `json:"provider_plan_id"`
	OldStatus      *SubscriptionStatus `json:"old_status,omitempty"`
	NewStatus      SubscriptionStatus  `json:"new_status"`
	EndAt          time.Time           `json:"end_at"`
	OccurredAt     time.Time           `json:"occurred_at"`
}
