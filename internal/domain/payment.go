/**
 * @description
 * Append-only payment history model. Every successful state transition
 * writes exactly one ledger entry in the same transaction as the
 * user-subscription mutation it describes.
 */
package domain

import "time"

// PaymentHistory is one immutable ledger entry recording a subscription
// status transition and the amount charged. OldStatus is nil on the very
// first purchase. Entries are never updated or deleted.
type PaymentHistory struct {
	ID             int64               `json:"id"`
	UserID         int64               `json:"user_id"`
	SubscriptionID int64               `json:"subscription_id"`
	Amount         float64             `json:"amount"`
	Currency       string              `json:"currency"`
	PaymentDate    time.Time           `json:"payment_date"`
	OldStatus      *SubscriptionStatus `json:"old_status,omitempty"`
	NewStatus      SubscriptionStatus  `json:"new_status"`
}
