/**
 * @description
 * The payment-history ledger. Entries are stamped here and written by the
 * repository in the same transaction as the user-subscription mutation
 * they describe; nothing ever updates or deletes them.
 */
package app

import (
	"context"

	"github.com/transfa/billing-service/internal/domain"
	"github.com/transfa/billing-service/internal/store"
)

// Currency is fixed in the current scope; the provider bills in USD only.
const ledgerCurrency = "USD"

// Ledger builds and reads the append-only payment history.
type Ledger struct {
	repo  store.Repository
	clock Clock
}

// NewLedger creates a ledger over the given repository.
func NewLedger(repo store.Repository) *Ledger {
	return &Ledger{repo: repo, clock: systemClock{}}
}

// Entry stamps a ledger record for a status transition. oldStatus is nil
// on a first purchase; the payment date is the processing instant.
func (l *Ledger) Entry(userID int64, plan *domain.SubscriptionPlan, oldStatus *domain.SubscriptionStatus, newStatus domain.SubscriptionStatus) *domain.PaymentHistory {
	return &domain.PaymentHistory{
		UserID:         userID,
		SubscriptionID: plan.ID,
		Amount:         plan.Amount,
		Currency:       ledgerCurrency,
		PaymentDate:    l.clock.Now(),
		OldStatus:      oldStatus,
		NewStatus:      newStatus,
	}
}

// History returns a user's ledger entries, newest first.
func (l *Ledger) History(ctx context.Context, userID int64) ([]domain.PaymentHistory, error) {
	return l.repo.ListPaymentHistory(ctx, userID)
}
