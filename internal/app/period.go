/**
 * @description
 * Billing-period arithmetic and the clock abstraction that keeps it
 * deterministic under test.
 */
package app

import (
	"time"

	"github.com/transfa/billing-service/internal/domain"
)

// Clock supplies the processing instant. Injected so tests can pin "now".
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// calculateEndAt advances base by one billing period. The base is "now"
// for a purchase and the previous period boundary for a renewal, so late
// renewal events still produce contiguous coverage.
//
// Calendar overflow follows time.AddDate normalization: Jan 31 + 1 month
// lands in early March rather than being clamped to the end of February.
func calculateEndAt(period domain.BillingPeriod, base time.Time) time.Time {
	switch period {
	case domain.BillingPeriodMonthly:
		return base.AddDate(0, 1, 0)
	case domain.BillingPeriodYearly:
		return base.AddDate(1, 0, 0)
	default:
		return base
	}
}
