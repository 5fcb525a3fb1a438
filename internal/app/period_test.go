package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/transfa/billing-service/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateEndAt(t *testing.T) {
	tests := []struct {
		name   string
		period domain.BillingPeriod
		base   time.Time
		want   time.Time
	}{
		{
			name:   "monthly adds one calendar month",
			period: domain.BillingPeriodMonthly,
			base:   date(2024, time.March, 10),
			want:   date(2024, time.April, 10),
		},
		{
			name:   "yearly adds one calendar year",
			period: domain.BillingPeriodYearly,
			base:   date(2024, time.March, 10),
			want:   date(2025, time.March, 10),
		},
		{
			name:   "monthly overflow normalizes forward in a leap year",
			period: domain.BillingPeriodMonthly,
			base:   date(2024, time.January, 31),
			want:   date(2024, time.March, 2),
		},
		{
			name:   "monthly overflow normalizes forward in a common year",
			period: domain.BillingPeriodMonthly,
			base:   date(2023, time.January, 31),
			want:   date(2023, time.March, 3),
		},
		{
			name:   "yearly from leap day normalizes to March 1",
			period: domain.BillingPeriodYearly,
			base:   date(2024, time.February, 29),
			want:   date(2025, time.March, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateEndAt(tt.period, tt.base)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCalculateEndAtPreservesTimeOfDay(t *testing.T) {
	base := time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)
	got := calculateEndAt(domain.BillingPeriodMonthly, base)
	assert.Equal(t, time.Date(2024, time.July, 15, 9, 30, 0, 0, time.UTC), got)
}
