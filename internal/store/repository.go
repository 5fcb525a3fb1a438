/**
 * @description
 * This file defines the persistence contract the billing core depends on,
 * together with the sentinel errors that distinguish business "not found"
 * outcomes from storage faults. The core recovers the former locally and
 * lets the latter bubble to the HTTP boundary.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/transfa/billing-service/internal/domain"
)

var (
	ErrUserNotFound              = errors.New("user not found")
	ErrPaymentMethodNotFound     = errors.New("payment method not found")
	ErrPlanNotFound              = errors.New("subscription plan not found")
	ErrUserSubscriptionNotFound  = errors.New("user subscription not found")
	ErrDuplicatePlan             = errors.New("subscription plan already exists")
	ErrDuplicateUserSubscription = errors.New("user subscription already exists")
)

// UserSubscriptionUpdate is a partial update applied to a user
// subscription row. Nil fields are left untouched.
type UserSubscriptionUpdate struct {
	Status *domain.SubscriptionStatus
	EndAt  *time.Time
}

// Repository defines the database operations the billing core needs.
// The two WithHistory methods mutate the user subscription and append the
// matching ledger entry in a single transaction: either both persist or
// neither does.
type Repository interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindPaymentMethodByID(ctx context.Context, id int64) (*domain.PaymentMethod, error)

	FindPlanByProviderID(ctx context.Context, providerID string) (*domain.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, plan *domain.SubscriptionPlan) error
	DeletePlan(ctx context.Context, id int64) error

	FindUserSubscription(ctx context.Context, userID, subscriptionID int64) (*domain.UserSubscription, error)
	ListUserSubscriptions(ctx context.Context, userID int64) ([]domain.UserSubscription, error)
	CreateUserSubscriptionWithHistory(ctx context.Context, sub *domain.UserSubscription, entry *domain.PaymentHistory) error
	UpdateUserSubscriptionWithHistory(ctx context.Context, id int64, update UserSubscriptionUpdate, entry *domain.PaymentHistory) error

	ListPaymentHistory(ctx context.Context, userID int64) ([]domain.PaymentHistory, error)
}
