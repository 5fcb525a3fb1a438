package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/transfa/billing-service/internal/domain"
	"github.com/transfa/billing-service/internal/store"
)

// billingRepoStub backs the state-machine tests. Entities are present
// when the corresponding field is set; writes are recorded for
// assertions.
type billingRepoStub struct {
	store.Repository

	user   *domain.User
	method *domain.PaymentMethod
	plan   *domain.SubscriptionPlan
	sub    *domain.UserSubscription

	createdPlan   *domain.SubscriptionPlan
	deletedPlanID int64
	createdSub    *domain.UserSubscription
	createdEntry  *domain.PaymentHistory
	updatedSubID  int64
	update        *store.UserSubscriptionUpdate
	updatedEntry  *domain.PaymentHistory
}

func (s *billingRepoStub) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, store.ErrUserNotFound
	}
	return s.user, nil
}

func (s *billingRepoStub) FindPaymentMethodByID(ctx context.Context, id int64) (*domain.PaymentMethod, error) {
	if s.method == nil || s.method.ID != id {
		return nil, store.ErrPaymentMethodNotFound
	}
	return s.method, nil
}

func (s *billingRepoStub) FindPlanByProviderID(ctx context.Context, providerID string) (*domain.SubscriptionPlan, error) {
	if s.plan == nil || s.plan.ProviderID != providerID {
		return nil, store.ErrPlanNotFound
	}
	return s.plan, nil
}

func (s *billingRepoStub) CreatePlan(ctx context.Context, plan *domain.SubscriptionPlan) error {
	plan.ID = 1
	s.createdPlan = plan
	return nil
}

func (s *billingRepoStub) DeletePlan(ctx context.Context, id int64) error {
	s.deletedPlanID = id
	return nil
}

func (s *billingRepoStub) FindUserSubscription(ctx context.Context, userID, subscriptionID int64) (*domain.UserSubscription, error) {
	if s.sub == nil || s.sub.UserID != userID || s.sub.SubscriptionID != subscriptionID {
		return nil, store.ErrUserSubscriptionNotFound
	}
	return s.sub, nil
}

func (s *billingRepoStub) CreateUserSubscriptionWithHistory(ctx context.Context, sub *domain.UserSubscription, entry *domain.PaymentHistory) error {
	sub.ID = 10
	s.createdSub = sub
	s.createdEntry = entry
	return nil
}

func (s *billingRepoStub) UpdateUserSubscriptionWithHistory(ctx context.Context, id int64, update store.UserSubscriptionUpdate, entry *domain.PaymentHistory) error {
	s.updatedSubID = id
	s.update = &update
	s.updatedEntry = entry
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestManager(repo *billingRepoStub, now time.Time) *Manager {
	catalog := NewCatalog(repo, nil, zerolog.Nop())
	ledger := NewLedger(repo)
	ledger.clock = fixedClock{now}
	manager := NewManager(repo, catalog, ledger, nil, zerolog.Nop())
	manager.clock = fixedClock{now}
	return manager
}

var testUser = &domain.User{ID: 7, Email: "u@x.com", Name: "Test User"}

func monthlyPlan() *domain.SubscriptionPlan {
	return &domain.SubscriptionPlan{
		ID:            3,
		Name:          "monthly Subscription",
		ProviderID:    "sub_1",
		Amount:        9.99,
		BillingPeriod: domain.BillingPeriodMonthly,
	}
}

func TestPurchase_CreatesActiveSubscriptionAndLedgerEntry(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := &billingRepoStub{
		user:   testUser,
		plan:   monthlyPlan(),
		method: &domain.PaymentMethod{ID: 1, UserID: 7, Type: "card"},
	}
	manager := newTestManager(repo, now)

	if err := manager.Purchase(context.Background(), testUser, "sub_1", 1); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if repo.createdSub == nil {
		t.Fatal("expected a user subscription to be created")
	}
	if repo.createdSub.Status != domain.SubscriptionStatusActive {
		t.Fatalf("expected status ACTIVE, got %q", repo.createdSub.Status)
	}
	if repo.createdSub.PaymentMethodID != 1 {
		t.Fatalf("expected payment method 1, got %d", repo.createdSub.PaymentMethodID)
	}
	wantEnd := time.Date(2024, time.April, 10, 12, 0, 0, 0, time.UTC)
	if !repo.createdSub.EndAt.Equal(wantEnd) {
		t.Fatalf("expected endAt %s, got %s", wantEnd, repo.createdSub.EndAt)
	}

	entry := repo.createdEntry
	if entry == nil {
		t.Fatal("expected a ledger entry")
	}
	if entry.OldStatus != nil {
		t.Fatalf("expected nil old status on first purchase, got %q", *entry.OldStatus)
	}
	if entry.NewStatus != domain.SubscriptionStatusActive {
		t.Fatalf("expected new status ACTIVE, got %q", entry.NewStatus)
	}
	if entry.Amount != 9.99 || entry.Currency != "USD" {
		t.Fatalf("expected 9.99 USD, got %v %s", entry.Amount, entry.Currency)
	}
	if !entry.PaymentDate.Equal(now) {
		t.Fatalf("expected payment date %s, got %s", now, entry.PaymentDate)
	}
}

func TestPurchase_MissingPaymentMethodWritesNothing(t *testing.T) {
	repo := &billingRepoStub{user: testUser, plan: monthlyPlan()}
	manager := newTestManager(repo, time.Now())

	if err := manager.Purchase(context.Background(), testUser, "sub_1", 99); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if repo.createdSub != nil || repo.createdEntry != nil || repo.update != nil {
		t.Fatal("expected no writes when the payment method is missing")
	}
}

func TestPurchase_MissingPlanWritesNothing(t *testing.T) {
	repo := &billingRepoStub{
		user:   testUser,
		method: &domain.PaymentMethod{ID: 1, UserID: 7, Type: "card"},
	}
	manager := newTestManager(repo, time.Now())

	if err := manager.Purchase(context.Background(), testUser, "sub_missing", 1); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if repo.createdSub != nil || repo.createdEntry != nil || repo.update != nil {
		t.Fatal("expected no writes when the plan is missing")
	}
}

func TestPurchase_ExistingSubscriptionReactivatesInPlace(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := &billingRepoStub{
		user:   testUser,
		plan:   monthlyPlan(),
		method: &domain.PaymentMethod{ID: 1, UserID: 7, Type: "card"},
		sub: &domain.UserSubscription{
			ID:             10,
			UserID:         7,
			SubscriptionID: 3,
			Status:         domain.SubscriptionStatusExpired,
			EndAt:          time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	manager := newTestManager(repo, now)

	if err := manager.Purchase(context.Background(), testUser, "sub_1", 1); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if repo.createdSub != nil {
		t.Fatal("expected no duplicate row for a repeated purchase")
	}
	if repo.updatedSubID != 10 {
		t.Fatalf("expected update of subscription 10, got %d", repo.updatedSubID)
	}
	if repo.update.Status == nil || *repo.update.Status != domain.SubscriptionStatusActive {
		t.Fatal("expected reactivation to ACTIVE")
	}
	wantEnd := time.Date(2024, time.April, 10, 12, 0, 0, 0, time.UTC)
	if repo.update.EndAt == nil || !repo.update.EndAt.Equal(wantEnd) {
		t.Fatalf("expected fresh period ending %s", wantEnd)
	}
	if repo.updatedEntry.OldStatus == nil || *repo.updatedEntry.OldStatus != domain.SubscriptionStatusExpired {
		t.Fatal("expected ledger entry recording the EXPIRED -> ACTIVE transition")
	}
}

func TestRenew_ExtendsFromPreviousEndAt(t *testing.T) {
	// Processed on Feb 20 against a period ending Jan 15: the new
	// boundary is Feb 15, not Mar 20.
	now := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)
	repo := &billingRepoStub{
		user: testUser,
		plan: monthlyPlan(),
		sub: &domain.UserSubscription{
			ID:             10,
			UserID:         7,
			SubscriptionID: 3,
			Status:         domain.SubscriptionStatusActive,
			EndAt:          time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
	}
	manager := newTestManager(repo, now)

	if err := manager.Renew(context.Background(), testUser, "sub_1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	wantEnd := time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)
	if repo.update == nil || repo.update.EndAt == nil || !repo.update.EndAt.Equal(wantEnd) {
		t.Fatalf("expected endAt %s, got %+v", wantEnd, repo.update)
	}
	if repo.update.Status != nil {
		t.Fatalf("expected renewal to leave the status field untouched, got %q", *repo.update.Status)
	}
	if repo.updatedEntry.NewStatus != domain.SubscriptionStatusActive {
		t.Fatalf("expected ledger transition to ACTIVE, got %q", repo.updatedEntry.NewStatus)
	}
}

func TestRenew_MissingUserSubscriptionWritesNothing(t *testing.T) {
	repo := &billingRepoStub{user: testUser, plan: monthlyPlan()}
	manager := newTestManager(repo, time.Now())

	if err := manager.Renew(context.Background(), testUser, "sub_1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if repo.update != nil || repo.updatedEntry != nil {
		t.Fatal("expected no writes when the user subscription is missing")
	}
}

func TestCancel_SetsEndAtToProcessingTime(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := &billingRepoStub{
		user: testUser,
		plan: monthlyPlan(),
		sub: &domain.UserSubscription{
			ID:             10,
			UserID:         7,
			SubscriptionID: 3,
			Status:         domain.SubscriptionStatusActive,
			EndAt:          time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	manager := newTestManager(repo, now)

	if err := manager.Cancel(context.Background(), testUser, "sub_1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if repo.update.Status == nil || *repo.update.Status != domain.SubscriptionStatusCanceled {
		t.Fatal("expected status CANCELED")
	}
	if repo.update.EndAt == nil || !repo.update.EndAt.Equal(now) {
		t.Fatalf("expected endAt to equal the processing time %s, got %+v", now, repo.update.EndAt)
	}
	if repo.updatedEntry.OldStatus == nil || *repo.updatedEntry.OldStatus != domain.SubscriptionStatusActive {
		t.Fatal("expected ledger entry recording the ACTIVE -> CANCELED transition")
	}
}

func TestExpire_LeavesEndAtUntouched(t *testing.T) {
	repo := &billingRepoStub{
		user: testUser,
		plan: monthlyPlan(),
		sub: &domain.UserSubscription{
			ID:             10,
			UserID:         7,
			SubscriptionID: 3,
			Status:         domain.SubscriptionStatusActive,
			EndAt:          time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	manager := newTestManager(repo, time.Now())

	if err := manager.Expire(context.Background(), testUser, "sub_1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if repo.update.Status == nil || *repo.update.Status != domain.SubscriptionStatusExpired {
		t.Fatal("expected status EXPIRED")
	}
	if repo.update.EndAt != nil {
		t.Fatalf("expected endAt to be left untouched, got %s", *repo.update.EndAt)
	}
	if repo.updatedEntry.NewStatus != domain.SubscriptionStatusExpired {
		t.Fatalf("expected ledger transition to EXPIRED, got %q", repo.updatedEntry.NewStatus)
	}
}
