package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/transfa/billing-service/internal/app"
	"github.com/transfa/billing-service/internal/domain"
	"github.com/transfa/billing-service/internal/store"
)

// webhookRepoStub backs the handler tests with just enough of the
// repository surface to drive the dispatcher.
type webhookRepoStub struct {
	store.Repository

	user        *domain.User
	createdPlan *domain.SubscriptionPlan
}

func (s *webhookRepoStub) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, store.ErrUserNotFound
	}
	return s.user, nil
}

func (s *webhookRepoStub) CreatePlan(ctx context.Context, plan *domain.SubscriptionPlan) error {
	plan.ID = 1
	s.createdPlan = plan
	return nil
}

func newTestHandler(repo *webhookRepoStub) *Handler {
	logger := zerolog.Nop()
	catalog := app.NewCatalog(repo, nil, logger)
	ledger := app.NewLedger(repo)
	manager := app.NewManager(repo, catalog, ledger, nil, logger)
	service := app.NewService(repo, catalog, manager, ledger, logger)
	return NewHandler(service, logger)
}

func postWebhook(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.handleWebhook(rr, req)
	return rr
}

func TestHandleWebhook_InvalidJSONReturns400(t *testing.T) {
	h := newTestHandler(&webhookRepoStub{})
	rr := postWebhook(t, h, `{"type": `)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandleWebhook_ShapeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing type",
			body: `{"data":{"customerEmail":"u@x.com","subscriptionId":"sub_1"}}`,
		},
		{
			name: "missing customerEmail",
			body: `{"type":"SUBSCRIPTION_CANCELED","data":{"subscriptionId":"sub_1"}}`,
		},
		{
			name: "missing subscriptionId",
			body: `{"type":"SUBSCRIPTION_CANCELED","data":{"customerEmail":"u@x.com"}}`,
		},
		{
			name: "bad billing period on creation",
			body: `{"type":"SUBSCRIPTION_CREATED","data":{"customerEmail":"u@x.com","subscriptionId":"sub_1","amount":9.99,"billingPeriod":"weekly"}}`,
		},
	}

	h := newTestHandler(&webhookRepoStub{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postWebhook(t, h, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestHandleWebhook_UnknownCustomerStillAcknowledged(t *testing.T) {
	h := newTestHandler(&webhookRepoStub{})
	body := `{"type":"SUBSCRIPTION_CANCELED","data":{"customerEmail":"ghost@x.com","subscriptionId":"sub_1"}}`
	rr := postWebhook(t, h, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for a dropped event, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("expected ok acknowledgment, got %s", rr.Body.String())
	}
}

func TestHandleWebhook_CreatedEventStoresPlan(t *testing.T) {
	repo := &webhookRepoStub{user: &domain.User{ID: 7, Email: "u@x.com", Name: "Test User"}}
	h := newTestHandler(repo)

	body := `{"type":"SUBSCRIPTION_CREATED","data":{"customerEmail":"u@x.com","subscriptionId":"sub_1","amount":9.99,"billingPeriod":"monthly"}}`
	rr := postWebhook(t, h, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if repo.createdPlan == nil {
		t.Fatal("expected a plan to be created")
	}
	if repo.createdPlan.BillingPeriod != domain.BillingPeriodMonthly {
		t.Fatalf("expected billing period MONTHLY, got %q", repo.createdPlan.BillingPeriod)
	}
}
