package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/fanpost/kanva/internal/auth"
	"github.com/fanpost/kanva/internal/billing"
	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/service"
	"github.com/fanpost/kanva/internal/sportsdata"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
)

// =============================================================================
// Test Helpers
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testIdentity = &domain.Identity{
	ID:    uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	Email: "coach@example.com",
}

// fakeAuth stands in for the auth middleware: it attaches testIdentity.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(auth.SetIdentity(r.Context(), testIdentity)))
	})
}

// noAuth leaves the request anonymous.
func noAuth(next http.Handler) http.Handler { return next }

// serve routes one request through a mux configured by register.
func serve(register func(*http.ServeMux), method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	register(mux)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Mock Services
// =============================================================================

type mockTeamSlotService struct {
	ListSlotsFunc         func(ctx context.Context, ownerID uuid.UUID) ([]domain.TeamSlot, error)
	EnsureSlotFunc        func(ctx context.Context, ownerID uuid.UUID, team domain.TeamRef) (*domain.TeamSlot, bool, error)
	RebindSlotFunc        func(ctx context.Context, ownerID, slotID uuid.UUID, team domain.TeamRef) (*domain.TeamSlot, error)
	DeleteSlotFunc        func(ctx context.Context, ownerID, slotID uuid.UUID) error
	DaysUntilEditableFunc func(slot *domain.TeamSlot) int
}

func (m *mockTeamSlotService) ListSlots(ctx context.Context, ownerID uuid.UUID) ([]domain.TeamSlot, error) {
	if m.ListSlotsFunc != nil {
		return m.ListSlotsFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockTeamSlotService) EnsureSlot(ctx context.Context, ownerID uuid.UUID, team domain.TeamRef) (*domain.TeamSlot, bool, error) {
	if m.EnsureSlotFunc != nil {
		return m.EnsureSlotFunc(ctx, ownerID, team)
	}
	return nil, false, nil
}

func (m *mockTeamSlotService) RebindSlot(ctx context.Context, ownerID, slotID uuid.UUID, team domain.TeamRef) (*domain.TeamSlot, error) {
	if m.RebindSlotFunc != nil {
		return m.RebindSlotFunc(ctx, ownerID, slotID, team)
	}
	return nil, nil
}

func (m *mockTeamSlotService) DeleteSlot(ctx context.Context, ownerID, slotID uuid.UUID) error {
	if m.DeleteSlotFunc != nil {
		return m.DeleteSlotFunc(ctx, ownerID, slotID)
	}
	return nil
}

func (m *mockTeamSlotService) DaysUntilEditable(slot *domain.TeamSlot) int {
	if m.DaysUntilEditableFunc != nil {
		return m.DaysUntilEditableFunc(slot)
	}
	return 0
}

type mockCreditService struct {
	ConsumeCreditFunc    func(ctx context.Context, userID uuid.UUID) (bool, error)
	FetchBalanceFunc     func(ctx context.Context, userID uuid.UUID) (*domain.CreditBalance, error)
	ProvisionLedgerFunc  func(ctx context.Context, userID uuid.UUID) (*domain.CreditBalance, error)
	ListTransactionsFunc func(ctx context.Context, userID uuid.UUID, limit int) ([]domain.CreditTransaction, error)
}

func (m *mockCreditService) ConsumeCredit(ctx context.Context, userID uuid.UUID) (bool, error) {
	if m.ConsumeCreditFunc != nil {
		return m.ConsumeCreditFunc(ctx, userID)
	}
	return false, nil
}

func (m *mockCreditService) FetchBalance(ctx context.Context, userID uuid.UUID) (*domain.CreditBalance, error) {
	if m.FetchBalanceFunc != nil {
		return m.FetchBalanceFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockCreditService) ProvisionLedger(ctx context.Context, userID uuid.UUID) (*domain.CreditBalance, error) {
	if m.ProvisionLedgerFunc != nil {
		return m.ProvisionLedgerFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockCreditService) ResetMonthlyCredits(ctx context.Context, userID uuid.UUID) (*domain.CreditBalance, bool, error) {
	return nil, false, nil
}

func (m *mockCreditService) GrantPurchasedCredits(ctx context.Context, userID uuid.UUID, amount int, reference string) (*domain.CreditBalance, error) {
	return nil, nil
}

func (m *mockCreditService) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.CreditTransaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, userID, limit)
	}
	return nil, nil
}

type mockAccountService struct {
	GetAccountFunc    func(ctx context.Context, caller *domain.Identity) (*domain.Account, error)
	DeleteAccountFunc func(ctx context.Context, userID uuid.UUID) (*domain.DeletionResult, error)
}

func (m *mockAccountService) GetAccount(ctx context.Context, caller *domain.Identity) (*domain.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, caller)
	}
	return &domain.Account{UserID: caller.ID}, nil
}

func (m *mockAccountService) DeleteAccount(ctx context.Context, userID uuid.UUID) (*domain.DeletionResult, error) {
	if m.DeleteAccountFunc != nil {
		return m.DeleteAccountFunc(ctx, userID)
	}
	return &domain.DeletionResult{UserID: userID, IdentityRemoved: true}, nil
}

type mockTemplateService struct {
	service.TemplateService
	UploadAssetFunc func(ctx context.Context, ownerID, templateID uuid.UUID, filename, contentType string, data io.Reader) (*domain.TemplateAsset, error)
	GetTemplateFunc func(ctx context.Context, ownerID, templateID uuid.UUID) (*domain.Template, error)
}

func (m *mockTemplateService) UploadAsset(ctx context.Context, ownerID, templateID uuid.UUID, filename, contentType string, data io.Reader) (*domain.TemplateAsset, error) {
	return m.UploadAssetFunc(ctx, ownerID, templateID, filename, contentType, data)
}

func (m *mockTemplateService) GetTemplate(ctx context.Context, ownerID, templateID uuid.UUID) (*domain.Template, error) {
	return m.GetTemplateFunc(ctx, ownerID, templateID)
}

type mockSubscriptionService struct {
	service.SubscriptionService
	HandleSubscriptionEventFunc func(ctx context.Context, customerID string, sub *billing.Subscription) (*domain.SubscriptionSync, error)
	HandleCheckoutCompletedFunc func(ctx context.Context, c service.CheckoutCompletion) error
}

func (m *mockSubscriptionService) HandleSubscriptionEvent(ctx context.Context, customerID string, sub *billing.Subscription) (*domain.SubscriptionSync, error) {
	return m.HandleSubscriptionEventFunc(ctx, customerID, sub)
}

func (m *mockSubscriptionService) HandleCheckoutCompleted(ctx context.Context, c service.CheckoutCompletion) error {
	return m.HandleCheckoutCompletedFunc(ctx, c)
}

// mockBilling verifies any payload whose signature is "valid" and decodes
// it as the event.
type mockBilling struct {
	billing.Service
	VerifyWebhookSignatureFunc func(payload []byte, signature string) (stripe.Event, error)
}

func (m *mockBilling) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	return m.VerifyWebhookSignatureFunc(payload, signature)
}

type mockGateway struct {
	ClubTeamsFunc func(ctx context.Context, sport domain.Sport, clubID string) ([]sportsdata.Team, error)
}

func (m *mockGateway) ClubTeams(ctx context.Context, sport domain.Sport, clubID string) ([]sportsdata.Team, error) {
	return m.ClubTeamsFunc(ctx, sport, clubID)
}
