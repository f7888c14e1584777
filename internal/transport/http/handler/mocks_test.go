package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/saverr-hub/internal/application/webhook"
	"github.com/saverr-hub/internal/domain"
	"github.com/saverr-hub/internal/transport/http/middleware"
	"github.com/stretchr/testify/mock"
)

// --- mocks ---

type mockAccountSvc struct{ mock.Mock }

func (m *mockAccountSvc) Me(ctx context.Context, telegramUserID int64) (*domain.User, error) {
	args := m.Called(ctx, telegramUserID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccountSvc) Onboard(ctx context.Context, telegramUserID int64, req domain.OnboardingRequest) (string, error) {
	args := m.Called(ctx, telegramUserID, req)
	return args.String(0), args.Error(1)
}

func (m *mockAccountSvc) LinkWallet(ctx context.Context, telegramUserID int64, req domain.WalletRequest) (*domain.Wallet, error) {
	args := m.Called(ctx, telegramUserID, req)
	if w, _ := args.Get(0).(*domain.Wallet); w != nil {
		return w, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTransactionSvc struct{ mock.Mock }

func (m *mockTransactionSvc) ListForUser(ctx context.Context, telegramUserID int64) ([]domain.Transaction, error) {
	args := m.Called(ctx, telegramUserID)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *mockTransactionSvc) Submit(ctx context.Context, telegramUserID int64, req domain.CreateTransactionRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, telegramUserID, req)
	if tx, _ := args.Get(0).(*domain.Transaction); tx != nil {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactionSvc) UpdateStatus(ctx context.Context, telegramUserID int64, transactionID string, req domain.UpdateTransactionStatusRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, telegramUserID, transactionID, req)
	if tx, _ := args.Get(0).(*domain.Transaction); tx != nil {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockWebhookSvc struct{ mock.Mock }

func (m *mockWebhookSvc) Route(ctx context.Context, rec webhook.ChangeRecord) error {
	return m.Called(ctx, rec).Error(0)
}

type mockArchiver struct{ mock.Mock }

func (m *mockArchiver) Archive(ctx context.Context, kind string, body []byte) (string, error) {
	args := m.Called(ctx, kind, body)
	return args.String(0), args.Error(1)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) IssueSession(ctx context.Context, id domain.Identity) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

const callerID int64 = 42

// authedReq builds a request carrying the caller identity, as the auth
// middleware would leave it.
func authedReq(method, target string, body []byte) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	id := domain.Identity{TelegramUserID: callerID, Method: "tma"}
	return r.WithContext(middleware.WithIdentity(r.Context(), id))
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
