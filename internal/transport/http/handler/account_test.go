package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/saverr-hub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMe_MissingIdentity(t *testing.T) {
	svc := &mockAccountSvc{}
	rr := httptest.NewRecorder()
	NewAccountHandler(svc).Me(rr, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	svc.AssertNotCalled(t, "Me", mock.Anything, mock.Anything)
}

func TestMe_Unlinked_ReturnsNullUser(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Me", mock.Anything, callerID).Return(nil, domain.ErrNotFound)

	rr := httptest.NewRecorder()
	NewAccountHandler(svc).Me(rr, authedReq(http.MethodGet, "/v1/me", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"user":null}`, rr.Body.String())
	svc.AssertExpectations(t)
}

func TestMe_Linked(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Me", mock.Anything, callerID).Return(&domain.User{UserID: "u1", Phone: "+33600000000", TelegramUserID: callerID}, nil)

	rr := httptest.NewRecorder()
	NewAccountHandler(svc).Me(rr, authedReq(http.MethodGet, "/v1/me", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp UserEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.User)
	assert.Equal(t, "u1", resp.User.UserID)
}

func TestMe_StoreFailure(t *testing.T) {
	svc := &mockAccountSvc{}
	svc.On("Me", mock.Anything, callerID).Return(nil, errors.New("dynamo down"))

	rr := httptest.NewRecorder()
	NewAccountHandler(svc).Me(rr, authedReq(http.MethodGet, "/v1/me", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "dynamo")
}

func TestOnboard(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		setup  func(m *mockAccountSvc)
		status int
	}{
		{name: "invalid body", body: "not-json", status: http.StatusBadRequest},
		{name: "validation failure", body: `{"phone_number":"1"}`, status: http.StatusUnprocessableEntity},
		{
			name: "unknown phone",
			body: `{"phone_number":"+33600000000"}`,
			setup: func(m *mockAccountSvc) {
				m.On("Onboard", mock.Anything, callerID, domain.OnboardingRequest{PhoneNumber: "+33600000000"}).Return("", domain.ErrNotFound)
			},
			status: http.StatusNotFound,
		},
		{
			name: "phone linked elsewhere",
			body: `{"phone_number":"+33600000000"}`,
			setup: func(m *mockAccountSvc) {
				m.On("Onboard", mock.Anything, callerID, mock.Anything).Return("", domain.ErrConflict)
			},
			status: http.StatusConflict,
		},
		{
			name: "ok",
			body: `{"phone_number":"+33600000000"}`,
			setup: func(m *mockAccountSvc) {
				m.On("Onboard", mock.Anything, callerID, mock.Anything).Return("https://kyc.example/s/1", nil)
			},
			status: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAccountSvc{}
			if tt.setup != nil {
				tt.setup(svc)
			}
			rr := httptest.NewRecorder()
			NewAccountHandler(svc).Onboard(rr, authedReq(http.MethodPost, "/v1/onboarding", []byte(tt.body)))

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"onboardingUrl":"https://kyc.example/s/1"}`, rr.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestLinkWallet(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		setup  func(m *mockAccountSvc)
		status int
	}{
		{name: "invalid body", body: "{", status: http.StatusBadRequest},
		{name: "missing address", body: `{}`, status: http.StatusUnprocessableEntity},
		{
			name: "caller not linked",
			body: `{"address":"0xabc123"}`,
			setup: func(m *mockAccountSvc) {
				m.On("LinkWallet", mock.Anything, callerID, domain.WalletRequest{Address: "0xabc123"}).Return(nil, domain.ErrNotFound)
			},
			status: http.StatusNotFound,
		},
		{
			name: "ok",
			body: `{"address":"0xabc123"}`,
			setup: func(m *mockAccountSvc) {
				m.On("LinkWallet", mock.Anything, callerID, domain.WalletRequest{Address: "0xabc123"}).
					Return(&domain.Wallet{Address: "0xabc123", IBAN: "FR760123456789ABC1234567890123"}, nil)
			},
			status: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAccountSvc{}
			if tt.setup != nil {
				tt.setup(svc)
			}
			rr := httptest.NewRecorder()
			NewAccountHandler(svc).LinkWallet(rr, authedReq(http.MethodPost, "/v1/wallet", []byte(tt.body)))

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"ok":true,"address":"0xabc123","iban":"FR760123456789ABC1234567890123"}`, rr.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}
