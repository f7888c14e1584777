package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/saverr-hub/internal/application/webhook"
	"github.com/saverr-hub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func postWebhook(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
	return rr
}

func TestWebhookTransactions_RoutesTypedRecord(t *testing.T) {
	svc := &mockWebhookSvc{}
	svc.On("Route", mock.Anything, mock.MatchedBy(func(rec webhook.ChangeRecord) bool {
		return rec.Type == webhook.TypeTransaction &&
			rec.Record["status"] == "COMPLETED" &&
			rec.Record["amount"] == json.Number("125.5")
	})).Return(nil)
	h := NewWebhookHandler(svc, nil, zerolog.Nop())

	rr := postWebhook(h.Transactions, `{"record":{"status":"COMPLETED","amount":125.5,"user":"u1"}}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
	svc.AssertExpectations(t)
}

func TestWebhookUsers_OverridesType(t *testing.T) {
	svc := &mockWebhookSvc{}
	svc.On("Route", mock.Anything, mock.MatchedBy(func(rec webhook.ChangeRecord) bool {
		return rec.Type == webhook.TypeUser
	})).Return(nil)
	h := NewWebhookHandler(svc, nil, zerolog.Nop())

	rr := postWebhook(h.Users, `{"type":"transaction","record":{"kyc_status":"APPROVED"}}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestWebhook_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		routeErr error
		status   int
	}{
		{name: "invalid json", body: "{", status: http.StatusBadRequest},
		{name: "missing record", body: `{"type":"user"}`, routeErr: fmt.Errorf("missing record: %w", domain.ErrBadRequest), status: http.StatusBadRequest},
		{name: "unexpected failure", body: `{"type":"user","record":{}}`, routeErr: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockWebhookSvc{}
			if tt.routeErr != nil {
				svc.On("Route", mock.Anything, mock.Anything).Return(tt.routeErr)
			}
			rr := postWebhook(NewWebhookHandler(svc, nil, zerolog.Nop()).Generic, tt.body)
			assert.Equal(t, tt.status, rr.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestWebhook_ArchivesRawBody(t *testing.T) {
	body := `{"type":"verification","record":{"kyc_status":"APPROVED","user_id":"u1"}}`
	svc := &mockWebhookSvc{}
	svc.On("Route", mock.Anything, mock.Anything).Return(nil)
	arch := &mockArchiver{}
	arch.On("Archive", mock.Anything, webhook.TypeVerification, []byte(body)).Return("s3://bucket/key.json", nil)

	rr := postWebhook(NewWebhookHandler(svc, arch, zerolog.Nop()).Generic, body)

	assert.Equal(t, http.StatusOK, rr.Code)
	arch.AssertExpectations(t)
}

func TestWebhook_ArchiveFailureDoesNotFailAck(t *testing.T) {
	svc := &mockWebhookSvc{}
	svc.On("Route", mock.Anything, mock.Anything).Return(nil)
	arch := &mockArchiver{}
	arch.On("Archive", mock.Anything, "unknown", mock.Anything).Return("", errors.New("s3 down"))

	rr := postWebhook(NewWebhookHandler(svc, arch, zerolog.Nop()).Generic, `{"type":"../../etc","record":{}}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	arch.AssertExpectations(t)
	svc.AssertExpectations(t)
}
