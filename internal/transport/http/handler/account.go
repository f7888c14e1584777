package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/saverr-hub/internal/application/account"
	"github.com/saverr-hub/internal/domain"
	"github.com/saverr-hub/internal/pkg/validate"
)

// AccountHandler serves the caller's own account, onboarding and wallet.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler { return &AccountHandler{svc: svc} }

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Me(r.Context(), id.TelegramUserID)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusOK, UserEnvelope{})
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{User: u})
}

func (h *AccountHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req domain.OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	url, err := h.svc.Onboard(r.Context(), id.TelegramUserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OnboardingEnvelope{OnboardingURL: url})
}

func (h *AccountHandler) LinkWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req domain.WalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	wallet, err := h.svc.LinkWallet(r.Context(), id.TelegramUserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, WalletEnvelope{OK: true, Wallet: *wallet})
}
