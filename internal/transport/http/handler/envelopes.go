package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/saverr-hub/internal/domain"
	"github.com/saverr-hub/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UserEnvelope carries the linked account; User is null when none is linked.
type UserEnvelope struct {
	User *domain.User `json:"user"`
}

type OnboardingEnvelope struct {
	OnboardingURL string `json:"onboardingUrl"`
}

type WalletEnvelope struct {
	OK bool `json:"ok"`
	domain.Wallet
}

type TransactionsEnvelope struct {
	Transactions []domain.Transaction `json:"transactions"`
}

type TransactionEnvelope struct {
	Transaction *domain.Transaction `json:"transaction"`
}

type AckEnvelope struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinels to status codes. Anything unrecognised is a 500.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// identity returns the caller or writes a 401.
func identity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok || id.TelegramUserID == 0 {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.Identity{}, false
	}
	return id, true
}
