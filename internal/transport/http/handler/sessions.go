package handler

import (
	"context"
	"net/http"

	"github.com/saverr-hub/internal/domain"
)

type sessionIssuer interface {
	IssueSession(ctx context.Context, id domain.Identity) (*domain.Session, error)
}

// SessionHandler exchanges a launch payload for a bearer token.
type SessionHandler struct {
	svc sessionIssuer
}

func NewSessionHandler(svc sessionIssuer) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.IssueSession(r.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}
