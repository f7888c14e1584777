package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/saverr-hub/internal/application/webhook"
	"github.com/saverr-hub/internal/domain"
)

const maxWebhookBody = 1 << 20

type archiver interface {
	Archive(ctx context.Context, kind string, body []byte) (string, error)
}

// WebhookHandler receives backend change records. A record is acknowledged
// once routed; only malformed payloads are rejected.
type WebhookHandler struct {
	svc     webhook.Service
	archive archiver
	logger  zerolog.Logger
}

// NewWebhookHandler wires the handler; archive may be nil.
func NewWebhookHandler(svc webhook.Service, archive archiver, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, archive: archive, logger: logger.With().Str("comp", "webhook.http").Logger()}
}

// Transactions accepts {"record": {...}} for the transactions collection.
func (h *WebhookHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, webhook.TypeTransaction)
}

// Users accepts {"record": {...}} for the users collection.
func (h *WebhookHandler) Users(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, webhook.TypeUser)
}

// Generic accepts {"type": "...", "record": {...}}.
func (h *WebhookHandler) Generic(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "")
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request, kind string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	var rec webhook.ChangeRecord
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if kind != "" {
		rec.Type = kind
	}
	h.archiveRaw(r.Context(), rec.Type, body)

	if err := h.svc.Route(r.Context(), rec); err != nil {
		if errors.Is(err, domain.ErrBadRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("type", rec.Type).Msg("route change record")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, AckEnvelope{OK: true})
}

func (h *WebhookHandler) archiveRaw(ctx context.Context, kind string, body []byte) {
	if h.archive == nil {
		return
	}
	switch kind {
	case webhook.TypeTransaction, webhook.TypeUser, webhook.TypeVerification:
	default:
		kind = "unknown"
	}
	uri, err := h.archive.Archive(ctx, kind, body)
	if err != nil {
		h.logger.Warn().Err(err).Str("type", kind).Msg("archive change record")
		return
	}
	h.logger.Debug().Str("uri", uri).Msg("change record archived")
}
