package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/saverr-hub/internal/domain"
	"github.com/saverr-hub/internal/pkg/initdata"
)

type contextKey string

const IdentityKey contextKey = "identity"

const (
	schemeInitData = "tma "
	schemeBearer   = "Bearer "
)

type authenticator interface {
	Authenticate(raw string) (domain.Identity, error)
	VerifyToken(token string) (domain.Identity, error)
}

// Auth accepts "Authorization: tma <init data>" or "Authorization: Bearer <jwt>"
// and injects the resulting identity into the request context.
func Auth(a authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			var (
				id  domain.Identity
				err error
			)
			switch {
			case strings.HasPrefix(header, schemeInitData):
				id, err = a.Authenticate(strings.TrimPrefix(header, schemeInitData))
			case strings.HasPrefix(header, schemeBearer):
				id, err = a.VerifyToken(strings.TrimPrefix(header, schemeBearer))
			default:
				err = initdata.ErrMissingInitData
			}
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, initdata.Reason(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// IdentityFromContext extracts the authenticated identity from the request context.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(domain.Identity)
	return id, ok
}

// writeJSONError writes {"error": reason}.
func writeJSONError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": reason})
}
