// Package auth authenticates callers from a Telegram launch payload or from a
// session token issued in exchange for one.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/saverr-hub/internal/domain"
	jwtinfra "github.com/saverr-hub/internal/infrastructure/jwt"
	"github.com/saverr-hub/internal/pkg/initdata"
)

const (
	MethodInitData = "tma"
	MethodBearer   = "bearer"
)

type Service interface {
	// Authenticate verifies a raw launch payload. Errors are *initdata.Error.
	Authenticate(raw string) (domain.Identity, error)
	// VerifyToken checks a session token; failures wrap domain.ErrUnauthorized.
	VerifyToken(token string) (domain.Identity, error)
	IssueSession(ctx context.Context, id domain.Identity) (*domain.Session, error)
}

type tokenProvider interface {
	Sign(telegramUserID int64) (string, time.Time, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type service struct {
	botToken string
	maxAge   time.Duration
	tokens   tokenProvider
	now      func() time.Time
	logger   zerolog.Logger
}

// ServiceDeps wires the authenticator. Tokens is optional; without it only
// launch payloads are accepted.
type ServiceDeps struct {
	BotToken string
	MaxAge   time.Duration
	Tokens   tokenProvider
	Logger   zerolog.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		botToken: deps.BotToken,
		maxAge:   deps.MaxAge,
		tokens:   deps.Tokens,
		now:      time.Now,
		logger:   deps.Logger.With().Str("comp", "auth").Logger(),
	}
}

func (s *service) Authenticate(raw string) (domain.Identity, error) {
	claims, err := initdata.Validate(raw, s.botToken, initdata.WithMaxAge(s.maxAge), initdata.WithClock(s.now))
	if err != nil {
		s.logger.Debug().Str("reason", initdata.Reason(err)).Msg("launch payload rejected")
		return domain.Identity{}, err
	}
	return domain.Identity{
		TelegramUserID: claims.User.ID,
		Username:       claims.User.Username,
		FirstName:      claims.User.FirstName,
		Method:         MethodInitData,
	}, nil
}

func (s *service) VerifyToken(token string) (domain.Identity, error) {
	if s.tokens == nil {
		return domain.Identity{}, fmt.Errorf("session tokens disabled: %w", domain.ErrUnauthorized)
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("invalid session token: %w", domain.ErrUnauthorized)
	}
	return domain.Identity{TelegramUserID: claims.TelegramUserID, Method: MethodBearer}, nil
}

// IssueSession only exchanges launch payloads; a bearer token cannot be used
// to extend itself.
func (s *service) IssueSession(_ context.Context, id domain.Identity) (*domain.Session, error) {
	if s.tokens == nil {
		return nil, fmt.Errorf("session tokens disabled: %w", domain.ErrNotFound)
	}
	if id.Method != MethodInitData || id.TelegramUserID == 0 {
		return nil, fmt.Errorf("session requires a launch payload: %w", domain.ErrForbidden)
	}
	tok, exp, err := s.tokens.Sign(id.TelegramUserID)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &domain.Session{Token: tok, TelegramUserID: id.TelegramUserID, ExpiresAt: exp}, nil
}
