package http

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/saverr-hub/internal/application/notification"
	"github.com/saverr-hub/internal/application/webhook"
	"github.com/saverr-hub/internal/domain"
	jwtinfra "github.com/saverr-hub/internal/infrastructure/jwt"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByCorrelationID(ctx context.Context, correlationID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// TransactionRepository is the minimal interface the router requires from a transaction store.
type TransactionRepository interface {
	Get(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Put(ctx context.Context, tx *domain.Transaction) error
	// ListByUser returns the user's transactions newest first, CREATED excluded.
	ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error)
	Update(ctx context.Context, transactionID string, updates map[string]interface{}) error
}

// Archive stores raw change records.
type Archive interface {
	Archive(ctx context.Context, kind string, body []byte) (string, error)
}

// OnboardingProvider opens hosted verification sessions.
type OnboardingProvider interface {
	CreateSession(ctx context.Context, customerID string, metadata map[string]string) (string, error)
}

// TokenProvider signs and verifies session tokens.
type TokenProvider interface {
	Sign(telegramUserID int64) (string, time.Time, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

// Deps holds all infrastructure dependencies for the router. Optional
// dependencies are left nil to disable the feature they back.
type Deps struct {
	UserRepo        UserRepository
	TransactionRepo TransactionRepository
	Dispatcher      notification.Service // fans webhook events out to registry, chat and SMS
	Archive         Archive              // optional
	Onboarding      OnboardingProvider   // optional: mock onboarding URLs without it
	Tokens          TokenProvider        // optional: no bearer sessions without it
	Guard           webhook.Guard        // optional: every webhook call dispatches without it
	Logger          zerolog.Logger
}
