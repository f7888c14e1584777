package account

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/saverr-hub/internal/domain"
	"github.com/saverr-hub/internal/pkg/id"
)

const mockOnboardingURL = "https://mock-kyc.saverr.io/onboarding"

// DynamoDB attribute names used in partial update maps.
const (
	fieldTelegramUserID = "telegram_user_id"
	fieldCorrelationID  = "correlation_id"
	fieldWalletAddress  = "user_tw_eoa"
	fieldIBAN           = "iban"
)

// Mock IBANs keep the French prefix and a fixed tail around ten random
// characters.
const (
	mockIBANPrefix = "FR76"
	mockIBANSuffix = "1234567890123"
)

type Service interface {
	// Me returns the account linked to telegramUserID; ErrNotFound when none is.
	Me(ctx context.Context, telegramUserID int64) (*domain.User, error)
	// Onboard links the caller to the account owning the phone number and
	// returns the hosted verification URL.
	Onboard(ctx context.Context, telegramUserID int64, req domain.OnboardingRequest) (string, error)
	// LinkWallet stores the caller's wallet address and issues a mock IBAN.
	LinkWallet(ctx context.Context, telegramUserID int64, req domain.WalletRequest) (*domain.Wallet, error)
}

type userStore interface {
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type onboardingProvider interface {
	CreateSession(ctx context.Context, customerID string, metadata map[string]string) (string, error)
}

type service struct {
	repo     userStore
	provider onboardingProvider
	logger   zerolog.Logger
}

// ServiceDeps wires the account service. Provider is optional; without it
// onboarding returns mock URLs.
type ServiceDeps struct {
	UserRepo userStore
	Provider onboardingProvider
	Logger   zerolog.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.UserRepo,
		provider: deps.Provider,
		logger:   deps.Logger.With().Str("comp", "account").Logger(),
	}
}

func (s *service) Me(ctx context.Context, telegramUserID int64) (*domain.User, error) {
	return s.repo.GetByTelegramID(ctx, telegramUserID)
}

func (s *service) Onboard(ctx context.Context, telegramUserID int64, req domain.OnboardingRequest) (string, error) {
	if telegramUserID == 0 {
		return "", fmt.Errorf("caller has no telegram identity: %w", domain.ErrUnauthorized)
	}
	u, err := s.repo.GetByPhone(ctx, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("no account for phone number: %w", domain.ErrNotFound)
		}
		return "", err
	}
	if u.TelegramUserID != 0 && u.TelegramUserID != telegramUserID {
		return "", fmt.Errorf("account already linked to another telegram user: %w", domain.ErrConflict)
	}
	if u.TelegramUserID != telegramUserID {
		linked, err := s.repo.GetByTelegramID(ctx, telegramUserID)
		switch {
		case err == nil && linked.UserID != u.UserID:
			return "", fmt.Errorf("telegram user already linked to account %s: %w", linked.UserID, domain.ErrConflict)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return "", err
		}
	}

	updates := map[string]interface{}{}
	if u.TelegramUserID != telegramUserID {
		updates[fieldTelegramUserID] = telegramUserID
	}
	if u.CorrelationID == "" {
		u.CorrelationID = id.New()
		updates[fieldCorrelationID] = u.CorrelationID
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, u.UserID, updates); err != nil {
			return "", fmt.Errorf("link account: %w", err)
		}
	}

	if s.provider == nil {
		s.logger.Info().Int64("telegram_user_id", telegramUserID).Msg("mock onboarding url issued")
		return mockURL(telegramUserID, req.PhoneNumber), nil
	}
	hosted, err := s.provider.CreateSession(ctx, u.CorrelationID, map[string]string{
		"user_id":          u.UserID,
		"telegram_user_id": strconv.FormatInt(telegramUserID, 10),
	})
	if err != nil {
		return "", fmt.Errorf("create onboarding session: %w", err)
	}
	return hosted, nil
}

func (s *service) LinkWallet(ctx context.Context, telegramUserID int64, req domain.WalletRequest) (*domain.Wallet, error) {
	if telegramUserID == 0 {
		return nil, fmt.Errorf("caller has no telegram identity: %w", domain.ErrUnauthorized)
	}
	u, err := s.repo.GetByTelegramID(ctx, telegramUserID)
	if err != nil {
		return nil, err
	}
	w := &domain.Wallet{Address: req.Address, IBAN: mockIBAN()}
	if err := s.repo.Update(ctx, u.UserID, map[string]interface{}{
		fieldWalletAddress: w.Address,
		fieldIBAN:          w.IBAN,
	}); err != nil {
		return nil, fmt.Errorf("link wallet: %w", err)
	}
	s.logger.Info().Int64("telegram_user_id", telegramUserID).Str("address", w.Address).Msg("mock wallet linked")
	return w, nil
}

func mockIBAN() string {
	ref := id.New()
	return mockIBANPrefix + ref[len(ref)-10:] + mockIBANSuffix
}

func mockURL(telegramUserID int64, phone string) string {
	q := url.Values{}
	q.Set("telegram_user_id", strconv.FormatInt(telegramUserID, 10))
	q.Set("phone", phone)
	return mockOnboardingURL + "?" + q.Encode()
}
