package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saverr-hub/internal/domain"
	"github.com/saverr-hub/internal/pkg/id"
)

const fieldStatus = "status"

// statusConfirmed is the mini app's name for accepting an awaiting transaction.
const statusConfirmed = "CONFIRMED"

type Service interface {
	// ListForUser returns the caller's visible transactions, newest first.
	// Callers with no linked account get an empty list.
	ListForUser(ctx context.Context, telegramUserID int64) ([]domain.Transaction, error)
	Submit(ctx context.Context, telegramUserID int64, req domain.CreateTransactionRequest) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, telegramUserID int64, transactionID string, req domain.UpdateTransactionStatusRequest) (*domain.Transaction, error)
}

type userStore interface {
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.User, error)
}

type transactionStore interface {
	Get(ctx context.Context, transactionID string) (*domain.Transaction, error)
	Put(ctx context.Context, tx *domain.Transaction) error
	ListByUser(ctx context.Context, userID string) ([]domain.Transaction, error)
	Update(ctx context.Context, transactionID string, updates map[string]interface{}) error
}

type service struct {
	users userStore
	repo  transactionStore
	now   func() time.Time
}

type ServiceDeps struct {
	UserRepo        userStore
	TransactionRepo transactionStore
}

func NewService(deps ServiceDeps) Service {
	return &service{users: deps.UserRepo, repo: deps.TransactionRepo, now: time.Now}
}

func (s *service) ListForUser(ctx context.Context, telegramUserID int64) ([]domain.Transaction, error) {
	u, err := s.users.GetByTelegramID(ctx, telegramUserID)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, u.UserID)
}

func (s *service) Submit(ctx context.Context, telegramUserID int64, req domain.CreateTransactionRequest) (*domain.Transaction, error) {
	u, err := s.owner(ctx, telegramUserID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	tx := &domain.Transaction{
		TransactionID: id.New(),
		UserID:        u.UserID,
		Reference:     id.NewReference(),
		Amount:        req.Amount,
		Currency:      strings.ToUpper(req.Currency),
		Status:        domain.TxCreated,
		Recipient:     req.Recipient,
		Note:          req.Note,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Put(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// UpdateStatus applies a user decision. Notifications follow from the
// backend webhook the store emits for the change, not from this call.
func (s *service) UpdateStatus(ctx context.Context, telegramUserID int64, transactionID string, req domain.UpdateTransactionStatusRequest) (*domain.Transaction, error) {
	next := domain.ParseTransactionStatus(req.Status)
	if next == statusConfirmed {
		next = domain.TxProcessing
	}
	if next != domain.TxProcessing && next != domain.TxCancelled {
		return nil, fmt.Errorf("status %q cannot be set by the user: %w", req.Status, domain.ErrBadRequest)
	}

	u, err := s.owner(ctx, telegramUserID)
	if err != nil {
		return nil, err
	}
	tx, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != u.UserID {
		// Foreign transactions read as missing.
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	if tx.Status == next {
		return tx, nil
	}
	if !tx.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("transaction is %s, cannot move to %s: %w", tx.Status, next, domain.ErrConflict)
	}
	if err := s.repo.Update(ctx, transactionID, map[string]interface{}{fieldStatus: next}); err != nil {
		return nil, err
	}
	tx.Status = next
	tx.UpdatedAt = s.now().UTC()
	return tx, nil
}

func (s *service) owner(ctx context.Context, telegramUserID int64) (*domain.User, error) {
	u, err := s.users.GetByTelegramID(ctx, telegramUserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no account linked to this telegram user: %w", domain.ErrForbidden)
	}
	return u, err
}
