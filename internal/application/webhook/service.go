// Package webhook turns backend change records into notification events.
package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/saverr-hub/internal/application/notification"
	"github.com/saverr-hub/internal/domain"
)

const fieldKYCStatus = "kyc_status"

// Service routes one change record per call. Only malformed records are
// reported back; resolution and delivery problems are logged and swallowed
// because a redelivery would not fix them.
type Service interface {
	Route(ctx context.Context, rec ChangeRecord) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.User, error)
	GetByCorrelationID(ctx context.Context, correlationID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type transactionStore interface {
	Get(ctx context.Context, transactionID string) (*domain.Transaction, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, e domain.NotificationEvent) notification.DeliveryReport
}

// Guard suppresses notifications for a status already notified under key.
type Guard interface {
	Claim(ctx context.Context, key, status string) (bool, error)
}

type service struct {
	users      userStore
	txs        transactionStore
	dispatcher dispatcher
	guard      Guard
	logger     zerolog.Logger
}

// ServiceDeps wires the router. Guard is optional; without it every call is
// dispatched (at-least-once per call).
type ServiceDeps struct {
	UserRepo        userStore
	TransactionRepo transactionStore
	Dispatcher      dispatcher
	Guard           Guard
	Logger          zerolog.Logger
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:      deps.UserRepo,
		txs:        deps.TransactionRepo,
		dispatcher: deps.Dispatcher,
		guard:      deps.Guard,
		logger:     deps.Logger.With().Str("comp", "webhook.router").Logger(),
	}
}

func (s *service) Route(ctx context.Context, rec ChangeRecord) error {
	if rec.Record == nil {
		return fmt.Errorf("missing record: %w", domain.ErrBadRequest)
	}
	switch rec.Type {
	case TypeTransaction:
		return s.routeTransaction(ctx, rec)
	case TypeUser, TypeVerification:
		return s.routeVerification(ctx, rec)
	}
	s.logger.Debug().Str("type", rec.Type).Msg("unhandled record type, ignored")
	return nil
}

func (s *service) routeTransaction(ctx context.Context, rec ChangeRecord) error {
	status := domain.ParseTransactionStatus(rec.str("status"))
	if status == "" {
		s.logger.Debug().Str("tx", rec.str("id", "transaction_id")).Msg("transaction record without status, ignored")
		return nil
	}
	payload := domain.TransactionPayload{
		TransactionID: rec.str("id", "transaction_id"),
		Reference:     rec.str("reference"),
		Amount:        rec.float("amount"),
		Currency:      rec.str("currency"),
		Status:        status,
	}
	userID := rec.str("user", "user_id")
	log := s.logger.With().Str("tx", payload.TransactionID).Str("status", string(status)).Logger()

	// Partial records (status-only updates) are completed from the store.
	if payload.TransactionID != "" && (userID == "" || payload.Reference == "") && s.txs != nil {
		tx, err := s.txs.Get(ctx, payload.TransactionID)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("could not load transaction")
		default:
			if userID == "" {
				userID = tx.UserID
			}
			if payload.Reference == "" {
				payload.Reference = tx.Reference
			}
			if payload.Amount == 0 {
				payload.Amount = tx.Amount
			}
			if payload.Currency == "" {
				payload.Currency = tx.Currency
			}
		}
	}
	if userID == "" {
		log.Warn().Msg("transaction record has no user, dropped")
		return nil
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		log.Info().Err(err).Str("user", userID).Msg("transaction owner not resolved, dropped")
		return nil
	}
	if !user.Linked() {
		log.Info().Str("user", userID).Msg("no Telegram for user, dropped")
		return nil
	}

	key := payload.TransactionID
	if key == "" {
		key = payload.Reference
	}
	if !s.claim(ctx, "tx:"+key, string(status)) {
		log.Debug().Msg("status already notified")
		return nil
	}
	s.dispatch(ctx, domain.NewTransactionEvent(user.TelegramUserID, payload))
	return nil
}

func (s *service) routeVerification(ctx context.Context, rec ChangeRecord) error {
	status := domain.ParseVerificationStatus(rec.str(fieldKYCStatus, "status"))
	if status == "" {
		s.logger.Debug().Str("user", rec.str("id")).Msg("user record without kyc_status, ignored")
		return nil
	}
	log := s.logger.With().Str("user", rec.str("id")).Str("status", string(status)).Logger()

	user, err := s.resolveUser(ctx, rec)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Warn().Err(err).Msg("user lookup failed")
	}

	subject := rec.number("telegram_user_id")
	if user != nil {
		if user.TelegramUserID != 0 {
			subject = user.TelegramUserID
		}
		if user.KYCStatus != status {
			if err := s.users.Update(ctx, user.UserID, map[string]interface{}{fieldKYCStatus: status}); err != nil {
				log.Warn().Err(err).Msg("could not persist kyc status")
			}
		}
	}
	if subject == 0 {
		log.Info().Msg("verification subject not linked, dropped")
		return nil
	}

	key := fmt.Sprintf("kyc:%d", subject)
	if user != nil {
		key = "kyc:" + user.UserID
	}
	if !s.claim(ctx, key, string(status)) {
		log.Debug().Msg("status already notified")
		return nil
	}
	s.dispatch(ctx, domain.NewVerificationEvent(subject, status))
	return nil
}

// resolveUser tries the internal id, then the provider correlation id, then
// the messaging identity carried by the record.
func (s *service) resolveUser(ctx context.Context, rec ChangeRecord) (*domain.User, error) {
	err := fmt.Errorf("verification record: %w", domain.ErrNotFound)
	if id := rec.str("id", "user_id"); id != "" {
		u, gErr := s.users.Get(ctx, id)
		if gErr == nil {
			return u, nil
		}
		err = gErr
	}
	if cid := rec.str("correlation_id", "customer_id"); cid != "" {
		u, gErr := s.users.GetByCorrelationID(ctx, cid)
		if gErr == nil {
			return u, nil
		}
		err = gErr
	}
	if tg := rec.number("telegram_user_id"); tg != 0 {
		u, gErr := s.users.GetByTelegramID(ctx, tg)
		if gErr == nil {
			return u, nil
		}
		err = gErr
	}
	return nil, err
}

// claim fails open: a guard outage must not silence notifications.
func (s *service) claim(ctx context.Context, key, status string) bool {
	if s.guard == nil {
		return true
	}
	ok, err := s.guard.Claim(ctx, key, status)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("notify guard unavailable")
		return true
	}
	return ok
}

func (s *service) dispatch(ctx context.Context, e domain.NotificationEvent) {
	rep := s.dispatcher.Dispatch(ctx, e)
	s.logger.Debug().
		Int64("subject", e.SubjectID).
		Str("status", e.Status()).
		Int("push_delivered", rep.Push.Delivered).
		Bool("chat_sent", rep.Chat.Sent).
		Bool("chat_queued", rep.Chat.Queued).
		Msg("webhook dispatched")
}
