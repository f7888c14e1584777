// Package notification turns normalised backend events into deliveries on
// the push channel (live mini-app connections) and the chat channel (the bot).
package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/saverr-hub/internal/application/hub"
	"github.com/saverr-hub/internal/domain"
	"github.com/saverr-hub/internal/pkg/id"
)

// ErrChatUnavailable is recorded when no chat sender is configured.
var ErrChatUnavailable = errors.New("chat channel unavailable")

// Service dispatches one event to every channel of its subject.
type Service interface {
	Dispatch(ctx context.Context, e domain.NotificationEvent) DeliveryReport
	// Drain waits for queued chat deliveries to finish or ctx to end.
	Drain(ctx context.Context) error
}

// PushReport describes the push leg. A broadcast to zero connections is not an error.
type PushReport struct {
	Attempted bool
	hub.BroadcastResult
	Err error
}

// ChannelReport describes a store-and-forward leg. Queued legs run after
// Dispatch returns; their outcome is only logged and recorded.
type ChannelReport struct {
	Attempted bool
	Queued    bool
	Sent      bool
	Err       error
}

type DeliveryReport struct {
	Push PushReport
	Chat ChannelReport
	SMS  ChannelReport
}

type broadcaster interface {
	Broadcast(identity int64, v any) (hub.BroadcastResult, error)
}

type chatSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type userStore interface {
	GetByTelegramID(ctx context.Context, telegramUserID int64) (*domain.User, error)
}

type notificationStore interface {
	Put(ctx context.Context, n *domain.Notification) error
}

type service struct {
	push        broadcaster
	chat        chatSender
	sms         smsSender
	users       userStore
	history     notificationStore
	chatTimeout time.Duration
	workers     chan struct{} // nil: chat leg runs inline
	inflight    sync.WaitGroup
	logger      zerolog.Logger
	now         func() time.Time
}

// ServiceDeps wires the dispatcher. Push and Users are required; Chat, SMS
// and NotificationRepo are optional and skipped when nil. ChatWorkers > 0
// moves the chat and SMS legs off the caller onto at most that many
// goroutines; when all are busy the leg runs inline.
type ServiceDeps struct {
	Push             broadcaster
	Chat             chatSender
	SMS              smsSender
	Users            userStore
	NotificationRepo notificationStore
	ChatTimeout      time.Duration
	ChatWorkers      int
	Logger           zerolog.Logger
}

func NewService(deps ServiceDeps) Service {
	timeout := deps.ChatTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	svc := &service{
		push:        deps.Push,
		chat:        deps.Chat,
		sms:         deps.SMS,
		users:       deps.Users,
		history:     deps.NotificationRepo,
		chatTimeout: timeout,
		logger:      deps.Logger.With().Str("comp", "notification.dispatcher").Logger(),
		now:         time.Now,
	}
	if deps.ChatWorkers > 0 {
		svc.workers = make(chan struct{}, deps.ChatWorkers)
	}
	return svc
}

// Dispatch never fails the caller: each leg records its own outcome. The
// push leg runs first and synchronously so events reach connections in the
// order Dispatch is called for a given subject.
func (s *service) Dispatch(ctx context.Context, e domain.NotificationEvent) DeliveryReport {
	var rep DeliveryReport
	log := s.logger.With().Int64("subject", e.SubjectID).Str("kind", string(e.Kind)).Str("status", e.Status()).Logger()

	rep.Push.Attempted = true
	res, err := s.push.Broadcast(e.SubjectID, PushFor(e))
	rep.Push.BroadcastResult = res
	rep.Push.Err = err
	if err != nil {
		log.Error().Err(err).Msg("push broadcast failed")
	}

	text, ok := Render(e)
	if !ok {
		if !knownStatus(e) {
			log.Warn().Msg("status has no chat template, pushed raw only")
		}
		return rep
	}

	if s.workers != nil {
		select {
		case s.workers <- struct{}{}:
			s.inflight.Add(1)
			// The request context ends with the webhook ack.
			detached := context.WithoutCancel(ctx)
			go func() {
				defer func() {
					<-s.workers
					s.inflight.Done()
				}()
				s.deliverChat(detached, e, text, log)
			}()
			rep.Chat = ChannelReport{Attempted: true, Queued: true}
			return rep
		default:
			log.Debug().Msg("chat workers busy, delivering inline")
		}
	}
	rep.Chat, rep.SMS = s.deliverChat(ctx, e, text, log)
	return rep
}

// deliverChat runs the chat leg under its own timeout and, when it fails,
// the SMS fallback under a fresh one.
func (s *service) deliverChat(ctx context.Context, e domain.NotificationEvent, text string, log zerolog.Logger) (chat, sms ChannelReport) {
	chatCtx, cancel := context.WithTimeout(ctx, s.chatTimeout)
	defer cancel()

	chat.Attempted = true
	user, err := s.users.GetByTelegramID(chatCtx, e.SubjectID)
	if err != nil {
		chat.Err = fmt.Errorf("resolve chat address: %w", err)
		log.Warn().Err(chat.Err).Msg("chat delivery skipped")
		return chat, sms
	}
	chat.Err = s.sendChat(chatCtx, user, text)
	chat.Sent = chat.Err == nil
	s.record(ctx, e, domain.ChannelTelegram, text, chat.Err)
	if chat.Err == nil {
		log.Debug().Msg("event dispatched")
		return chat, sms
	}

	log.Warn().Err(chat.Err).Msg("chat delivery failed")
	smsCtx, cancelSMS := context.WithTimeout(context.WithoutCancel(ctx), s.chatTimeout)
	defer cancelSMS()
	return chat, s.smsFallback(smsCtx, e, user, text)
}

func (s *service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *service) sendChat(ctx context.Context, user *domain.User, text string) error {
	if s.chat == nil {
		return ErrChatUnavailable
	}
	addr := user.ChatAddress()
	if addr == 0 {
		return fmt.Errorf("user %s: %w", user.UserID, domain.ErrNotLinked)
	}
	return s.chat.SendMessage(ctx, addr, text)
}

func (s *service) smsFallback(ctx context.Context, e domain.NotificationEvent, user *domain.User, text string) ChannelReport {
	if s.sms == nil || user.Phone == "" {
		return ChannelReport{}
	}
	plain := PlainText(text)
	err := s.sms.SendSMS(ctx, user.Phone, plain)
	s.record(ctx, e, domain.ChannelSMS, plain, err)
	if err != nil {
		s.logger.Warn().Err(err).Int64("subject", e.SubjectID).Msg("sms fallback failed")
	}
	return ChannelReport{Attempted: true, Sent: err == nil, Err: err}
}

func (s *service) record(ctx context.Context, e domain.NotificationEvent, channel, text string, sendErr error) {
	if s.history == nil {
		return
	}
	n := &domain.Notification{
		NotificationID: id.New(),
		TelegramUserID: e.SubjectID,
		TransactionID:  e.Transaction.TransactionID,
		Channel:        channel,
		Type:           string(e.Kind) + ":" + e.Status(),
		Message:        text,
		Status:         domain.NotificationSent,
		CreatedAt:      s.now().UTC(),
	}
	if sendErr != nil {
		n.Status = domain.NotificationFailed
		n.Error = sendErr.Error()
	}
	if err := s.history.Put(context.WithoutCancel(ctx), n); err != nil {
		s.logger.Warn().Err(err).Str("channel", channel).Msg("could not record notification")
	}
}

func knownStatus(e domain.NotificationEvent) bool {
	switch e.Kind {
	case domain.EventTransactionStatus:
		return e.Transaction.Status.Known()
	case domain.EventVerificationStatus:
		return e.Verification.Status.Known()
	}
	return false
}
