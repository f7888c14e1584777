// Package telegram is the chat channel: it sends rendered notifications
// through the Bot API and answers /start when polling is enabled.
package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"
)

const welcomeText = "Bienvenue. Utilise le bouton Menu pour ouvrir Saverr."

// Config holds the bot settings. APIURL is only set in tests.
type Config struct {
	Token       string
	APIURL      string
	Polling     bool
	PollTimeout time.Duration
}

// Bot wraps a telebot instance. SendMessage is safe for concurrent use.
type Bot struct {
	bot *tele.Bot
	log zerolog.Logger

	runMu   sync.Mutex
	running bool
}

func NewBot(cfg Config, log zerolog.Logger) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	settings := tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.APIURL,
		Offline: !cfg.Polling,
	}
	if cfg.Polling {
		settings.Poller = &tele.LongPoller{Timeout: timeout}
	}
	b, err := tele.NewBot(settings)
	if err != nil {
		return nil, err
	}
	tb := &Bot{bot: b, log: log.With().Str("comp", "telegram").Logger()}
	b.Handle("/start", tb.onStart)
	return tb, nil
}

// SendMessage sends Markdown text to chatID. telebot has no context support,
// so the call is abandoned (not aborted) when ctx ends first.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	done := make(chan error, 1)
	go func() {
		_, err := b.bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start polls for updates until ctx is cancelled. It returns immediately.
func (b *Bot) Start(ctx context.Context) {
	b.runMu.Lock()
	if b.running {
		b.runMu.Unlock()
		return
	}
	b.running = true
	b.runMu.Unlock()

	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	go func() {
		b.log.Info().Msg("polling started")
		b.bot.Start() // blocks until Stop() called
		b.log.Info().Msg("polling stopped")
	}()
}

func (b *Bot) onStart(c tele.Context) error {
	if s := c.Sender(); s != nil {
		b.log.Debug().Int64("telegram_user_id", s.ID).Msg("/start")
	}
	return c.Send(welcomeText)
}
