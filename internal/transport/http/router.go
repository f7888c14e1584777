package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/saverr-hub/internal/application/account"
	"github.com/saverr-hub/internal/application/auth"
	"github.com/saverr-hub/internal/application/hub"
	"github.com/saverr-hub/internal/application/transaction"
	"github.com/saverr-hub/internal/application/webhook"
	"github.com/saverr-hub/internal/config"
	"github.com/saverr-hub/internal/transport/http/handler"
	appmiddleware "github.com/saverr-hub/internal/transport/http/middleware"
	"github.com/saverr-hub/internal/transport/ws"
	"golang.org/x/time/rate"
)

// NewRouter builds the application router around registry, which the
// dispatcher in deps must broadcast to.
func NewRouter(cfg *config.Config, registry *hub.Registry, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.AccessLog(deps.Logger)...)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmiddleware.SignatureHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, on public write endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	// webhooks come from the backend in bursts
	webhookRL := appmiddleware.NewRateLimiter(rate.Limit(50), 100)

	authSvc := auth.NewService(auth.ServiceDeps{
		BotToken: cfg.TelegramBotToken,
		MaxAge:   cfg.InitDataMaxAge,
		Tokens:   deps.Tokens,
		Logger:   deps.Logger,
	})

	webhookSvc := webhook.NewService(webhook.ServiceDeps{
		UserRepo:        deps.UserRepo,
		TransactionRepo: deps.TransactionRepo,
		Dispatcher:      deps.Dispatcher,
		Guard:           deps.Guard,
		Logger:          deps.Logger,
	})
	accountSvc := account.NewService(account.ServiceDeps{
		UserRepo: deps.UserRepo,
		Provider: deps.Onboarding,
		Logger:   deps.Logger,
	})
	txSvc := transaction.NewService(transaction.ServiceDeps{
		UserRepo:        deps.UserRepo,
		TransactionRepo: deps.TransactionRepo,
	})

	healthH := handler.NewHealthHandler(registry)
	sessionH := handler.NewSessionHandler(authSvc)
	accountH := handler.NewAccountHandler(accountSvc)
	txH := handler.NewTransactionHandler(txSvc)
	webhookH := handler.NewWebhookHandler(webhookSvc, deps.Archive, deps.Logger)
	pushH := ws.NewHandler(authSvc, registry, ws.Options{
		AuthTimeout:    cfg.WSAuthTimeout,
		WriteTimeout:   cfg.WSWriteTimeout,
		SendBuffer:     cfg.WSSendBuffer,
		AllowedOrigins: cfg.AllowedOrigins,
	}, deps.Logger)

	// ── Push channel ────────────────────────────────────────────────────────
	r.Method(http.MethodGet, "/ws", pushH)

	// ── Backend change records ─────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(webhookRL.Limit)
		r.Use(appmiddleware.VerifySignature(cfg.WebhookSecret))

		r.Post("/webhook", webhookH.Generic)
		r.Post("/webhook/transactions", webhookH.Transactions)
		r.Post("/webhook/users", webhookH.Users)
	})

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/health", healthH.Health)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(authSvc))
			r.Use(appmiddleware.RequireIdentity)

			r.Post("/sessions", sessionH.Create)
			r.Get("/me", accountH.Me)
			r.With(sensitiveRL.Limit).Post("/onboarding", accountH.Onboard)
			r.With(sensitiveRL.Limit).Post("/wallet", accountH.LinkWallet)
			r.Get("/transactions", txH.List)
			r.With(sensitiveRL.Limit).Post("/transactions", txH.Create)
			r.Post("/transactions/{id}/status", txH.UpdateStatus)
		})
	})

	return r
}
