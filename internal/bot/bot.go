package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/fondos-co/fondos-bot/internal/bot/handlers"
	"github.com/fondos-co/fondos-bot/internal/bot/keyboard"
	errors "github.com/fondos-co/fondos-bot/internal/errors"
	"github.com/fondos-co/fondos-bot/internal/fundapi"
	"github.com/fondos-co/fondos-bot/internal/i18n"
	"github.com/fondos-co/fondos-bot/internal/idempotency"
	"github.com/fondos-co/fondos-bot/internal/middleware"
	"github.com/fondos-co/fondos-bot/internal/portfolio"
	"github.com/fondos-co/fondos-bot/internal/state"
	"github.com/fondos-co/fondos-bot/pkg/config"
)

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot            *telebot.Bot
	log                *slog.Logger
	cfg                config.Config
	fsm                state.StateMachine
	api                *fundapi.Client
	portfolio          *portfolio.Service
	rateLimitMw        *middleware.RateLimitMiddleware
	router             *Router
	dispatcher         *Dispatcher
	keyboard           *keyboard.Builder
	translator         i18n.Translator
	errHandler         *errors.Handler
	idempotencyManager idempotency.Manager
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	api *fundapi.Client,
	svc *portfolio.Service,
	fsm state.StateMachine,
	translator i18n.Translator,
	idempotencyManager idempotency.Manager,
	rateLimitMw *middleware.RateLimitMiddleware,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	kb := keyboard.NewBuilder(log)
	dispatcher := NewDispatcher(fsm, log)
	router := NewRouter(dispatcher, log)
	errHandler := errors.NewHandler(log, cfg.Sentry.Enabled)

	b := &Bot{
		telebot:            tb,
		log:                log,
		cfg:                cfg,
		fsm:                fsm,
		api:                api,
		portfolio:          svc,
		rateLimitMw:        rateLimitMw,
		router:             router,
		dispatcher:         dispatcher,
		keyboard:           kb,
		translator:         translator,
		errHandler:         errHandler,
		idempotencyManager: idempotencyManager,
	}

	b.setupRouter()

	if b.rateLimitMw != nil {
		b.telebot.Use(b.rateLimitMw.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter() {
	if b.router == nil {
		return
	}

	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(middleware.Idempotency(b.idempotencyManager, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)

	// Commands.
	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(b.portfolio, b.fsm, b.keyboard, b.log))
	b.router.RegisterCommand(CommandRefresh, handlers.NewRefreshHandler(b.portfolio, b.keyboard, b.log))
	b.router.RegisterCommand(CommandFunds, handlers.Handler(handlers.NewFundsHandler(b.portfolio, b.keyboard, b.log)))
	b.router.RegisterCommand(CommandHistory, handlers.Handler(handlers.NewTransactionsHandler(b.portfolio, b.keyboard, b.translator, b.log)))
	b.router.RegisterCommand(CommandSettings, handlers.Handler(handlers.NewSettingsHandler(b.portfolio, b.keyboard, b.log)))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(b.fsm, b.keyboard, b.log))
	b.router.RegisterCommand(CommandHelp, newHelpHandler(b.keyboard))

	// Main menu.
	b.router.RegisterCallback(keyboard.CallbackMenuFunds, handlers.NewFundsHandler(b.portfolio, b.keyboard, b.log))
	b.router.RegisterCallback(keyboard.CallbackMenuHistory, handlers.NewTransactionsHandler(b.portfolio, b.keyboard, b.translator, b.log))
	b.router.RegisterCallback(keyboard.CallbackMenuSettings, handlers.NewSettingsHandler(b.portfolio, b.keyboard, b.log))

	// Subscription dialog.
	b.router.RegisterCallback(keyboard.CallbackFundSelect, handlers.HandleFundSelect(b.portfolio, b.fsm, b.keyboard, b.log))
	b.router.RegisterCallback(keyboard.CallbackSubscribeChannel, handlers.HandleChannelSelect(b.fsm, b.keyboard, b.log))
	b.router.RegisterCallback(keyboard.CallbackSubscribeCheck, handlers.HandleEligibilityCheck(b.api, b.fsm, b.keyboard, b.log))
	b.router.RegisterCallback(keyboard.CallbackSubscribeConfirm, handlers.HandleSubscribeConfirm(b.api, b.portfolio, b.fsm, b.keyboard, b.log))
	b.router.RegisterCallback(keyboard.CallbackSubscribeClose, handlers.HandleSubscribeClose(b.fsm, b.keyboard, b.log))

	// Cancellation dialog.
	b.router.RegisterCallback(keyboard.CallbackCancelSelect, handlers.HandleCancelSelect(b.portfolio, b.fsm, b.keyboard, b.log))
	b.router.RegisterCallback(keyboard.CallbackCancelConfirm, handlers.HandleCancelConfirm(b.api, b.portfolio, b.fsm, b.keyboard, b.log))
	b.router.RegisterCallback(keyboard.CallbackCancelClose, handlers.HandleCancelClose(b.fsm, b.keyboard, b.log))

	// History filters and settings.
	b.router.RegisterCallback(keyboard.CallbackFilterPrefix, handlers.HandleTransactionFilter(b.portfolio, b.keyboard, b.translator, b.log))
	b.router.RegisterCallback(keyboard.CallbackTxPage, handlers.HandleTransactionPage(b.portfolio, b.keyboard, b.translator, b.log))
	b.router.RegisterCallback(keyboard.CallbackPreferenceSet, handlers.HandlePreferenceSet(b.api, b.portfolio, b.keyboard, b.log))

	// Informational buttons acknowledge and do nothing.
	b.router.RegisterCallback("noop", func(c telebot.Context) error {
		if c == nil {
			return nil
		}
		return c.Respond(&telebot.CallbackResponse{})
	})

	// Free text is an amount edit while the subscription dialog is open.
	b.dispatcher.RegisterStateHandler(state.StateSubscribeAmount, handlers.NewAmountInputHandler(b.fsm, b.keyboard, b.log))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}

func newHelpHandler(kb *keyboard.Builder) handlers.Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		text := "Comandos disponibles:\n\n" +
			CommandStart + " — cargar tu portafolio\n" +
			CommandFunds + " — ver los fondos disponibles\n" +
			CommandHistory + " — ver el historial de transacciones\n" +
			CommandSettings + " — configurar tus notificaciones\n" +
			CommandRefresh + " — recargar los datos\n" +
			CommandCancel + " — cerrar el diálogo actual"

		return c.Send(text, kb.MainMenu())
	}
}
