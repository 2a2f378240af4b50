package handlers

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/fondos-co/fondos-bot/internal/bot/keyboard"
	apperrors "github.com/fondos-co/fondos-bot/internal/errors"
	"github.com/fondos-co/fondos-bot/internal/portfolio"
	"github.com/fondos-co/fondos-bot/internal/state"
)

// NewStartHandler returns the /start handler: it runs a full load,
// resets the dialog state and renders the overview with the main menu.
func NewStartHandler(svc *portfolio.Service, fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		ctx := context.Background()
		chatID := c.Sender().ID

		if err := fsm.ClearState(ctx, chatID); err != nil {
			log.Warn("failed to reset state on start", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}

		snapshot, err := svc.Reload(ctx, chatID)
		if err != nil {
			return apperrors.NewFundAPIError("initial load", err)
		}

		return c.Send(renderOverview(snapshot), kb.MainMenu())
	}
}

// NewRefreshHandler re-runs the full load and renders the overview again.
func NewRefreshHandler(svc *portfolio.Service, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		snapshot, err := svc.Reload(ctx, c.Sender().ID)
		if err != nil {
			return apperrors.NewFundAPIError("reload", err)
		}

		return c.Send(renderOverview(snapshot), kb.MainMenu())
	}
}

func renderOverview(snapshot *portfolio.Snapshot) string {
	name := "Usuario"
	var balance float64
	if snapshot != nil && snapshot.User != nil {
		if snapshot.User.Name != "" {
			name = snapshot.User.Name
		}
		balance = snapshot.User.Balance
	}
	if snapshot != nil && snapshot.Balance != nil {
		balance = snapshot.Balance.Balance
	}

	active := snapshot.ActiveSubscriptions()

	return fmt.Sprintf(
		"Bienvenido, %s\n\nSaldo disponible: %s\nFondos disponibles: %d\nSuscripciones activas: %d (invertido %s)\nÚltimas transacciones: %d",
		name,
		formatCOP(balance),
		len(snapshot.Funds),
		len(active),
		formatCOP(snapshot.TotalInvested()),
		len(snapshot.Transactions),
	)
}
