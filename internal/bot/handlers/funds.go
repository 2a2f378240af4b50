package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/fondos-co/fondos-bot/internal/bot/keyboard"
	"github.com/fondos-co/fondos-bot/internal/domain"
	apperrors "github.com/fondos-co/fondos-bot/internal/errors"
	"github.com/fondos-co/fondos-bot/internal/portfolio"
	"github.com/fondos-co/fondos-bot/internal/state"
)

// NewFundsHandler renders the fund catalog. Funds with an active
// subscription are marked and expose no subscribe action.
func NewFundsHandler(svc *portfolio.Service, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		snapshot, err := svc.Current(ctx, c.Sender().ID)
		if err != nil {
			return apperrors.NewFundAPIError("list funds", err)
		}

		var b strings.Builder
		b.WriteString("Fondos disponibles:\n\n")
		for _, fund := range snapshot.Funds {
			marker := "➕"
			if snapshot.IsSubscribed(fund.ID) {
				marker = "✅"
			}
			fmt.Fprintf(&b, "%s %s (%s) — mínimo %s\n", marker, fund.Name, fund.Category, formatCOP(fund.MinimumAmount))
			if fund.Description != "" {
				fmt.Fprintf(&b, "    %s\n", fund.Description)
			}
		}

		if active := snapshot.ActiveSubscriptions(); len(active) > 0 {
			b.WriteString("\nMis suscripciones:\n")
			for _, sub := range active {
				fmt.Fprintf(&b, "• %s — invertido %s (desde %s)\n",
					sub.FundName,
					formatCOP(sub.Amount),
					sub.SubscribedAt.Format("02/01/2006"),
				)
			}
		}

		return c.Send(b.String(), kb.FundList(snapshot))
	}
}

// HandleFundSelect opens the subscription dialog for the chosen fund:
// amount prefilled with the fund minimum and the notification channel
// defaulting to the user's stored preference.
func HandleFundSelect(svc *portfolio.Service, fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		data := callbackPayload(c, keyboard.CallbackFundSelect)
		fundID, err := strconv.ParseInt(data, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("Fondo desconocido")
		}

		ctx := context.Background()
		chatID := c.Sender().ID

		snapshot, err := svc.Current(ctx, chatID)
		if err != nil {
			return apperrors.NewFundAPIError("load funds", err)
		}

		fund, ok := snapshot.FundByID(fundID)
		if !ok {
			return apperrors.NewValidationError("Fondo desconocido")
		}

		if snapshot.IsSubscribed(fund.ID) {
			return respondCallback(c, "Ya estás suscrito a este fondo", true)
		}

		channel := domain.NotificationEmail
		if snapshot.User != nil && snapshot.User.NotificationPreference.Valid() {
			channel = snapshot.User.NotificationPreference
		}

		session := &state.SubscribeSession{
			FundID:        fund.ID,
			FundName:      fund.Name,
			MinimumAmount: fund.MinimumAmount,
			Amount:        fund.MinimumAmount,
			Channel:       channel,
		}

		sessionCtx, err := state.ToContext(session)
		if err != nil {
			return apperrors.NewStateError(err.Error())
		}

		if err := fsm.SetState(ctx, chatID, state.StateSubscribeAmount, sessionCtx); err != nil {
			log.Error("failed to open subscription dialog", slog.Int64("chat_id", chatID), slog.Any("error", err))
			return apperrors.NewStateError("open subscription dialog")
		}

		return c.Send(renderSubscribeDialog(session), kb.SubscribeDialog(session.Channel, session.CanSubscribe()))
	}
}

func renderSubscribeDialog(session *state.SubscribeSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suscripción a %s\n\n", session.FundName)
	fmt.Fprintf(&b, "Monto mínimo: %s\n", formatCOP(session.MinimumAmount))
	fmt.Fprintf(&b, "Monto a invertir: %s\n", formatCOP(session.Amount))
	fmt.Fprintf(&b, "Notificación: %s\n", channelLabel(string(session.Channel)))
	b.WriteString("\nEscribe un monto para cambiarlo.\n")

	if session.Checked {
		if session.Eligible {
			fmt.Fprintf(&b, "\n✅ %s\n", session.Message)
		} else {
			fmt.Fprintf(&b, "\n❌ %s\n", session.Message)
		}
		fmt.Fprintf(&b, "Saldo disponible: %s\n", formatCOP(session.UserBalance))
		fmt.Fprintf(&b, "Monto requerido: %s\n", formatCOP(session.RequiredAmount))
	} else {
		b.WriteString("\nVerifica la elegibilidad para habilitar la suscripción.\n")
	}

	return b.String()
}

func callbackPayload(c telebot.Context, prefix string) string {
	if c == nil {
		return ""
	}

	cb := c.Callback()
	if cb == nil {
		return ""
	}

	return strings.TrimPrefix(strings.TrimSpace(cb.Data), prefix)
}

func respondCallback(c telebot.Context, text string, alert bool) error {
	if c == nil {
		return nil
	}
	return c.Respond(&telebot.CallbackResponse{
		Text:      text,
		ShowAlert: alert,
	})
}
