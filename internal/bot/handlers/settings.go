package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/fondos-co/fondos-bot/internal/bot/keyboard"
	"github.com/fondos-co/fondos-bot/internal/domain"
	apperrors "github.com/fondos-co/fondos-bot/internal/errors"
	"github.com/fondos-co/fondos-bot/internal/portfolio"
)

// NewSettingsHandler renders the profile screen with the notification
// preference selector.
func NewSettingsHandler(svc *portfolio.Service, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		snapshot, err := svc.Current(context.Background(), c.Sender().ID)
		if err != nil {
			return apperrors.NewFundAPIError("load profile", err)
		}

		current := domain.NotificationEmail
		if snapshot.User != nil && snapshot.User.NotificationPreference.Valid() {
			current = snapshot.User.NotificationPreference
		}

		return c.Send(renderSettings(snapshot), kb.PreferenceButtons(current))
	}
}

// HandlePreferenceSet persists a new notification preference. Saving
// the already-stored value is a no-op: no backend call, no reload.
func HandlePreferenceSet(api FundAPI, svc *portfolio.Service, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		preference := domain.NotificationPreference(callbackPayload(c, keyboard.CallbackPreferenceSet))
		if !preference.Valid() {
			return apperrors.NewValidationError("Canal de notificación desconocido")
		}

		ctx := context.Background()
		chatID := c.Sender().ID

		snapshot, err := svc.Current(ctx, chatID)
		if err != nil {
			return apperrors.NewFundAPIError("load profile", err)
		}

		if snapshot.User != nil && snapshot.User.NotificationPreference == preference {
			return respondCallback(c, "Esa ya es tu preferencia actual", false)
		}

		if _, err := api.UpdateNotificationPreference(ctx, preference); err != nil {
			log.Error("preference update failed",
				slog.Int64("chat_id", chatID),
				slog.String("preference", string(preference)),
				slog.Any("error", err),
			)
			return apperrors.NewFundAPIError("update notification preference", err)
		}

		log.Info("notification preference updated",
			slog.Int64("chat_id", chatID),
			slog.String("preference", string(preference)),
		)

		refreshed, err := svc.Reload(ctx, chatID)
		if err != nil {
			if sendErr := c.Send("Preferencia actualizada a " + channelLabel(string(preference)) + " ✅"); sendErr != nil {
				return sendErr
			}
			return apperrors.NewFundAPIError("reload after preference update", err)
		}

		return c.Edit(renderSettings(refreshed), kb.PreferenceButtons(preference))
	}
}

func renderSettings(snapshot *portfolio.Snapshot) string {
	var b strings.Builder
	b.WriteString("Configuración ⚙️\n\n")

	if snapshot.User != nil {
		u := snapshot.User
		fmt.Fprintf(&b, "Nombre: %s\n", u.Name)
		if u.Email != "" {
			fmt.Fprintf(&b, "Email: %s\n", u.Email)
		}
		if u.Phone != "" {
			fmt.Fprintf(&b, "Teléfono: %s\n", u.Phone)
		}
		fmt.Fprintf(&b, "Notificaciones: %s\n", channelLabel(string(u.NotificationPreference)))
	}

	balance := 0.0
	if snapshot.Balance != nil {
		balance = snapshot.Balance.Balance
	} else if snapshot.User != nil {
		balance = snapshot.User.Balance
	}
	fmt.Fprintf(&b, "Saldo disponible: %s\n", formatCOP(balance))
	fmt.Fprintf(&b, "Invertido en fondos: %s\n", formatCOP(snapshot.TotalInvested()))

	b.WriteString("\nElige el canal para recibir notificaciones:")
	return b.String()
}
