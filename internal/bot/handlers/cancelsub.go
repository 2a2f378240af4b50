package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"github.com/fondos-co/fondos-bot/internal/bot/keyboard"
	"github.com/fondos-co/fondos-bot/internal/domain"
	apperrors "github.com/fondos-co/fondos-bot/internal/errors"
	"github.com/fondos-co/fondos-bot/internal/portfolio"
	"github.com/fondos-co/fondos-bot/internal/state"
)

// HandleCancelSelect opens the cancellation confirmation dialog for an
// active subscription. Inactive or unknown subscriptions never get one.
func HandleCancelSelect(svc *portfolio.Service, fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		subscriptionID, err := strconv.ParseInt(callbackPayload(c, keyboard.CallbackCancelSelect), 10, 64)
		if err != nil {
			return apperrors.NewValidationError("Suscripción desconocida")
		}

		ctx := context.Background()
		chatID := c.Sender().ID

		snapshot, err := svc.Current(ctx, chatID)
		if err != nil {
			return apperrors.NewFundAPIError("load subscriptions", err)
		}

		sub, ok := snapshot.SubscriptionByID(subscriptionID)
		if !ok || !sub.IsActive {
			return respondCallback(c, "Esta suscripción ya no está activa", true)
		}

		session := &state.CancelSession{
			SubscriptionID: sub.ID,
			FundName:       sub.FundName,
			Amount:         sub.Amount,
		}

		sessionCtx, err := state.ToContext(session)
		if err != nil {
			return apperrors.NewStateError(err.Error())
		}

		if err := fsm.SetState(ctx, chatID, state.StateCancelConfirm, sessionCtx); err != nil {
			log.Error("failed to open cancellation dialog", slog.Int64("chat_id", chatID), slog.Any("error", err))
			return apperrors.NewStorageError(err)
		}

		text := fmt.Sprintf(
			"¿Cancelar la suscripción a %s?\n\nMonto invertido: %s\nEl monto se devolverá a tu saldo disponible.",
			session.FundName,
			formatCOP(session.Amount),
		)

		return c.Send(text, kb.CancelDialog())
	}
}

// HandleCancelConfirm submits the cancellation and refreshes the
// portfolio once.
func HandleCancelConfirm(api FundAPI, svc *portfolio.Service, fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		chatID := c.Sender().ID

		session, err := cancelSession(ctx, fsm, chatID)
		if err != nil {
			return err
		}

		tx, err := api.Cancel(ctx, domain.CancellationRequest{SubscriptionID: session.SubscriptionID})
		if err != nil {
			log.Error("cancellation failed",
				slog.Int64("chat_id", chatID),
				slog.Int64("subscription_id", session.SubscriptionID),
				slog.Any("error", err),
			)
			return apperrors.NewFundAPIError("cancel subscription", err)
		}

		if err := fsm.ClearState(ctx, chatID); err != nil {
			log.Warn("failed to close cancellation dialog", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}

		log.Info("subscription cancelled",
			slog.Int64("chat_id", chatID),
			slog.Int64("subscription_id", session.SubscriptionID),
			slog.String("transaction_id", tx.TransactionID),
		)

		snapshot, err := svc.Reload(ctx, chatID)
		if err != nil {
			if sendErr := c.Send("Cancelación exitosa de " + session.FundName + " ✅"); sendErr != nil {
				return sendErr
			}
			return apperrors.NewFundAPIError("reload after cancel", err)
		}

		text := "Cancelación exitosa de " + session.FundName + " ✅\n" +
			"Monto devuelto: " + formatCOP(session.Amount) + "\n" +
			"Transacción: " + tx.TransactionID + "\n\n" +
			renderOverview(snapshot)

		return c.Send(text, kb.MainMenu())
	}
}

// HandleCancelClose dismisses the confirmation without cancelling.
func HandleCancelClose(fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		chatID := c.Sender().ID

		if err := fsm.ClearState(ctx, chatID); err != nil {
			log.Warn("failed to clear dialog state", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}

		return c.Edit("La suscripción sigue activa.", kb.MainMenu())
	}
}

func cancelSession(ctx context.Context, fsm state.StateMachine, chatID int64) (*state.CancelSession, error) {
	userState, err := fsm.GetState(ctx, chatID)
	if err != nil {
		if errors.Is(err, state.ErrStateNotFound) {
			return nil, apperrors.NewStateError("no cancellation dialog open")
		}
		return nil, apperrors.NewStorageError(err)
	}

	if userState == nil || userState.CurrentState != state.StateCancelConfirm {
		return nil, apperrors.NewStateError("no cancellation dialog open")
	}

	session, err := state.CancelSessionFrom(userState.Context)
	if err != nil {
		return nil, apperrors.NewStateError(err.Error())
	}

	return session, nil
}
