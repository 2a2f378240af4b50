package handlers

import (
	"context"
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/fondos-co/fondos-bot/internal/bot/keyboard"
	"github.com/fondos-co/fondos-bot/internal/domain"
	apperrors "github.com/fondos-co/fondos-bot/internal/errors"
	"github.com/fondos-co/fondos-bot/internal/portfolio"
	"github.com/fondos-co/fondos-bot/internal/state"
)

// subscribeSession loads and decodes the open subscription dialog for
// the chat, or returns a state error when no dialog is open.
func subscribeSession(ctx context.Context, fsm state.StateMachine, chatID int64) (*state.SubscribeSession, error) {
	userState, err := fsm.GetState(ctx, chatID)
	if err != nil {
		if errors.Is(err, state.ErrStateNotFound) {
			return nil, apperrors.NewStateError("no subscription dialog open")
		}
		return nil, apperrors.NewStorageError(err)
	}

	if userState == nil || userState.CurrentState != state.StateSubscribeAmount {
		return nil, apperrors.NewStateError("no subscription dialog open")
	}

	session, err := state.SubscribeSessionFrom(userState.Context)
	if err != nil {
		return nil, apperrors.NewStateError(err.Error())
	}

	return session, nil
}

func saveSubscribeSession(ctx context.Context, fsm state.StateMachine, chatID int64, session *state.SubscribeSession) error {
	sessionCtx, err := state.ToContext(session)
	if err != nil {
		return apperrors.NewStateError(err.Error())
	}

	if err := fsm.SetState(ctx, chatID, state.StateSubscribeAmount, sessionCtx); err != nil {
		return apperrors.NewStorageError(err)
	}

	return nil
}

// NewAmountInputHandler consumes free-text messages while the
// subscription dialog is open. A new amount discards the previous
// eligibility verdict, locking the subscribe action again.
func NewAmountInputHandler(fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		chatID := c.Sender().ID

		session, err := subscribeSession(ctx, fsm, chatID)
		if err != nil {
			return err
		}

		amount, err := parseAmount(c.Text())
		if err != nil {
			log.Debug("rejected amount input", slog.Int64("chat_id", chatID), slog.String("text", c.Text()))
			return apperrors.NewValidationError("Escribe un monto válido, por ejemplo 500.000")
		}

		session.SetAmount(amount)

		if err := saveSubscribeSession(ctx, fsm, chatID, session); err != nil {
			return err
		}

		return c.Send(renderSubscribeDialog(session), kb.SubscribeDialog(session.Channel, session.CanSubscribe()))
	}
}

// HandleChannelSelect switches the notification channel for this
// subscription. The eligibility verdict is amount-bound, so the
// channel switch keeps it.
func HandleChannelSelect(fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		channel := domain.NotificationPreference(callbackPayload(c, keyboard.CallbackSubscribeChannel))
		if !channel.Valid() {
			return apperrors.NewValidationError("Canal de notificación desconocido")
		}

		ctx := context.Background()
		chatID := c.Sender().ID

		session, err := subscribeSession(ctx, fsm, chatID)
		if err != nil {
			return err
		}

		if session.Channel == channel {
			return respondCallback(c, "", false)
		}

		session.Channel = channel

		if err := saveSubscribeSession(ctx, fsm, chatID, session); err != nil {
			return err
		}

		return c.Edit(renderSubscribeDialog(session), kb.SubscribeDialog(session.Channel, session.CanSubscribe()))
	}
}

// HandleEligibilityCheck asks the backend for a verdict on the current
// amount and re-renders the dialog with the outcome.
func HandleEligibilityCheck(api FundAPI, fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		chatID := c.Sender().ID

		session, err := subscribeSession(ctx, fsm, chatID)
		if err != nil {
			return err
		}

		check, err := api.CheckEligibility(ctx, session.FundID, session.Amount)
		if err != nil {
			log.Error("eligibility check failed",
				slog.Int64("chat_id", chatID),
				slog.Int64("fund_id", session.FundID),
				slog.Any("error", err),
			)
			return apperrors.NewFundAPIError("check eligibility", err)
		}

		session.ApplyCheck(check)

		if err := saveSubscribeSession(ctx, fsm, chatID, session); err != nil {
			return err
		}

		log.Info("eligibility checked",
			slog.Int64("chat_id", chatID),
			slog.Int64("fund_id", session.FundID),
			slog.Float64("amount", session.Amount),
			slog.Bool("eligible", session.Eligible),
		)

		return c.Edit(renderSubscribeDialog(session), kb.SubscribeDialog(session.Channel, session.CanSubscribe()))
	}
}

// HandleSubscribeConfirm submits the subscription. It refuses unless
// the stored session carries an eligible verdict for the exact amount
// on display. On success the dialog closes and the portfolio reloads.
func HandleSubscribeConfirm(api FundAPI, svc *portfolio.Service, fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		chatID := c.Sender().ID

		session, err := subscribeSession(ctx, fsm, chatID)
		if err != nil {
			return err
		}

		if !session.CanSubscribe() {
			return apperrors.NewStateError("subscription attempted without a fresh eligible check")
		}

		tx, err := api.Subscribe(ctx, domain.SubscriptionRequest{
			FundID:           session.FundID,
			Amount:           session.Amount,
			NotificationType: session.Channel,
		})
		if err != nil {
			log.Error("subscription failed",
				slog.Int64("chat_id", chatID),
				slog.Int64("fund_id", session.FundID),
				slog.Any("error", err),
			)
			// The dialog stays open so the user can adjust and retry.
			return apperrors.NewFundAPIError("subscribe", err)
		}

		if err := fsm.ClearState(ctx, chatID); err != nil {
			log.Warn("failed to close subscription dialog", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}

		log.Info("subscription created",
			slog.Int64("chat_id", chatID),
			slog.Int64("fund_id", session.FundID),
			slog.Float64("amount", session.Amount),
			slog.String("transaction_id", tx.TransactionID),
		)

		snapshot, err := svc.Reload(ctx, chatID)
		if err != nil {
			// Subscription went through. Report it even though the
			// refreshed view is unavailable.
			if sendErr := c.Send("Suscripción exitosa a " + session.FundName + " ✅"); sendErr != nil {
				return sendErr
			}
			return apperrors.NewFundAPIError("reload after subscribe", err)
		}

		text := "Suscripción exitosa a " + session.FundName + " ✅\n" +
			"Monto invertido: " + formatCOP(session.Amount) + "\n" +
			"Transacción: " + tx.TransactionID + "\n\n" +
			renderOverview(snapshot)

		return c.Send(text, kb.MainMenu())
	}
}

// HandleSubscribeClose dismisses the dialog without subscribing.
func HandleSubscribeClose(fsm state.StateMachine, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
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

		return c.Edit("Operación cancelada.", kb.MainMenu())
	}
}
