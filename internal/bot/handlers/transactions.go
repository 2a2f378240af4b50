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
	"github.com/fondos-co/fondos-bot/internal/i18n"
	"github.com/fondos-co/fondos-bot/internal/portfolio"
)

const transactionsPerPage = 5

// NewTransactionsHandler renders the recent transaction history with
// all filters off.
func NewTransactionsHandler(svc *portfolio.Service, kb *keyboard.Builder, tr i18n.Translator, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		snapshot, err := svc.Current(context.Background(), c.Sender().ID)
		if err != nil {
			return apperrors.NewFundAPIError("load transactions", err)
		}

		text, markup := renderTransactionPage(snapshot, kb, tr, "", 1)
		return c.Send(text, markup)
	}
}

// HandleTransactionFilter narrows the history view by transaction
// type. The filter runs over the stored snapshot, no backend call, and
// resets the view to the first page.
func HandleTransactionFilter(svc *portfolio.Service, kb *keyboard.Builder, tr i18n.Translator, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		filter, err := parseFilter(callbackPayload(c, keyboard.CallbackFilterPrefix))
		if err != nil {
			return err
		}

		snapshot, err := svc.Current(context.Background(), c.Sender().ID)
		if err != nil {
			return apperrors.NewFundAPIError("load transactions", err)
		}

		text, markup := renderTransactionPage(snapshot, kb, tr, filter, 1)
		return c.Edit(text, markup)
	}
}

// HandleTransactionPage moves within the filtered history. The payload
// carries the active filter and the requested page.
func HandleTransactionPage(svc *portfolio.Service, kb *keyboard.Builder, tr i18n.Translator, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		payload := callbackPayload(c, keyboard.CallbackTxPage)
		filterKey, pageRaw, found := strings.Cut(payload, ":")
		if !found {
			return apperrors.NewValidationError("Página desconocida")
		}

		filter, err := parseFilter(filterKey)
		if err != nil {
			return err
		}

		page, err := strconv.Atoi(pageRaw)
		if err != nil || page < 1 {
			return apperrors.NewValidationError("Página desconocida")
		}

		snapshot, err := svc.Current(context.Background(), c.Sender().ID)
		if err != nil {
			return apperrors.NewFundAPIError("load transactions", err)
		}

		text, markup := renderTransactionPage(snapshot, kb, tr, filter, page)
		return c.Edit(text, markup)
	}
}

func parseFilter(raw string) (domain.TransactionType, error) {
	switch domain.TransactionType(raw) {
	case "all", "":
		return "", nil
	case domain.TransactionSubscription:
		return domain.TransactionSubscription, nil
	case domain.TransactionCancellation:
		return domain.TransactionCancellation, nil
	default:
		return "", apperrors.NewValidationError("Filtro desconocido")
	}
}

func renderTransactionPage(snapshot *portfolio.Snapshot, kb *keyboard.Builder, tr i18n.Translator, filter domain.TransactionType, page int) (string, *telebot.ReplyMarkup) {
	transactions := snapshot.FilterTransactions(filter)

	totalPages := (len(transactions) + transactionsPerPage - 1) / transactionsPerPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * transactionsPerPage
	end := start + transactionsPerPage
	if end > len(transactions) {
		end = len(transactions)
	}

	var b strings.Builder
	switch filter {
	case domain.TransactionSubscription:
		b.WriteString("Historial — suscripciones\n\n")
	case domain.TransactionCancellation:
		b.WriteString("Historial — cancelaciones\n\n")
	default:
		b.WriteString("Historial de transacciones\n\n")
	}

	if len(transactions) == 0 {
		b.WriteString("No hay transacciones para mostrar.")
		appendCancelSection(&b, snapshot)
		return b.String(), transactionsMarkup(snapshot, kb, tr, filter, page, totalPages)
	}

	for _, tx := range transactions[start:end] {
		icon := "📥"
		verb := "Suscripción"
		if tx.Type == domain.TransactionCancellation {
			icon = "📤"
			verb = "Cancelación"
		}

		name := tx.FundName
		if name == "" {
			name = fmt.Sprintf("fondo %d", tx.FundID)
		}

		fmt.Fprintf(&b, "%s %s — %s\n    %s · %s · %s\n",
			icon,
			verb,
			name,
			formatCOP(tx.Amount),
			tx.CreatedAt.Format("02/01/2006 15:04"),
			tx.TransactionID,
		)
	}

	appendCancelSection(&b, snapshot)
	return b.String(), transactionsMarkup(snapshot, kb, tr, filter, page, totalPages)
}

func appendCancelSection(b *strings.Builder, snapshot *portfolio.Snapshot) {
	active := snapshot.ActiveSubscriptions()
	if len(active) == 0 {
		return
	}

	b.WriteString("\n\nCancelar suscripciones:\n")
	for _, sub := range active {
		fmt.Fprintf(b, "• %s — %s\n", sub.FundName, formatCOP(sub.Amount))
	}
}

// transactionsMarkup stacks the cancel rows for active subscriptions
// under the filter and pagination controls.
func transactionsMarkup(snapshot *portfolio.Snapshot, kb *keyboard.Builder, tr i18n.Translator, filter domain.TransactionType, page, totalPages int) *telebot.ReplyMarkup {
	markup := kb.TransactionHistory(tr, filter, page, totalPages)
	cancels := kb.ActiveSubscriptions(snapshot)
	markup.InlineKeyboard = append(markup.InlineKeyboard, cancels.InlineKeyboard...)
	return markup
}
