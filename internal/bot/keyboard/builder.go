package keyboard

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/fondos-co/fondos-bot/internal/domain"
	"github.com/fondos-co/fondos-bot/internal/i18n"
	"github.com/fondos-co/fondos-bot/internal/portfolio"
)

// Callback data prefixes shared between the builder and the router.
const (
	CallbackMenuFunds        = "menu_funds"
	CallbackMenuHistory      = "menu_history"
	CallbackMenuSettings     = "menu_settings"
	CallbackFundSelect       = "fund_select:"
	CallbackSubscribeCheck   = "sub_check"
	CallbackSubscribeChannel = "sub_channel:"
	CallbackSubscribeConfirm = "sub_confirm"
	CallbackSubscribeClose   = "sub_close"
	CallbackCancelSelect     = "cancel_sub:"
	CallbackCancelConfirm    = "cancel_confirm"
	CallbackCancelClose      = "cancel_close"
	CallbackFilterPrefix     = "tx_filter:"
	CallbackTxPage           = "tx_page:"
	CallbackPreferenceSet    = "pref_set:"
)

// Builder creates inline keyboards for the bot screens.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{log: log}
}

// MainMenu builds the idle state menu.
func (b *Builder) MainMenu() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{
				Text: "Fondos 📈",
				Data: CallbackMenuFunds,
			},
		},
		{
			{
				Text: "Historial 📋",
				Data: CallbackMenuHistory,
			},
		},
		{
			{
				Text: "Configuración ⚙️",
				Data: CallbackMenuSettings,
			},
		},
	}
	return markup
}

// FundList builds one row per fund. Funds the user already holds an
// active subscription to render as informational buttons without a
// subscribe callback.
func (b *Builder) FundList(snapshot *portfolio.Snapshot) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	if snapshot == nil {
		return markup
	}

	rows := make([][]telebot.InlineButton, 0, len(snapshot.Funds))
	for _, fund := range snapshot.Funds {
		if snapshot.IsSubscribed(fund.ID) {
			rows = append(rows, []telebot.InlineButton{
				{
					Text: fmt.Sprintf("✅ %s (%s) — ya suscrito", fund.Name, fund.Category),
					Data: "noop",
				},
			})
			continue
		}

		rows = append(rows, []telebot.InlineButton{
			{
				Text: fmt.Sprintf("➕ %s (%s)", fund.Name, fund.Category),
				Data: fmt.Sprintf("%s%d", CallbackFundSelect, fund.ID),
			},
		})
	}

	markup.InlineKeyboard = rows
	return markup
}

// SubscribeDialog builds the subscription dialog buttons. The
// subscribe button is only present once the current amount has a
// fresh eligible verdict.
func (b *Builder) SubscribeDialog(channel domain.NotificationPreference, canSubscribe bool) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}

	emailLabel := "Email"
	smsLabel := "SMS"
	switch channel {
	case domain.NotificationEmail:
		emailLabel = "• Email •"
	case domain.NotificationSMS:
		smsLabel = "• SMS •"
	}

	rows := [][]telebot.InlineButton{
		{
			{
				Text: emailLabel,
				Data: CallbackSubscribeChannel + string(domain.NotificationEmail),
			},
			{
				Text: smsLabel,
				Data: CallbackSubscribeChannel + string(domain.NotificationSMS),
			},
		},
		{
			{
				Text: "Verificar elegibilidad 🔍",
				Data: CallbackSubscribeCheck,
			},
		},
	}

	if canSubscribe {
		rows = append(rows, []telebot.InlineButton{
			{
				Text: "Suscribirse ✅",
				Data: CallbackSubscribeConfirm,
			},
		})
	}

	rows = append(rows, []telebot.InlineButton{
		{
			Text: "Cancelar ❌",
			Data: CallbackSubscribeClose,
		},
	})

	markup.InlineKeyboard = rows
	return markup
}

// ActiveSubscriptions builds one cancel button per active subscription.
func (b *Builder) ActiveSubscriptions(snapshot *portfolio.Snapshot) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	if snapshot == nil {
		return markup
	}

	active := snapshot.ActiveSubscriptions()
	rows := make([][]telebot.InlineButton, 0, len(active))
	for _, sub := range active {
		rows = append(rows, []telebot.InlineButton{
			{
				Text: fmt.Sprintf("🚫 Cancelar %s", sub.FundName),
				Data: fmt.Sprintf("%s%d", CallbackCancelSelect, sub.ID),
			},
		})
	}

	markup.InlineKeyboard = rows
	return markup
}

// CancelDialog builds the cancellation confirmation buttons.
func (b *Builder) CancelDialog() *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{
				Text: "Confirmar cancelación ✅",
				Data: CallbackCancelConfirm,
			},
			{
				Text: "Volver ❌",
				Data: CallbackCancelClose,
			},
		},
	}
	return markup
}

// TransactionFilters builds the history filter row, marking the active filter.
func (b *Builder) TransactionFilters(active domain.TransactionType) *telebot.ReplyMarkup {
	label := func(text string, current domain.TransactionType) string {
		if current == active {
			return "• " + text + " •"
		}
		return text
	}

	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{
				Text: label("Todas", ""),
				Data: CallbackFilterPrefix + "all",
			},
			{
				Text: label("Suscripciones", domain.TransactionSubscription),
				Data: CallbackFilterPrefix + string(domain.TransactionSubscription),
			},
			{
				Text: label("Cancelaciones", domain.TransactionCancellation),
				Data: CallbackFilterPrefix + string(domain.TransactionCancellation),
			},
		},
	}
	return markup
}

// TransactionHistory combines the filter row with pagination controls
// when the filtered history spans more than one page.
func (b *Builder) TransactionHistory(t i18n.Translator, active domain.TransactionType, page, totalPages int) *telebot.ReplyMarkup {
	markup := b.TransactionFilters(active)

	if totalPages <= 1 {
		return markup
	}

	filterKey := "all"
	if active != "" {
		filterKey = string(active)
	}

	row := make([]telebot.InlineButton, 0, 3)
	for _, btn := range PaginationButtons(t, CallbackTxPage+filterKey, page, totalPages) {
		encoded, err := EncodeCallback(btn.Unique, btn.Data)
		if err != nil {
			if b.log != nil {
				b.log.Warn("skipping oversized pagination callback", "error", err)
			}
			continue
		}
		row = append(row, telebot.InlineButton{Text: btn.Text, Data: encoded})
	}

	if len(row) > 0 {
		markup.InlineKeyboard = append(markup.InlineKeyboard, row)
	}

	return markup
}

// PreferenceButtons builds the notification preference selector. The
// persisted preference renders marked so saving it again is a no-op.
func (b *Builder) PreferenceButtons(current domain.NotificationPreference) *telebot.ReplyMarkup {
	label := func(text string, value domain.NotificationPreference) string {
		if value == current {
			return "• " + text + " •"
		}
		return text
	}

	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{
				Text: label("Email 📧", domain.NotificationEmail),
				Data: CallbackPreferenceSet + string(domain.NotificationEmail),
			},
			{
				Text: label("SMS 📱", domain.NotificationSMS),
				Data: CallbackPreferenceSet + string(domain.NotificationSMS),
			},
		},
	}
	return markup
}
