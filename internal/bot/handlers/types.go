package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"

	"github.com/fondos-co/fondos-bot/internal/domain"
)

// FundAPI is the slice of the fund client the handlers mutate through.
type FundAPI interface {
	CheckEligibility(ctx context.Context, fundID int64, amount float64) (*domain.EligibilityCheck, error)
	Subscribe(ctx context.Context, req domain.SubscriptionRequest) (*domain.Transaction, error)
	Cancel(ctx context.Context, req domain.CancellationRequest) (*domain.Transaction, error)
	UpdateNotificationPreference(ctx context.Context, preference domain.NotificationPreference) (*domain.User, error)
}

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler
