package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fondos-co/fondos-bot/internal/bot/keyboard"
	"github.com/fondos-co/fondos-bot/internal/ratelimit"
	"gopkg.in/telebot.v3"
)

// commandLimits maps mutating callback actions to their configured
// command-level rate limit names.
var commandLimits = map[string]string{
	keyboard.CallbackSubscribeConfirm: "subscribe",
	keyboard.CallbackCancelConfirm:    "cancel",
	keyboard.CallbackSubscribeCheck:   "eligibility",
}

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle returns a telebot middleware that enforces per-user rate limits.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		userID := sender.ID
		if m.rules.IsWhitelisted(userID) {
			return next(c)
		}

		if limit, window, err := m.rules.GetGlobalLimit(); err == nil {
			result, err := m.limiter.Check(context.Background(), "global", limit, window)
			if err == nil && !result.Allowed {
				if m.log != nil {
					m.log.Warn("global rate limit exceeded", slog.Int64("user_id", userID))
				}
				return c.Send("El servicio está saturado. Intenta de nuevo en unos minutos.")
			}
		}

		limit, window, err := m.rules.GetPerUserLimit()
		if err != nil {
			if m.log != nil {
				m.log.Error("failed to load per-user rate limit", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			return next(c)
		}

		key := fmt.Sprintf("user:%d", userID)
		result, err := m.limiter.Check(context.Background(), key, limit, window)
		if err != nil {
			if m.log != nil {
				m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			return next(c)
		}

		if !result.Allowed {
			if m.log != nil {
				m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID))
			}
			return c.Send("Demasiadas solicitudes. Intenta de nuevo en unos segundos.")
		}

		if command, ok := m.commandFor(c); ok {
			limit, window, err := m.rules.GetCommandLimit(command)
			if err != nil {
				if m.log != nil {
					m.log.Error("failed to load command rate limit", slog.String("command", command), slog.Any("error", err))
				}
				return next(c)
			}

			key := fmt.Sprintf("command:%s:%d", command, userID)
			result, err := m.limiter.Check(context.Background(), key, limit, window)
			if err != nil {
				if m.log != nil {
					m.log.Warn("rate limiter error", slog.String("command", command), slog.Any("error", err))
				}
				return next(c)
			}

			if !result.Allowed {
				if m.log != nil {
					m.log.Warn("command rate limit exceeded", slog.Int64("user_id", userID), slog.String("command", command))
				}
				return c.Send("Demasiadas solicitudes. Intenta de nuevo en unos segundos.")
			}
		}

		return next(c)
	}
}

func (m *RateLimitMiddleware) commandFor(c telebot.Context) (string, bool) {
	cb := c.Callback()
	if cb == nil {
		return "", false
	}

	data := strings.TrimSpace(cb.Data)
	for prefix, command := range commandLimits {
		if strings.HasPrefix(data, prefix) {
			return command, true
		}
	}
	return "", false
}
