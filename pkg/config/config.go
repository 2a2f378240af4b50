// Package config provides configuration loading and validation utilities.
package config

import (
	"time"

	"github.com/fondos-co/fondos-bot/pkg/redis"
)

// Config holds runtime configuration for the fondos bot.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	FundAPI   FundAPIConfig   `mapstructure:"fund_api" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Redis     redis.Config    `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	State     StateConfig     `mapstructure:"state"`
}

// BotConfig configures the Telegram surface.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Mode    string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FundAPIConfig points the client at the fund-management backend.
type FundAPIConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures the operational HTTP server (health, metrics).
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig configures structured logging and file rotation.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// RateLimitRule pairs a request budget with its window.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitCommands holds per-action overrides.
type RateLimitCommands struct {
	Subscribe   RateLimitRule `mapstructure:"subscribe"`
	Cancel      RateLimitRule `mapstructure:"cancel"`
	Eligibility RateLimitRule `mapstructure:"eligibility"`
}

// RateLimitConfig holds rate limiting rules.
type RateLimitConfig struct {
	PerUser   RateLimitRule     `mapstructure:"per_user"`
	Global    RateLimitRule     `mapstructure:"global"`
	Commands  RateLimitCommands `mapstructure:"commands"`
	Whitelist []int64           `mapstructure:"whitelist"`
}

// StateConfig tunes the FSM session storage.
type StateConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}
