package errors

import (
	"errors"
	"fmt"

	"github.com/fondos-co/fondos-bot/internal/fundapi"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("Dato inválido. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

func NewStorageError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("Storage error: %s", underlyingMsg),
		UserMessage: "Problema temporal, intenta de nuevo más tarde",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewFundAPIError wraps a failed fund-backend call. When the backend
// supplied a structured detail it becomes the user message, otherwise
// a generic one is shown. Retryable means the user may re-initiate the
// action, the bot itself never retries.
func NewFundAPIError(operation string, cause error) *AppError {
	userMessage := "El servicio de fondos no está disponible en este momento"
	severity := SeverityMedium

	var apiErr *fundapi.APIError
	if errors.As(cause, &apiErr) && apiErr != nil {
		if apiErr.Detail != "" {
			userMessage = apiErr.Detail
		}
		if apiErr.StatusCode >= 500 {
			severity = SeverityHigh
		}
	}

	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("Fund API error: %s", operation),
		UserMessage: userMessage,
		Severity:    severity,
		Retryable:   true,
		cause:       cause,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "La operación no es posible en el estado actual",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Demasiadas solicitudes. Intenta en %d segundos", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}
