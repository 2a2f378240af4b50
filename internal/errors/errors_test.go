package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fondos-co/fondos-bot/internal/fundapi"
)

func TestNewFundAPIError_BackendDetailBecomesUserMessage(t *testing.T) {
	apiErr := &fundapi.APIError{
		StatusCode: 400,
		Method:     "POST",
		Path:       "/subscriptions",
		Detail:     "Saldo insuficiente para el monto solicitado",
	}

	appErr := NewFundAPIError("subscribe", fmt.Errorf("subscribe: %w", apiErr))

	assert.Equal(t, "E300", appErr.Code)
	assert.Equal(t, "Saldo insuficiente para el monto solicitado", appErr.UserMessage)
	assert.Equal(t, SeverityMedium, appErr.Severity)
	assert.True(t, appErr.Retryable)
}

func TestNewFundAPIError_ServerErrorIsHighSeverity(t *testing.T) {
	apiErr := &fundapi.APIError{StatusCode: 503, Method: "GET", Path: "/funds"}

	appErr := NewFundAPIError("list funds", apiErr)

	assert.Equal(t, SeverityHigh, appErr.Severity)
	assert.Equal(t, "El servicio de fondos no está disponible en este momento", appErr.UserMessage)
}

func TestNewFundAPIError_TransportFailure(t *testing.T) {
	appErr := NewFundAPIError("load portfolio", stderrors.New("connection refused"))

	assert.Equal(t, SeverityMedium, appErr.Severity)
	assert.True(t, appErr.Retryable)
	assert.Equal(t, "El servicio de fondos no está disponible en este momento", appErr.UserMessage)
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	appErr := NewStorageError(cause)

	require.ErrorIs(t, appErr, cause)
	assert.True(t, appErr.Retryable)
}

func TestNewStateError_NotRetryable(t *testing.T) {
	appErr := NewStateError("subscription attempted without a fresh eligible check")

	assert.Equal(t, "E400", appErr.Code)
	assert.False(t, appErr.Retryable)
	assert.Equal(t, "La operación no es posible en el estado actual", appErr.UserMessage)
}
