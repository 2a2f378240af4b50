package fundapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fondos-co/fondos-bot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_CheckEligibility(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/funds/2/eligibility", r.URL.Path)
		assert.Equal(t, "500000", r.URL.Query().Get("amount"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.EligibilityCheck{
			Eligible:       true,
			Message:        "Puedes suscribirte a este fondo",
			UserBalance:    500000,
			RequiredAmount: 500000,
			FundMinimum:    250000,
		})
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, 5*time.Second, testLogger())

	check, err := client.CheckEligibility(context.Background(), 2, 500000)
	require.NoError(t, err)
	require.NotNil(t, check)
	assert.True(t, check.Eligible)
	assert.Equal(t, float64(500000), check.UserBalance)
	assert.Equal(t, float64(250000), check.FundMinimum)
}

func TestClient_Subscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/subscriptions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req domain.SubscriptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(1), req.FundID)
		assert.Equal(t, float64(75000), req.Amount)
		assert.Equal(t, domain.NotificationSMS, req.NotificationType)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.Transaction{
			TransactionID: "a1b2c3",
			FundID:        1,
			Type:          domain.TransactionSubscription,
			Amount:        75000,
			Status:        "completed",
		})
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, 5*time.Second, testLogger())

	tx, err := client.Subscribe(context.Background(), domain.SubscriptionRequest{
		FundID:           1,
		Amount:           75000,
		NotificationType: domain.NotificationSMS,
	})
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, "a1b2c3", tx.TransactionID)
	assert.Equal(t, domain.TransactionSubscription, tx.Type)
}

func TestClient_ErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"No tiene saldo disponible para vincularse al fondo FPV_BTG_PACTUAL_RECAUDADORA"}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, 5*time.Second, testLogger())

	_, err := client.Subscribe(context.Background(), domain.SubscriptionRequest{FundID: 1, Amount: 1})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Detail, "No tiene saldo disponible")
}

func TestClient_ErrorEnvelopeFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"fund not found"}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, 5*time.Second, testLogger())

	_, err := client.GetFund(context.Background(), 99)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "fund not found", apiErr.Detail)
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := New(server.URL, time.Second, testLogger())

	_, err := client.ListFunds(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures must not be reported as backend errors")
}

func TestClient_ListTransactionsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transactions", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "subscription", r.URL.Query().Get("transaction_type"))
		assert.Empty(t, r.URL.Query().Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, 5*time.Second, testLogger())

	transactions, err := client.ListTransactions(context.Background(), TransactionQuery{
		Limit: 10,
		Type:  domain.TransactionSubscription,
	})
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestClient_MetricsLabelsUseRouteTemplates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, 5*time.Second, testLogger())
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		_, err := client.GetFund(ctx, id)
		require.NoError(t, err)
		_, err = client.CheckEligibility(ctx, id, 500000)
		require.NoError(t, err)
	}
	_, err := client.GetTransaction(ctx, "a1b2c3")
	require.NoError(t, err)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != "fund_api_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() != "path" {
					continue
				}
				assert.NotRegexp(t, `\d`, label.GetValue(),
					"resource ids must not reach the path label")
			}
		}
	}
}

func TestClient_UpdateNotificationPreference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/user/notification-preference", r.URL.Path)

		var req domain.PreferenceUpdateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, domain.NotificationSMS, req.NotificationPreference)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.User{ID: 1, NotificationPreference: domain.NotificationSMS})
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, 5*time.Second, testLogger())

	user, err := client.UpdateNotificationPreference(context.Background(), domain.NotificationSMS)
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationSMS, user.NotificationPreference)
}
