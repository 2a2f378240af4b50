// Package fundapi is the HTTP gateway to the fund-management backend.
// Every method issues exactly one request: no retries, no caching, no
// deduplication. Failures are logged and returned unchanged so the
// caller decides how to recover.
package fundapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fondos-co/fondos-bot/internal/domain"
	"github.com/fondos-co/fondos-bot/pkg/metrics"
)

const apiPrefix = "/api/v1"

// Client groups the remote operations by resource the way the backend
// exposes them under /api/v1.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// New builds a Client for the given base URL, e.g. http://localhost:8000.
func New(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetProfile fetches the account holder's profile.
func (c *Client) GetProfile(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/user/profile", "", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetBalance fetches the current available balance.
func (c *Client) GetBalance(ctx context.Context) (*domain.Balance, error) {
	var balance domain.Balance
	if err := c.do(ctx, http.MethodGet, "/user/balance", "", nil, nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// UpdateNotificationPreference persists a new notification channel and
// returns the updated profile.
func (c *Client) UpdateNotificationPreference(ctx context.Context, preference domain.NotificationPreference) (*domain.User, error) {
	payload := domain.PreferenceUpdateRequest{NotificationPreference: preference}

	var user domain.User
	if err := c.do(ctx, http.MethodPut, "/user/notification-preference", "", nil, payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListFunds returns the full fund catalog.
func (c *Client) ListFunds(ctx context.Context) ([]domain.Fund, error) {
	var funds []domain.Fund
	if err := c.do(ctx, http.MethodGet, "/funds", "", nil, nil, &funds); err != nil {
		return nil, err
	}
	return funds, nil
}

// GetFund returns a single catalog entry by id.
func (c *Client) GetFund(ctx context.Context, fundID int64) (*domain.Fund, error) {
	var fund domain.Fund
	path := fmt.Sprintf("/funds/%d", fundID)
	if err := c.do(ctx, http.MethodGet, "/funds/{id}", path, nil, nil, &fund); err != nil {
		return nil, err
	}
	return &fund, nil
}

// CheckEligibility asks the backend whether the (fund, amount) pair is
// currently subscribable for the user.
func (c *Client) CheckEligibility(ctx context.Context, fundID int64, amount float64) (*domain.EligibilityCheck, error) {
	query := url.Values{}
	query.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))

	var check domain.EligibilityCheck
	path := fmt.Sprintf("/funds/%d/eligibility", fundID)
	if err := c.do(ctx, http.MethodGet, "/funds/{id}/eligibility", path, query, nil, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// ListSubscriptions returns the user's subscriptions, active and closed.
func (c *Client) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	var subscriptions []domain.Subscription
	if err := c.do(ctx, http.MethodGet, "/user/subscriptions", "", nil, nil, &subscriptions); err != nil {
		return nil, err
	}
	return subscriptions, nil
}

// Subscribe opens a subscription and returns the resulting ledger entry.
func (c *Client) Subscribe(ctx context.Context, req domain.SubscriptionRequest) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := c.do(ctx, http.MethodPost, "/subscriptions", "", nil, req, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Cancel soft-closes the subscription and returns the resulting ledger entry.
func (c *Client) Cancel(ctx context.Context, req domain.CancellationRequest) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := c.do(ctx, http.MethodPost, "/cancellations", "", nil, req, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// TransactionQuery narrows and pages the transaction history listing.
type TransactionQuery struct {
	Limit  int
	Offset int
	Type   domain.TransactionType
}

// ListTransactions returns the transaction history, newest first.
func (c *Client) ListTransactions(ctx context.Context, q TransactionQuery) ([]domain.Transaction, error) {
	query := url.Values{}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		query.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Type != "" {
		query.Set("transaction_type", string(q.Type))
	}

	var transactions []domain.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions", "", query, nil, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// GetTransaction returns a single ledger record by its opaque identifier.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	var tx domain.Transaction
	path := "/transactions/" + url.PathEscape(transactionID)
	if err := c.do(ctx, http.MethodGet, "/transactions/{id}", path, nil, nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// HealthCheck probes the backend by listing the fund catalog.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ListFunds(ctx)
	return err
}

// do issues one request. route is the path template used as the
// metrics label so resource ids never become label values; path is the
// concrete request path and defaults to route when empty.
func (c *Client) do(ctx context.Context, method, route, path string, query url.Values, body, out interface{}) error {
	if path == "" {
		path = route
	}

	fullURL := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(method, route, "transport_error", time.Since(start))
		c.log.Error("fund api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordAPIRequest(method, route, "read_error", time.Since(start))
		return fmt.Errorf("read response body: %w", err)
	}

	metrics.RecordAPIRequest(method, route, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := newAPIError(method, path, resp.StatusCode, respBody)
		c.log.Error("fund api rejected request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("detail", apiErr.Detail),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		c.log.Error("fund api returned malformed body",
			slog.String("method", method),
			slog.String("path", path),
			slog.Any("error", err),
		)
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
