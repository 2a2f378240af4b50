// Package domain contains the data contracts shared with the fund-management API.
package domain

import "time"

// NotificationPreference selects the channel used for fund notifications.
type NotificationPreference string

const (
	NotificationEmail NotificationPreference = "email"
	NotificationSMS   NotificationPreference = "sms"
)

// Valid reports whether the preference is one of the supported channels.
func (p NotificationPreference) Valid() bool {
	return p == NotificationEmail || p == NotificationSMS
}

// FundCategory distinguishes voluntary pension funds from collective investment funds.
type FundCategory string

const (
	CategoryFPV FundCategory = "FPV"
	CategoryFIC FundCategory = "FIC"
)

// TransactionType identifies the ledger event that produced a transaction.
type TransactionType string

const (
	TransactionSubscription TransactionType = "subscription"
	TransactionCancellation TransactionType = "cancellation"
)

// User is the backend's projection of the account holder.
type User struct {
	ID                     int64                  `json:"id"`
	Name                   string                 `json:"name"`
	Email                  string                 `json:"email"`
	Phone                  string                 `json:"phone"`
	Balance                float64                `json:"balance"`
	NotificationPreference NotificationPreference `json:"notification_preference"`
	IsActive               bool                   `json:"is_active"`
	CreatedAt              time.Time              `json:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at"`
}

// Balance is the response of the dedicated balance endpoint.
type Balance struct {
	UserID    int64   `json:"user_id"`
	Balance   float64 `json:"balance"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// Fund is a catalog entry. Immutable from the client's perspective.
type Fund struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	MinimumAmount float64      `json:"minimum_amount"`
	Category      FundCategory `json:"category"`
	Description   string       `json:"description,omitempty"`
	IsActive      bool         `json:"is_active"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Subscription links the user to a fund. Cancellation soft-closes it,
// the record itself is never deleted.
type Subscription struct {
	ID             int64        `json:"id"`
	UserID         int64        `json:"user_id"`
	FundID         int64        `json:"fund_id"`
	Amount         float64      `json:"amount"`
	IsActive       bool         `json:"is_active"`
	SubscribedAt   time.Time    `json:"subscribed_at"`
	UnsubscribedAt *time.Time   `json:"unsubscribed_at,omitempty"`
	FundName       string       `json:"fund_name,omitempty"`
	FundCategory   FundCategory `json:"fund_category,omitempty"`
	FundMinimum    float64      `json:"fund_minimum_amount,omitempty"`
}

// Transaction is an append-only ledger record produced by a subscribe
// or cancel operation.
type Transaction struct {
	ID            int64           `json:"id"`
	TransactionID string          `json:"transaction_id"`
	UserID        int64           `json:"user_id"`
	FundID        int64           `json:"fund_id"`
	Type          TransactionType `json:"transaction_type"`
	Amount        float64         `json:"amount"`
	Status        string          `json:"status"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	FundName      string          `json:"fund_name,omitempty"`
	FundCategory  FundCategory    `json:"fund_category,omitempty"`
	UserName      string          `json:"user_name,omitempty"`
	UserEmail     string          `json:"user_email,omitempty"`
}

// EligibilityCheck is the backend's verdict for a (fund, amount) pair.
// Transient: it is discarded once the subscription dialog closes.
type EligibilityCheck struct {
	Eligible       bool    `json:"eligible"`
	Message        string  `json:"message"`
	UserBalance    float64 `json:"user_balance"`
	RequiredAmount float64 `json:"required_amount"`
	FundMinimum    float64 `json:"fund_minimum"`
}

// SubscriptionRequest is the payload of POST /subscriptions.
type SubscriptionRequest struct {
	FundID           int64                  `json:"fund_id"`
	Amount           float64                `json:"amount"`
	NotificationType NotificationPreference `json:"notification_type,omitempty"`
}

// CancellationRequest is the payload of POST /cancellations.
type CancellationRequest struct {
	SubscriptionID int64 `json:"subscription_id"`
}

// PreferenceUpdateRequest is the payload of PUT /user/notification-preference.
type PreferenceUpdateRequest struct {
	NotificationPreference NotificationPreference `json:"notification_preference"`
}
