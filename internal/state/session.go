package state

import (
	"encoding/json"
	"fmt"

	"github.com/fondos-co/fondos-bot/internal/domain"
)

// SubscribeSession is the typed view of the FSM context while the
// subscription dialog is open.
type SubscribeSession struct {
	FundID        int64                         `json:"fund_id"`
	FundName      string                        `json:"fund_name"`
	MinimumAmount float64                       `json:"minimum_amount"`
	Amount        float64                       `json:"amount"`
	Channel       domain.NotificationPreference `json:"channel"`

	// Eligibility verdict for CheckedAmount. Checked is false until the
	// backend has been asked for the amount currently displayed.
	Checked        bool    `json:"checked"`
	Eligible       bool    `json:"eligible"`
	CheckedAmount  float64 `json:"checked_amount"`
	Message        string  `json:"message,omitempty"`
	UserBalance    float64 `json:"user_balance,omitempty"`
	RequiredAmount float64 `json:"required_amount,omitempty"`
}

// SetAmount replaces the dialog amount. Any previous eligibility
// verdict is for a stale amount and is discarded here, so the
// subscribe action stays locked until the user re-checks.
func (s *SubscribeSession) SetAmount(amount float64) {
	s.Amount = amount
	s.Checked = false
	s.Eligible = false
	s.CheckedAmount = 0
	s.Message = ""
	s.UserBalance = 0
	s.RequiredAmount = 0
}

// ApplyCheck records a fresh backend verdict for the current amount.
func (s *SubscribeSession) ApplyCheck(check *domain.EligibilityCheck) {
	if check == nil {
		return
	}

	s.Checked = true
	s.Eligible = check.Eligible
	s.CheckedAmount = s.Amount
	s.Message = check.Message
	s.UserBalance = check.UserBalance
	s.RequiredAmount = check.RequiredAmount
}

// CanSubscribe reports whether the subscribe action is unlocked: the
// last check must be eligible and must cover the displayed amount.
func (s *SubscribeSession) CanSubscribe() bool {
	return s != nil && s.Checked && s.Eligible && s.CheckedAmount == s.Amount
}

// CancelSession is the typed view of the FSM context while the
// cancellation confirmation dialog is open.
type CancelSession struct {
	SubscriptionID int64   `json:"subscription_id"`
	FundName       string  `json:"fund_name"`
	Amount         float64 `json:"amount"`
}

// ToContext serializes the session into the FSM context map.
func ToContext(session interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	var ctx map[string]interface{}
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("decode session context: %w", err)
	}

	return ctx, nil
}

// SubscribeSessionFrom rebuilds the typed session from a stored context map.
func SubscribeSessionFrom(ctx map[string]interface{}) (*SubscribeSession, error) {
	var session SubscribeSession
	if err := fromContext(ctx, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// CancelSessionFrom rebuilds the typed session from a stored context map.
func CancelSessionFrom(ctx map[string]interface{}) (*CancelSession, error) {
	var session CancelSession
	if err := fromContext(ctx, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

func fromContext(ctx map[string]interface{}, out interface{}) error {
	if ctx == nil {
		return fmt.Errorf("session context is empty")
	}

	data, err := json.Marshal(ctx)
	if err != nil {
		return fmt.Errorf("encode session context: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}

	return nil
}
