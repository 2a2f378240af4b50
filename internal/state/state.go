package state

import "time"

// State represents a finite-state machine state.
type State string

const (
	// StateIdle indicates that the bot is waiting for the next user command.
	StateIdle State = "idle"
	// StateSubscribeAmount indicates that the subscription dialog is open and
	// the user may edit the amount, pick a channel, or run an eligibility check.
	StateSubscribeAmount State = "subscribe_amount"
	// StateCancelConfirm indicates that the user is confirming a subscription cancellation.
	StateCancelConfirm State = "cancel_confirm"
	// StateError indicates that the bot is in an error state and requires recovery.
	StateError State = "error"
)

// UserState captures the current FSM state for a Telegram user.
type UserState struct {
	UserID       int64                  `json:"user_id"`
	CurrentState State                  `json:"current_state"`
	Context      map[string]interface{} `json:"context"`
	UpdatedAt    time.Time              `json:"updated_at"`
}
