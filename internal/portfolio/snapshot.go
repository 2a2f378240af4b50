// Package portfolio loads and holds the user's view of the fund system:
// profile, balance, catalog, subscriptions and recent transactions.
package portfolio

import (
	"time"

	"github.com/fondos-co/fondos-bot/internal/domain"
)

// Snapshot is one consistent load of every resource the bot renders.
// It is replaced wholesale on reload, never patched in place.
type Snapshot struct {
	User          *domain.User         `json:"user"`
	Balance       *domain.Balance      `json:"balance"`
	Funds         []domain.Fund        `json:"funds"`
	Subscriptions []domain.Subscription `json:"subscriptions"`
	Transactions  []domain.Transaction `json:"transactions"`
	LoadedAt      time.Time            `json:"loaded_at"`
}

// ActiveSubscriptions returns the subscriptions that are still open.
func (s *Snapshot) ActiveSubscriptions() []domain.Subscription {
	if s == nil {
		return nil
	}

	active := make([]domain.Subscription, 0, len(s.Subscriptions))
	for _, sub := range s.Subscriptions {
		if sub.IsActive {
			active = append(active, sub)
		}
	}

	return active
}

// IsSubscribed reports whether the user holds an active subscription to the fund.
func (s *Snapshot) IsSubscribed(fundID int64) bool {
	if s == nil {
		return false
	}

	for _, sub := range s.Subscriptions {
		if sub.IsActive && sub.FundID == fundID {
			return true
		}
	}

	return false
}

// SubscriptionByID finds a subscription in the snapshot.
func (s *Snapshot) SubscriptionByID(id int64) (domain.Subscription, bool) {
	if s == nil {
		return domain.Subscription{}, false
	}

	for _, sub := range s.Subscriptions {
		if sub.ID == id {
			return sub, true
		}
	}

	return domain.Subscription{}, false
}

// FundByID finds a catalog entry in the snapshot.
func (s *Snapshot) FundByID(id int64) (domain.Fund, bool) {
	if s == nil {
		return domain.Fund{}, false
	}

	for _, fund := range s.Funds {
		if fund.ID == id {
			return fund, true
		}
	}

	return domain.Fund{}, false
}

// TotalInvested sums the amounts of all active subscriptions.
func (s *Snapshot) TotalInvested() float64 {
	var total float64
	for _, sub := range s.ActiveSubscriptions() {
		total += sub.Amount
	}

	return total
}

// FilterTransactions narrows the loaded history by type. An empty type
// returns every record. This is a pure function over the snapshot, it
// never touches the network.
func (s *Snapshot) FilterTransactions(txType domain.TransactionType) []domain.Transaction {
	if s == nil {
		return nil
	}

	if txType == "" {
		result := make([]domain.Transaction, len(s.Transactions))
		copy(result, s.Transactions)
		return result
	}

	result := make([]domain.Transaction, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		if tx.Type == txType {
			result = append(result, tx)
		}
	}

	return result
}
