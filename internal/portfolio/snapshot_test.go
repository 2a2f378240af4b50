package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fondos-co/fondos-bot/internal/domain"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		User:    &domain.User{ID: 1, Name: "Ana", Balance: 175000},
		Balance: &domain.Balance{UserID: 1, Balance: 175000},
		Funds: []domain.Fund{
			{ID: 1, Name: "FPV_BTG_PACTUAL_RECAUDADORA", MinimumAmount: 75000, Category: domain.CategoryFPV},
			{ID: 2, Name: "FPV_BTG_PACTUAL_ECOPETROL", MinimumAmount: 125000, Category: domain.CategoryFPV},
			{ID: 4, Name: "FDO-ACCIONES", MinimumAmount: 250000, Category: domain.CategoryFIC},
		},
		Subscriptions: []domain.Subscription{
			{ID: 10, FundID: 1, Amount: 75000, IsActive: true},
			{ID: 11, FundID: 2, Amount: 125000, IsActive: false},
			{ID: 12, FundID: 4, Amount: 250000, IsActive: true},
		},
		Transactions: []domain.Transaction{
			{TransactionID: "t1", Type: domain.TransactionSubscription, Amount: 75000},
			{TransactionID: "t2", Type: domain.TransactionCancellation, Amount: 125000},
			{TransactionID: "t3", Type: domain.TransactionSubscription, Amount: 250000},
		},
	}
}

func TestSnapshot_ActiveSubscriptions(t *testing.T) {
	s := sampleSnapshot()

	active := s.ActiveSubscriptions()
	assert.Len(t, active, 2)
	for _, sub := range active {
		assert.True(t, sub.IsActive)
	}
}

func TestSnapshot_IsSubscribed(t *testing.T) {
	s := sampleSnapshot()

	assert.True(t, s.IsSubscribed(1))
	assert.False(t, s.IsSubscribed(2), "a closed subscription does not count")
	assert.False(t, s.IsSubscribed(3))
}

func TestSnapshot_TotalInvested(t *testing.T) {
	s := sampleSnapshot()

	assert.Equal(t, float64(325000), s.TotalInvested())
}

func TestSnapshot_FilterTransactions(t *testing.T) {
	s := sampleSnapshot()

	all := s.FilterTransactions("")
	assert.Len(t, all, 3)

	subscriptions := s.FilterTransactions(domain.TransactionSubscription)
	assert.Len(t, subscriptions, 2)

	cancellations := s.FilterTransactions(domain.TransactionCancellation)
	assert.Len(t, cancellations, 1)
	assert.Equal(t, "t2", cancellations[0].TransactionID)

	// Filtering must never mutate the snapshot.
	all[0].TransactionID = "mutated"
	assert.Equal(t, "t1", s.Transactions[0].TransactionID)
	assert.Len(t, s.Transactions, 3)
}

func TestSnapshot_Lookups(t *testing.T) {
	s := sampleSnapshot()

	fund, ok := s.FundByID(4)
	assert.True(t, ok)
	assert.Equal(t, "FDO-ACCIONES", fund.Name)

	_, ok = s.FundByID(99)
	assert.False(t, ok)

	sub, ok := s.SubscriptionByID(11)
	assert.True(t, ok)
	assert.False(t, sub.IsActive)

	_, ok = s.SubscriptionByID(99)
	assert.False(t, ok)
}

func TestSnapshot_NilSafe(t *testing.T) {
	var s *Snapshot

	assert.Nil(t, s.ActiveSubscriptions())
	assert.False(t, s.IsSubscribed(1))
	assert.Nil(t, s.FilterTransactions(""))
}
