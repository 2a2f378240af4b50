package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fondos-co/fondos-bot/internal/domain"
	"github.com/fondos-co/fondos-bot/internal/fundapi"
	"github.com/fondos-co/fondos-bot/pkg/metrics"
)

// recentTransactionsLimit caps the history slice fetched on every load.
const recentTransactionsLimit = 10

// API is the slice of the fund client the loader depends on.
type API interface {
	GetProfile(ctx context.Context) (*domain.User, error)
	GetBalance(ctx context.Context) (*domain.Balance, error)
	ListFunds(ctx context.Context) ([]domain.Fund, error)
	ListSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	ListTransactions(ctx context.Context, q fundapi.TransactionQuery) ([]domain.Transaction, error)
}

// Loader performs the full parallel fetch that backs every screen.
type Loader struct {
	api API
	log *slog.Logger
}

// NewLoader constructs a Loader over the fund API client.
func NewLoader(api API, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}

	return &Loader{api: api, log: log}
}

// Load fetches the five resources concurrently and waits for all of
// them to settle. If any fetch fails the whole load fails: no partial
// snapshot is ever returned.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	snapshot := &Snapshot{}

	fetch := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	fetch("profile", func() error {
		user, err := l.api.GetProfile(ctx)
		if err == nil {
			snapshot.User = user
		}
		return err
	})
	fetch("balance", func() error {
		balance, err := l.api.GetBalance(ctx)
		if err == nil {
			snapshot.Balance = balance
		}
		return err
	})
	fetch("funds", func() error {
		funds, err := l.api.ListFunds(ctx)
		if err == nil {
			snapshot.Funds = funds
		}
		return err
	})
	fetch("subscriptions", func() error {
		subscriptions, err := l.api.ListSubscriptions(ctx)
		if err == nil {
			snapshot.Subscriptions = subscriptions
		}
		return err
	})
	fetch("transactions", func() error {
		transactions, err := l.api.ListTransactions(ctx, fundapi.TransactionQuery{Limit: recentTransactionsLimit})
		if err == nil {
			snapshot.Transactions = transactions
		}
		return err
	})

	wg.Wait()

	if len(errs) > 0 {
		metrics.RecordReload("error", time.Since(start))
		l.log.Error("portfolio load failed",
			slog.Int("failed_fetches", len(errs)),
			slog.Any("error", errs[0]),
		)
		return nil, fmt.Errorf("load portfolio: %w", errs[0])
	}

	snapshot.LoadedAt = time.Now().UTC()
	metrics.RecordReload("ok", time.Since(start))

	return snapshot, nil
}
