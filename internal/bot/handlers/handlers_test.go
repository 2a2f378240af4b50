package handlers

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	telebot "gopkg.in/telebot.v3"

	"github.com/fondos-co/fondos-bot/internal/bot/keyboard"
	"github.com/fondos-co/fondos-bot/internal/domain"
	"github.com/fondos-co/fondos-bot/internal/fundapi"
	"github.com/fondos-co/fondos-bot/internal/portfolio"
	"github.com/fondos-co/fondos-bot/internal/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeContext implements the slice of telebot.Context the handlers
// touch and records everything sent back to the user.
type fakeContext struct {
	telebot.Context

	sender   *telebot.User
	text     string
	callback *telebot.Callback

	sent      []string
	edited    []string
	responded []*telebot.CallbackResponse
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{sender: &telebot.User{ID: userID}}
}

func (c *fakeContext) Sender() *telebot.User        { return c.sender }
func (c *fakeContext) Text() string                 { return c.text }
func (c *fakeContext) Callback() *telebot.Callback  { return c.callback }

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	if text, ok := what.(string); ok {
		c.sent = append(c.sent, text)
	}
	return nil
}

func (c *fakeContext) Edit(what interface{}, _ ...interface{}) error {
	if text, ok := what.(string); ok {
		c.edited = append(c.edited, text)
	}
	return nil
}

func (c *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	c.responded = append(c.responded, resp...)
	return nil
}

func (c *fakeContext) withCallback(data string) *fakeContext {
	c.callback = &telebot.Callback{ID: "cb1", Data: data}
	return c
}

// memoryFSM is an in-memory StateMachine for handler tests.
type memoryFSM struct {
	mu     sync.Mutex
	states map[int64]*state.UserState
}

func newMemoryFSM() *memoryFSM {
	return &memoryFSM{states: make(map[int64]*state.UserState)}
}

func (m *memoryFSM) GetState(_ context.Context, userID int64) (*state.UserState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userState, ok := m.states[userID]
	if !ok {
		return nil, state.ErrStateNotFound
	}
	return userState, nil
}

func (m *memoryFSM) SetState(_ context.Context, userID int64, s state.State, contextData map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[userID] = &state.UserState{
		UserID:       userID,
		CurrentState: s,
		Context:      contextData,
		UpdatedAt:    time.Now().UTC(),
	}
	return nil
}

func (m *memoryFSM) TransitionTo(ctx context.Context, userID int64, newState state.State) error {
	return m.SetState(ctx, userID, newState, nil)
}

func (m *memoryFSM) ClearState(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, userID)
	return nil
}

func (m *memoryFSM) GetAllStates(_ context.Context) ([]*state.UserState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	states := make([]*state.UserState, 0, len(m.states))
	for _, s := range m.states {
		states = append(states, s)
	}
	return states, nil
}

// stubFundAPI satisfies both portfolio.API (reads) and FundAPI (writes).
type stubFundAPI struct {
	mock.Mock

	mu    sync.Mutex
	loads int
}

func (s *stubFundAPI) GetProfile(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()

	args := s.Called(ctx)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (s *stubFundAPI) GetBalance(ctx context.Context) (*domain.Balance, error) {
	args := s.Called(ctx)
	balance, _ := args.Get(0).(*domain.Balance)
	return balance, args.Error(1)
}

func (s *stubFundAPI) ListFunds(ctx context.Context) ([]domain.Fund, error) {
	args := s.Called(ctx)
	funds, _ := args.Get(0).([]domain.Fund)
	return funds, args.Error(1)
}

func (s *stubFundAPI) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	args := s.Called(ctx)
	subscriptions, _ := args.Get(0).([]domain.Subscription)
	return subscriptions, args.Error(1)
}

func (s *stubFundAPI) ListTransactions(ctx context.Context, q fundapi.TransactionQuery) ([]domain.Transaction, error) {
	args := s.Called(ctx, q)
	transactions, _ := args.Get(0).([]domain.Transaction)
	return transactions, args.Error(1)
}

func (s *stubFundAPI) CheckEligibility(ctx context.Context, fundID int64, amount float64) (*domain.EligibilityCheck, error) {
	args := s.Called(ctx, fundID, amount)
	check, _ := args.Get(0).(*domain.EligibilityCheck)
	return check, args.Error(1)
}

func (s *stubFundAPI) Subscribe(ctx context.Context, req domain.SubscriptionRequest) (*domain.Transaction, error) {
	args := s.Called(ctx, req)
	tx, _ := args.Get(0).(*domain.Transaction)
	return tx, args.Error(1)
}

func (s *stubFundAPI) Cancel(ctx context.Context, req domain.CancellationRequest) (*domain.Transaction, error) {
	args := s.Called(ctx, req)
	tx, _ := args.Get(0).(*domain.Transaction)
	return tx, args.Error(1)
}

func (s *stubFundAPI) UpdateNotificationPreference(ctx context.Context, preference domain.NotificationPreference) (*domain.User, error) {
	args := s.Called(ctx, preference)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (s *stubFundAPI) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// expectFullLoad arms the stub for one complete portfolio fetch.
func expectFullLoad(api *stubFundAPI, user *domain.User, funds []domain.Fund, subs []domain.Subscription) {
	api.On("GetProfile", mock.Anything).Return(user, nil).Once()
	api.On("GetBalance", mock.Anything).Return(&domain.Balance{UserID: user.ID, Balance: user.Balance}, nil).Once()
	api.On("ListFunds", mock.Anything).Return(funds, nil).Once()
	api.On("ListSubscriptions", mock.Anything).Return(subs, nil).Once()
	api.On("ListTransactions", mock.Anything, mock.Anything).Return([]domain.Transaction{}, nil).Once()
}

func newTestService(api *stubFundAPI) *portfolio.Service {
	return portfolio.NewService(portfolio.NewLoader(api, testLogger()), portfolio.NewStore(nil), testLogger())
}

func assertableAPIError(status int, detail string) *fundapi.APIError {
	return &fundapi.APIError{StatusCode: status, Method: "POST", Path: "/subscriptions", Detail: detail}
}

func testKeyboard(t *testing.T) *keyboard.Builder {
	t.Helper()
	return keyboard.NewBuilder(testLogger())
}

var testFunds = []domain.Fund{
	{ID: 1, Name: "FPV_BTG_PACTUAL_RECAUDADORA", MinimumAmount: 75000, Category: domain.CategoryFPV},
	{ID: 4, Name: "FDO-ACCIONES", MinimumAmount: 250000, Category: domain.CategoryFIC},
}

var testUser = &domain.User{
	ID:                     1,
	Name:                   "Ana",
	Balance:                500000,
	NotificationPreference: domain.NotificationSMS,
}
