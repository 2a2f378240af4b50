package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fondos-co/fondos-bot/internal/bot/keyboard"
	"github.com/fondos-co/fondos-bot/internal/domain"
	"github.com/fondos-co/fondos-bot/internal/state"
)

func TestHandleCancelSelect_OpensConfirmation(t *testing.T) {
	api := &stubFundAPI{}
	expectFullLoad(api, testUser, testFunds, []domain.Subscription{
		{ID: 10, FundID: 4, Amount: 250000, IsActive: true, FundName: "FDO-ACCIONES"},
	})

	fsm := newMemoryFSM()
	c := newFakeContext(1).withCallback(keyboard.CallbackCancelSelect + "10")

	err := HandleCancelSelect(newTestService(api), fsm, testKeyboard(t), testLogger())(c)
	require.NoError(t, err)

	userState, err := fsm.GetState(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, state.StateCancelConfirm, userState.CurrentState)

	session, err := state.CancelSessionFrom(userState.Context)
	require.NoError(t, err)
	assert.Equal(t, int64(10), session.SubscriptionID)
	assert.Equal(t, "FDO-ACCIONES", session.FundName)

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "FDO-ACCIONES")
	assert.Contains(t, c.sent[0], "$250.000")
}

func TestHandleCancelSelect_InactiveSubscription(t *testing.T) {
	api := &stubFundAPI{}
	expectFullLoad(api, testUser, testFunds, []domain.Subscription{
		{ID: 11, FundID: 2, Amount: 125000, IsActive: false, FundName: "FPV_BTG_PACTUAL_ECOPETROL"},
	})

	fsm := newMemoryFSM()
	c := newFakeContext(1).withCallback(keyboard.CallbackCancelSelect + "11")

	err := HandleCancelSelect(newTestService(api), fsm, testKeyboard(t), testLogger())(c)
	require.NoError(t, err)

	_, err = fsm.GetState(context.Background(), 1)
	assert.ErrorIs(t, err, state.ErrStateNotFound, "closed subscriptions cannot be cancelled again")
	require.Len(t, c.responded, 1)
	assert.True(t, c.responded[0].ShowAlert)
}

func TestHandleCancelConfirm(t *testing.T) {
	api := &stubFundAPI{}
	api.On("Cancel", mock.Anything, domain.CancellationRequest{SubscriptionID: 10}).
		Return(&domain.Transaction{TransactionID: "tx-9", Type: domain.TransactionCancellation}, nil).Once()
	expectFullLoad(api, testUser, testFunds, nil)

	fsm := newMemoryFSM()
	sessionCtx, err := state.ToContext(&state.CancelSession{SubscriptionID: 10, FundName: "FDO-ACCIONES", Amount: 250000})
	require.NoError(t, err)
	require.NoError(t, fsm.SetState(context.Background(), 1, state.StateCancelConfirm, sessionCtx))

	c := newFakeContext(1).withCallback(keyboard.CallbackCancelConfirm)

	err = HandleCancelConfirm(api, newTestService(api), fsm, testKeyboard(t), testLogger())(c)
	require.NoError(t, err)

	_, err = fsm.GetState(context.Background(), 1)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
	assert.Equal(t, 1, api.loadCount(), "exactly one reload after the cancellation")

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "tx-9")
	assert.Contains(t, c.sent[0], "$250.000")

	api.AssertExpectations(t)
}

func TestHandleCancelConfirm_WithoutDialog(t *testing.T) {
	api := &stubFundAPI{}
	fsm := newMemoryFSM()

	c := newFakeContext(1).withCallback(keyboard.CallbackCancelConfirm)

	err := HandleCancelConfirm(api, newTestService(api), fsm, testKeyboard(t), testLogger())(c)
	require.Error(t, err)

	api.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestHandleCancelClose(t *testing.T) {
	fsm := newMemoryFSM()
	sessionCtx, err := state.ToContext(&state.CancelSession{SubscriptionID: 10})
	require.NoError(t, err)
	require.NoError(t, fsm.SetState(context.Background(), 1, state.StateCancelConfirm, sessionCtx))

	c := newFakeContext(1).withCallback(keyboard.CallbackCancelClose)

	err = HandleCancelClose(fsm, testKeyboard(t), testLogger())(c)
	require.NoError(t, err)

	_, err = fsm.GetState(context.Background(), 1)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
	require.Len(t, c.edited, 1)
	assert.Contains(t, c.edited[0], "sigue activa")
}
