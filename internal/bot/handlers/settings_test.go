package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fondos-co/fondos-bot/internal/bot/keyboard"
	"github.com/fondos-co/fondos-bot/internal/domain"
)

func TestSettingsHandler_RendersProfile(t *testing.T) {
	api := &stubFundAPI{}
	expectFullLoad(api, testUser, testFunds, []domain.Subscription{
		{ID: 10, FundID: 4, Amount: 250000, IsActive: true},
	})

	c := newFakeContext(1).withCallback(keyboard.CallbackMenuSettings)

	err := NewSettingsHandler(newTestService(api), testKeyboard(t), testLogger())(c)
	require.NoError(t, err)

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Ana")
	assert.Contains(t, c.sent[0], "$500.000")
	assert.Contains(t, c.sent[0], "$250.000")
}

func TestHandlePreferenceSet_NoOp(t *testing.T) {
	api := &stubFundAPI{}
	expectFullLoad(api, testUser, testFunds, nil)

	// testUser already prefers SMS.
	c := newFakeContext(1).withCallback(keyboard.CallbackPreferenceSet + "sms")

	err := HandlePreferenceSet(api, newTestService(api), testKeyboard(t), testLogger())(c)
	require.NoError(t, err)

	api.AssertNotCalled(t, "UpdateNotificationPreference", mock.Anything, mock.Anything)
	assert.Equal(t, 1, api.loadCount(), "only the render load, no reload")
	require.Len(t, c.responded, 1)
}

func TestHandlePreferenceSet_Updates(t *testing.T) {
	api := &stubFundAPI{}
	expectFullLoad(api, testUser, testFunds, nil)
	api.On("UpdateNotificationPreference", mock.Anything, domain.NotificationEmail).
		Return(&domain.User{ID: 1, Name: "Ana", NotificationPreference: domain.NotificationEmail}, nil).Once()

	updatedUser := &domain.User{ID: 1, Name: "Ana", Balance: 500000, NotificationPreference: domain.NotificationEmail}
	expectFullLoad(api, updatedUser, testFunds, nil)

	c := newFakeContext(1).withCallback(keyboard.CallbackPreferenceSet + "email")

	err := HandlePreferenceSet(api, newTestService(api), testKeyboard(t), testLogger())(c)
	require.NoError(t, err)

	assert.Equal(t, 2, api.loadCount(), "render load plus one reload after the update")
	require.Len(t, c.edited, 1)
	assert.Contains(t, c.edited[0], "Email")

	api.AssertExpectations(t)
}

func TestHandlePreferenceSet_UnknownChannel(t *testing.T) {
	api := &stubFundAPI{}

	c := newFakeContext(1).withCallback(keyboard.CallbackPreferenceSet + "paloma")

	err := HandlePreferenceSet(api, newTestService(api), testKeyboard(t), testLogger())(c)
	require.Error(t, err)

	api.AssertNotCalled(t, "UpdateNotificationPreference", mock.Anything, mock.Anything)
}
