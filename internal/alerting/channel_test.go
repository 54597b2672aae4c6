package alerting

import (
	"context"
	"testing"
	"time"

	"github.com/alertline/alertline-api/internal/config"
	"github.com/alertline/alertline-api/internal/models"
	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInAppDeliverRecordsAndCreatesPreference(t *testing.T) {
	deliveries := &memDeliveryRepo{}
	prefs := newMemPreferenceRepo()
	mock := clock.NewMock()
	channel := NewInAppChannel(deliveries, prefs, mock, zerolog.Nop())

	alert := models.Alert{ID: "a1"}
	user := models.User{ID: "u1"}

	require.NoError(t, channel.Deliver(context.Background(), alert, user, false))

	records := deliveries.all()
	require.Len(t, records, 1)
	assert.Equal(t, "a1", records[0].AlertID)
	assert.Equal(t, "u1", records[0].UserID)
	assert.Equal(t, models.DeliveryInApp, records[0].Channel)
	assert.False(t, records[0].IsReminder)

	// Non-reminder delivery still creates the preference lazily, with no
	// reminder stamp.
	pref, ok := prefs.get("u1", "a1")
	require.True(t, ok)
	assert.False(t, pref.IsRead)
	assert.Nil(t, pref.LastReminder)
}

func TestInAppDeliverReminderStampsLastReminder(t *testing.T) {
	deliveries := &memDeliveryRepo{}
	prefs := newMemPreferenceRepo()
	mock := clock.NewMock()
	mock.Add(12 * time.Hour)
	channel := NewInAppChannel(deliveries, prefs, mock, zerolog.Nop())

	alert := models.Alert{ID: "a1"}
	user := models.User{ID: "u1"}

	require.NoError(t, channel.Deliver(context.Background(), alert, user, true))

	records := deliveries.all()
	require.Len(t, records, 1)
	assert.True(t, records[0].IsReminder)

	pref, ok := prefs.get("u1", "a1")
	require.True(t, ok)
	require.NotNil(t, pref.LastReminder)
	assert.Equal(t, mock.Now(), *pref.LastReminder)
}

func TestInAppDeliverDuplicateTimestampFails(t *testing.T) {
	deliveries := &memDeliveryRepo{}
	prefs := newMemPreferenceRepo()
	mock := clock.NewMock()
	channel := NewInAppChannel(deliveries, prefs, mock, zerolog.Nop())

	alert := models.Alert{ID: "a1"}
	user := models.User{ID: "u1"}

	require.NoError(t, channel.Deliver(context.Background(), alert, user, false))

	// Same instant, same pair: the unique constraint rejects the write and
	// the channel reports it as a delivery failure.
	err := channel.Deliver(context.Background(), alert, user, false)
	var deliveryErr *DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, "u1", deliveryErr.UserID)

	assert.Len(t, deliveries.all(), 1)
}

func TestEmailChannelUnconfiguredIsNoop(t *testing.T) {
	channel := NewEmailChannel(config.EmailConfig{}, zerolog.Nop())

	err := channel.Deliver(context.Background(), models.Alert{ID: "a1"}, models.User{ID: "u1", Email: "u1@example.com"}, false)
	assert.NoError(t, err)
}

func TestSMSChannelStubReportsSuccess(t *testing.T) {
	channel := NewSMSChannel(config.SMSConfig{}, zerolog.Nop())

	err := channel.Deliver(context.Background(), models.Alert{ID: "a1"}, models.User{ID: "u1"}, true)
	assert.NoError(t, err)
	assert.Equal(t, "sms(stub)", channel.String())
}

func TestChannelsLookup(t *testing.T) {
	inApp := &stubChannel{name: "in_app"}
	channels := Channels{InApp: inApp}

	got, ok := channels.lookup(models.DeliveryInApp)
	require.True(t, ok)
	assert.Equal(t, inApp, got)

	_, ok = channels.lookup(models.DeliveryEmail)
	assert.False(t, ok, "nil slot must not resolve")

	_, ok = channels.lookup(models.DeliveryType("fax"))
	assert.False(t, ok, "unknown delivery type must not resolve")
}
