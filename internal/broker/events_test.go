package broker

import (
	"encoding/json"
	"testing"

	"commerce-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBookingStatusChanged(t *testing.T) {
	event := &models.BookingStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "ev-1",
			EventType: models.EventTypeBookingStatusChanged,
		},
		BookingNumber: "BK-00042",
		NewStatus:     models.BookingStatusConfirmed,
		Recipient:     models.EventRecipient{Email: "client@example.com", Name: "Grace"},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	decoded, ok, err := DecodeBookingStatusChanged(kafka.Message{Value: payload})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "BK-00042", decoded.BookingNumber)
	assert.Equal(t, models.BookingStatusConfirmed, decoded.NewStatus)
	assert.Equal(t, "client@example.com", decoded.Recipient.Email)
}

func TestDecodeBookingStatusChangedSkipsOtherEvents(t *testing.T) {
	payload, err := json.Marshal(&models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeOrderCreated},
	})
	require.NoError(t, err)

	_, ok, err := DecodeBookingStatusChanged(kafka.Message{Value: payload})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeBookingStatusChangedMalformed(t *testing.T) {
	_, ok, err := DecodeBookingStatusChanged(kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)
	assert.False(t, ok)
}
