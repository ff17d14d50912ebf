package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingTransitions(t *testing.T) {
	allowed := [][2]BookingStatus{
		{BookingStatusPending, BookingStatusConfirmed},
		{BookingStatusPending, BookingStatusCancelled},
		{BookingStatusConfirmed, BookingStatusInProgress},
		{BookingStatusConfirmed, BookingStatusCancelled},
		{BookingStatusInProgress, BookingStatusCompleted},
		{BookingStatusInProgress, BookingStatusCancelled},
	}
	for _, pair := range allowed {
		assert.True(t, CanTransitionBooking(pair[0], pair[1]),
			"%s -> %s should be allowed", pair[0], pair[1])
	}

	denied := [][2]BookingStatus{
		{BookingStatusPending, BookingStatusInProgress},
		{BookingStatusPending, BookingStatusCompleted},
		{BookingStatusConfirmed, BookingStatusCompleted},
		{BookingStatusConfirmed, BookingStatusPending},
		{BookingStatusInProgress, BookingStatusConfirmed},
		{BookingStatusCompleted, BookingStatusCancelled},
		{BookingStatusCompleted, BookingStatusInProgress},
		{BookingStatusCancelled, BookingStatusConfirmed},
		{BookingStatusCancelled, BookingStatusPending},
		{BookingStatusPending, BookingStatusPending},
	}
	for _, pair := range denied {
		assert.False(t, CanTransitionBooking(pair[0], pair[1]),
			"%s -> %s should be rejected", pair[0], pair[1])
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	assert.True(t, BookingStatusCompleted.Terminal())
	assert.True(t, BookingStatusCancelled.Terminal())
	assert.False(t, BookingStatusPending.Terminal())
	assert.False(t, BookingStatusConfirmed.Terminal())
	assert.False(t, BookingStatusInProgress.Terminal())
}

func TestPaymentTransitions(t *testing.T) {
	assert.True(t, CanTransitionPayment(PaymentStatusPending, PaymentStatusPaid))
	assert.True(t, CanTransitionPayment(PaymentStatusPaid, PaymentStatusRefunded))

	assert.False(t, CanTransitionPayment(PaymentStatusPaid, PaymentStatusPending))
	assert.False(t, CanTransitionPayment(PaymentStatusPending, PaymentStatusRefunded))
	assert.False(t, CanTransitionPayment(PaymentStatusRefunded, PaymentStatusPaid))
	assert.False(t, CanTransitionPayment(PaymentStatusRefunded, PaymentStatusPending))
}

func TestOrderCancellable(t *testing.T) {
	now := time.Now()

	assert.True(t, (&Order{Status: OrderStatusPending}).Cancellable())
	assert.True(t, (&Order{Status: OrderStatusProcessing}).Cancellable())

	assert.False(t, (&Order{Status: OrderStatusShipped}).Cancellable())
	assert.False(t, (&Order{Status: OrderStatusDelivered}).Cancellable())
	assert.False(t, (&Order{Status: OrderStatusCancelled}).Cancellable())
	assert.False(t, (&Order{Status: OrderStatusProcessing, ShippedAt: &now}).Cancellable())
}

func TestAggregateOrderStatus(t *testing.T) {
	assert.Equal(t, OrderStatusProcessing, AggregateOrderStatus(nil))

	allProcessing := []OrderItem{
		{Status: ItemStatusProcessing},
		{Status: ItemStatusProcessing},
	}
	assert.Equal(t, OrderStatusProcessing, AggregateOrderStatus(allProcessing))

	partialShipped := []OrderItem{
		{Status: ItemStatusShipped},
		{Status: ItemStatusProcessing},
	}
	assert.Equal(t, OrderStatusShipped, AggregateOrderStatus(partialShipped))

	allShipped := []OrderItem{
		{Status: ItemStatusShipped},
		{Status: ItemStatusShipped},
	}
	assert.Equal(t, OrderStatusShipped, AggregateOrderStatus(allShipped))

	mixedDelivered := []OrderItem{
		{Status: ItemStatusDelivered},
		{Status: ItemStatusShipped},
	}
	assert.Equal(t, OrderStatusShipped, AggregateOrderStatus(mixedDelivered))

	allDelivered := []OrderItem{
		{Status: ItemStatusDelivered},
		{Status: ItemStatusDelivered},
	}
	assert.Equal(t, OrderStatusDelivered, AggregateOrderStatus(allDelivered))

	deliveredWithPending := []OrderItem{
		{Status: ItemStatusDelivered},
		{Status: ItemStatusProcessing},
	}
	assert.Equal(t, OrderStatusShipped, AggregateOrderStatus(deliveredWithPending))
}
