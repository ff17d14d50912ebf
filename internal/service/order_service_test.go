package service

import (
	"testing"

	"commerce-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCalculateSubtotal(t *testing.T) {
	items := []OrderLineRequest{
		{ProductID: "p1", Quantity: 2, Price: 1000},
		{ProductID: "p2", Quantity: 1, Price: 500},
	}

	assert.InDelta(t, 2500.0, calculateSubtotal(items), 0.001)
	assert.Zero(t, calculateSubtotal(nil))
}

func TestAggregateQuantities(t *testing.T) {
	items := []OrderLineRequest{
		{ProductID: "p1", Quantity: 2, Size: "M"},
		{ProductID: "p1", Quantity: 1, Size: "L"},
		{ProductID: "p2", Quantity: 3},
	}

	quantities := aggregateQuantities(items)

	assert.Equal(t, 3, quantities["p1"])
	assert.Equal(t, 3, quantities["p2"])
	assert.Len(t, quantities, 2)
}

func TestBrandEarnings(t *testing.T) {
	items := []models.OrderItem{
		{Price: 100, Quantity: 2},
		{Price: 49.99, Quantity: 1},
	}

	assert.InDelta(t, 249.99, brandEarnings(items), 0.001)
	assert.Zero(t, brandEarnings(nil))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "2500.00", formatAmount(2500))
	assert.Equal(t, "49.99", formatAmount(49.99))
	assert.Equal(t, "0.10", formatAmount(0.1))
}

func TestNewBaseEvent(t *testing.T) {
	ev := newBaseEvent(models.EventTypeOrderCreated)

	assert.Equal(t, models.EventTypeOrderCreated, ev.EventType)
	assert.NotEmpty(t, ev.EventID)
	assert.False(t, ev.Timestamp.IsZero())

	other := newBaseEvent(models.EventTypeOrderCreated)
	assert.NotEqual(t, ev.EventID, other.EventID)
}
