package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"commerce-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes commerce domain events. All publishing happens
// after the database transaction commits and is best-effort: callers log a
// failed publish and move on, they never roll back the committed state.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderCreated publishes an order.created event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderPaid publishes an order.paid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderCancelled publishes an order.cancelled event
func (ep *EventPublisher) PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishBookingCreated publishes a booking.created event
func (ep *EventPublisher) PublishBookingCreated(ctx context.Context, event *models.BookingCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, bookingKey(event.BookingID), event)
}

// PublishBookingStatusChanged publishes a booking.status_changed event
func (ep *EventPublisher) PublishBookingStatusChanged(ctx context.Context, event *models.BookingStatusChangedEvent) error {
	return ep.producer.PublishEvent(ctx, bookingKey(event.BookingID), event)
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order-%s", orderID)
}

func bookingKey(bookingID string) string {
	return fmt.Sprintf("booking-%s", bookingID)
}

// DecodeBookingStatusChanged unmarshals a message when it carries a
// booking.status_changed event; ok is false for every other event type.
func DecodeBookingStatusChanged(msg kafka.Message) (*models.BookingStatusChangedEvent, bool, error) {
	var base models.BaseEvent
	if err := json.Unmarshal(msg.Value, &base); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal base event: %w", err)
	}
	if base.EventType != models.EventTypeBookingStatusChanged {
		return nil, false, nil
	}

	var event models.BookingStatusChangedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal booking status event: %w", err)
	}
	return &event, true, nil
}
