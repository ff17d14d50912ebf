package models

import "time"

// Event types published to the commerce events topic.
const (
	EventTypeOrderCreated         = "order.created"
	EventTypeOrderPaid            = "order.paid"
	EventTypeOrderCancelled       = "order.cancelled"
	EventTypeBookingCreated       = "booking.created"
	EventTypeBookingStatusChanged = "booking.status_changed"
)

// BaseEvent contains common event fields
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent is emitted after an order and its items are committed.
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	UserID      string  `json:"user_id"`
	Total       float64 `json:"total"`
	ItemCount   int     `json:"item_count"`
}

// OrderPaidEvent is emitted once payment reconciliation marks an order PAID.
type OrderPaidEvent struct {
	BaseEvent
	OrderID        string  `json:"order_id"`
	OrderNumber    string  `json:"order_number"`
	UserID         string  `json:"user_id"`
	Total          float64 `json:"total"`
	TransactionRef string  `json:"transaction_ref"`
}

// OrderCancelledEvent is emitted after cancellation and restock commit.
type OrderCancelledEvent struct {
	BaseEvent
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id"`
}

// BookingCreatedEvent is emitted after a booking is committed.
type BookingCreatedEvent struct {
	BaseEvent
	BookingID     string  `json:"booking_id"`
	BookingNumber string  `json:"booking_number"`
	ClientID      string  `json:"client_id"`
	ServiceID     string  `json:"service_id"`
	TotalAmount   float64 `json:"total_amount"`
}

// EventRecipient identifies who a notification should be delivered to.
type EventRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// BookingStatusChangedEvent is emitted after every successful booking status
// transition (including the CONFIRMED step driven by payment reconciliation
// and client/provider cancellations). The notification worker turns it into
// an email to the counterparty; delivery is best-effort.
type BookingStatusChangedEvent struct {
	BaseEvent
	BookingID     string         `json:"booking_id"`
	BookingNumber string         `json:"booking_number"`
	ServiceName   string         `json:"service_name"`
	NewStatus     BookingStatus  `json:"new_status"`
	Refunded      bool           `json:"refunded"`
	ActorName     string         `json:"actor_name"`
	Recipient     EventRecipient `json:"recipient"`
}
