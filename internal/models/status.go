package models

// OrderStatus is the aggregate fulfillment status of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// OrderItemStatus is the per-brand fulfillment sub-status of an order line.
type OrderItemStatus string

const (
	ItemStatusPending    OrderItemStatus = "PENDING"
	ItemStatusProcessing OrderItemStatus = "PROCESSING"
	ItemStatusShipped    OrderItemStatus = "SHIPPED"
	ItemStatusDelivered  OrderItemStatus = "DELIVERED"
)

// BookingStatus is the lifecycle status of a service booking.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "PENDING"
	BookingStatusConfirmed  BookingStatus = "CONFIRMED"
	BookingStatusInProgress BookingStatus = "IN_PROGRESS"
	BookingStatusCompleted  BookingStatus = "COMPLETED"
	BookingStatusCancelled  BookingStatus = "CANCELLED"
)

// PaymentStatus tracks settlement with the payment gateway.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

var bookingTransitions = map[BookingStatus]map[BookingStatus]bool{
	BookingStatusPending:    {BookingStatusConfirmed: true, BookingStatusCancelled: true},
	BookingStatusConfirmed:  {BookingStatusInProgress: true, BookingStatusCancelled: true},
	BookingStatusInProgress: {BookingStatusCompleted: true, BookingStatusCancelled: true},
	BookingStatusCompleted:  {},
	BookingStatusCancelled:  {},
}

// CanTransitionBooking reports whether a booking may move from one status to
// another. Anything outside the table is rejected.
func CanTransitionBooking(from, to BookingStatus) bool {
	return bookingTransitions[from][to]
}

// Terminal reports whether the booking status admits no further transitions.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentStatusPending: {PaymentStatusPaid: true},
	PaymentStatusPaid:    {PaymentStatusRefunded: true},
}

// CanTransitionPayment enforces PENDING -> PAID -> REFUNDED, never backwards.
func CanTransitionPayment(from, to PaymentStatus) bool {
	return paymentTransitions[from][to]
}

// Cancellable reports whether an order may still be cancelled by its owner.
func (o *Order) Cancellable() bool {
	if o.Status == OrderStatusCancelled || o.Status == OrderStatusShipped || o.Status == OrderStatusDelivered {
		return false
	}
	return o.ShippedAt == nil
}

// AggregateOrderStatus derives the order-level status from its items: every
// item delivered means DELIVERED, every item shipped or better means SHIPPED,
// any shipped item collapses partial shipment into SHIPPED, otherwise the
// order stays PROCESSING.
func AggregateOrderStatus(items []OrderItem) OrderStatus {
	if len(items) == 0 {
		return OrderStatusProcessing
	}

	shipped, delivered := 0, 0
	for _, item := range items {
		switch item.Status {
		case ItemStatusDelivered:
			delivered++
			shipped++
		case ItemStatusShipped:
			shipped++
		}
	}

	switch {
	case delivered == len(items):
		return OrderStatusDelivered
	case shipped == len(items):
		return OrderStatusShipped
	case shipped > 0:
		return OrderStatusShipped
	default:
		return OrderStatusProcessing
	}
}
