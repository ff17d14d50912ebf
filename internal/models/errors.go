package models

import (
	"errors"
	"fmt"
)

// Sentinel domain errors. Services wrap them with %w to add context and the
// HTTP layer maps them onto status codes with errors.Is / errors.As.
var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrProductsUnavailable = errors.New("some products no longer exist")
	ErrTotalMismatch       = errors.New("order total mismatch")
	ErrAlreadyPaid         = errors.New("already paid")
	ErrOrderCancelled      = errors.New("cannot pay for a cancelled order")
	ErrBookingCancelled    = errors.New("cannot pay for a cancelled booking")
	ErrVerificationFailed  = errors.New("transaction verification failed")
	ErrInvalidSchedule     = errors.New("invalid schedule date or time")
	ErrAlreadyCancelled    = errors.New("already cancelled")
	ErrCancelAfterShipment = errors.New("cannot cancel an order that has already been shipped or delivered")
	ErrCancelInProgress    = errors.New("cannot cancel a booking that is already in progress, contact support")
	ErrCancelCompleted     = errors.New("cannot cancel a completed booking")
	ErrGateway             = errors.New("payment gateway communication failed")
)

// NotFoundError covers missing entities and entities the caller does not own.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// NewNotFound returns a NotFoundError for the named entity.
func NewNotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// InsufficientStockError names the offending product and how much is left.
type InsufficientStockError struct {
	ProductName string
	Remaining   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s, only %d left", e.ProductName, e.Remaining)
}

// InvalidTransitionError reports a booking status jump outside the
// transition table.
type InvalidTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}
