package store

import (
	"context"
	"database/sql"
	"fmt"

	"commerce-service/internal/models"
	"commerce-service/internal/refnum"
)

// CreateBooking persists the booking with a number allocated from the global
// booking counter, in one transaction.
func (s *Store) CreateBooking(ctx context.Context, booking *models.ServiceBooking) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	seq, err := s.nextSequence(ctx, tx, refnum.BookingCounter())
	if err != nil {
		return err
	}
	booking.BookingNumber = refnum.BookingNumber(seq)

	err = tx.GetContext(ctx, booking, `
		INSERT INTO service_bookings
			(booking_number, client_id, user_id, service_id, requirements, attachments,
			 scheduled_at, price, service_fee, total_amount, status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`,
		booking.BookingNumber, booking.ClientID, booking.UserID, booking.ServiceID,
		booking.Requirements, booking.Attachments, booking.ScheduledAt,
		booking.Price, booking.ServiceFee, booking.TotalAmount,
		booking.Status, booking.PaymentStatus)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	return tx.Commit()
}

// GetBookingByNumber retrieves a booking by its reference code
func (s *Store) GetBookingByNumber(ctx context.Context, bookingNumber string) (*models.ServiceBooking, error) {
	var booking models.ServiceBooking
	err := s.db.GetContext(ctx, &booking,
		"SELECT * FROM service_bookings WHERE booking_number = $1", bookingNumber)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFound("booking")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBookingByID retrieves a booking by ID
func (s *Store) GetBookingByID(ctx context.Context, id string) (*models.ServiceBooking, error) {
	var booking models.ServiceBooking
	err := s.db.GetContext(ctx, &booking,
		"SELECT * FROM service_bookings WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.NewNotFound("booking")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBookingsByClientID retrieves bookings paid for by a client, newest first
func (s *Store) GetBookingsByClientID(ctx context.Context, clientID string) ([]models.ServiceBooking, error) {
	var bookings []models.ServiceBooking
	err := s.db.SelectContext(ctx, &bookings,
		"SELECT * FROM service_bookings WHERE client_id = $1 ORDER BY created_at DESC", clientID)
	return bookings, err
}

// GetBookingsByProviderID retrieves bookings against a provider's services,
// newest first
func (s *Store) GetBookingsByProviderID(ctx context.Context, providerID string) ([]models.ServiceBooking, error) {
	var bookings []models.ServiceBooking
	err := s.db.SelectContext(ctx, &bookings, `
		SELECT b.* FROM service_bookings b
		JOIN services s ON s.id = b.service_id
		WHERE s.user_id = $1
		ORDER BY b.created_at DESC`, providerID)
	return bookings, err
}

// UpdateBookingStatus moves the booking from one status to another with a
// conditional write on the expected current status, so a concurrent
// transition loses cleanly instead of overwriting. When refund is set the
// payment status is marked REFUNDED in the same statement. Returns whether
// the transition applied.
func (s *Store) UpdateBookingStatus(ctx context.Context, bookingNumber string, from, to models.BookingStatus, refund bool) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if refund {
		res, err = s.db.ExecContext(ctx, `
			UPDATE service_bookings SET status = $1, payment_status = $2
			WHERE booking_number = $3 AND status = $4`,
			to, models.PaymentStatusRefunded, bookingNumber, from)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE service_bookings SET status = $1
			WHERE booking_number = $2 AND status = $3`,
			to, bookingNumber, from)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// MarkBookingPaid applies a verified gateway transaction to the booking.
// Conditional on payment_status still being PENDING, same idempotency
// contract as MarkOrderPaid. A paid booking moves PENDING -> CONFIRMED.
func (s *Store) MarkBookingPaid(ctx context.Context, bookingNumber, transactionRef string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE service_bookings
		SET payment_status = $1, paid_at = NOW(), status = $2, transaction_ref = $3
		WHERE booking_number = $4 AND payment_status = $5`,
		models.PaymentStatusPaid, models.BookingStatusConfirmed,
		transactionRef, bookingNumber, models.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
