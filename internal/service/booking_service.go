package service

import (
	"context"
	"fmt"
	"time"

	"commerce-service/internal/broker"
	"commerce-service/internal/gateway"
	"commerce-service/internal/models"
	"commerce-service/internal/redisclient"
	"commerce-service/internal/store"
	"commerce-service/internal/util"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// serviceFeeRate is the platform's cut of every booking.
const serviceFeeRate = 0.05

const scheduleLayout = "2006-01-02T15:04"

// BookingService orchestrates the service booking workflow: fee calculation
// with server-side price authority, the booking status state machine with
// role-gated transitions, and payment reconciliation for bookings.
type BookingService struct {
	store          *store.Store
	redis          *redisclient.Client
	gateway        *gateway.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger

	currency    string
	storeName   string
	frontendURL string
}

// NewBookingService creates a new booking service
func NewBookingService(
	store *store.Store,
	redis *redisclient.Client,
	gw *gateway.Client,
	eventPublisher *broker.EventPublisher,
	currency, storeName, frontendURL string,
) *BookingService {
	return &BookingService{
		store:          store,
		redis:          redis,
		gateway:        gw,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		currency:       currency,
		storeName:      storeName,
		frontendURL:    frontendURL,
	}
}

// CreateBookingRequest represents a request to book a service. Price is
// never part of it; the server derives all amounts from the catalog.
type CreateBookingRequest struct {
	ServiceID    string   `json:"service_id" binding:"required"`
	Requirements string   `json:"requirements,omitempty"`
	Date         string   `json:"date,omitempty"`
	Time         string   `json:"time,omitempty"`
	Attachments  []string `json:"attachments,omitempty"`
}

// CreateBooking persists a PENDING booking with a 5% service fee on top of
// the catalog price.
func (s *BookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest, userID string) (*models.ServiceBooking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	svc, err := s.store.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	scheduledAt, err := parseSchedule(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	price := svc.Price
	serviceFee := price * serviceFeeRate
	totalAmount := price + serviceFee

	booking := &models.ServiceBooking{
		ClientID:      userID,
		UserID:        svc.UserID,
		ServiceID:     svc.ID,
		Requirements:  req.Requirements,
		Attachments:   pq.StringArray(req.Attachments),
		ScheduledAt:   scheduledAt,
		Price:         price,
		ServiceFee:    serviceFee,
		TotalAmount:   totalAmount,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	util.BookingsCreatedTotal.Inc()
	s.logger.Info("Booking created",
		zap.String("booking_number", booking.BookingNumber),
		zap.String("service_id", svc.ID),
		zap.Float64("total_amount", totalAmount))

	event := &models.BookingCreatedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeBookingCreated),
		BookingID:     booking.ID,
		BookingNumber: booking.BookingNumber,
		ClientID:      booking.ClientID,
		ServiceID:     booking.ServiceID,
		TotalAmount:   booking.TotalAmount,
	}
	if err := s.eventPublisher.PublishBookingCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish booking.created event", zap.Error(err))
	}

	return booking, nil
}

// InitializePayment opens a hosted checkout session for an unpaid booking.
func (s *BookingService) InitializePayment(ctx context.Context, bookingNumber, userID string) (string, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.InitializePayment")
	defer span.End()

	booking, err := s.store.GetBookingByNumber(ctx, bookingNumber)
	if err != nil {
		return "", err
	}
	if booking.ClientID != userID {
		return "", models.NewNotFound("booking")
	}
	if booking.Status == models.BookingStatusCancelled {
		return "", models.ErrBookingCancelled
	}
	if booking.PaymentStatus == models.PaymentStatusPaid {
		return "", models.ErrAlreadyPaid
	}

	if link, err := s.redis.GetCheckoutLink(ctx, booking.BookingNumber); err == nil && link != "" {
		return link, nil
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	svc, err := s.store.GetServiceByID(ctx, booking.ServiceID)
	if err != nil {
		return "", err
	}

	paymentReq := &gateway.PaymentRequest{
		TxRef:       booking.BookingNumber,
		Amount:      formatAmount(booking.TotalAmount),
		Currency:    s.currency,
		RedirectURL: fmt.Sprintf("%s/bookings/%s/success", s.frontendURL, booking.ID),
		Customer: gateway.Customer{
			Email:       user.Email,
			PhoneNumber: user.PhoneNumber,
			Name:        fmt.Sprintf("%s %s", user.FirstName, user.LastName),
		},
		Customizations: gateway.Customizations{
			Title:       fmt.Sprintf("%s Service Booking", s.storeName),
			Description: fmt.Sprintf("Payment for %s", svc.Name),
		},
	}

	start := time.Now()
	link, err := s.gateway.CreatePayment(ctx, paymentReq)
	util.GatewayLatency.WithLabelValues("create_payment").Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("Booking payment init failed",
			zap.String("booking_number", booking.BookingNumber),
			zap.Error(err))
		return "", models.ErrGateway
	}

	util.PaymentsInitializedTotal.Inc()
	if err := s.redis.CacheCheckoutLink(ctx, booking.BookingNumber, link, checkoutLinkTTL); err != nil {
		s.logger.Warn("Failed to cache checkout link", zap.Error(err))
	}

	return link, nil
}

// VerifyPayment reconciles a gateway transaction against the booking. Same
// idempotency contract as order verification; a verified payment moves the
// booking PENDING -> CONFIRMED.
func (s *BookingService) VerifyPayment(ctx context.Context, txRef, transactionID string) (*models.ServiceBooking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.VerifyPayment")
	defer span.End()

	if seen, err := s.redis.TransactionSeen(ctx, txRef); err == nil && seen {
		util.PaymentsVerifiedTotal.WithLabelValues("duplicate").Inc()
		return s.store.GetBookingByNumber(ctx, txRef)
	}

	start := time.Now()
	result, err := s.gateway.VerifyTransaction(ctx, transactionID)
	util.GatewayLatency.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("Gateway verify call failed",
			zap.String("tx_ref", txRef),
			zap.Error(err))
		return nil, models.ErrGateway
	}

	if !result.Successful(txRef) {
		util.PaymentsVerifiedTotal.WithLabelValues("rejected").Inc()
		s.logger.Warn("Transaction verification rejected",
			zap.String("tx_ref", txRef),
			zap.String("gateway_status", result.Data.Status))
		return nil, models.ErrVerificationFailed
	}

	applied, err := s.store.MarkBookingPaid(ctx, txRef, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark booking paid: %w", err)
	}

	booking, err := s.store.GetBookingByNumber(ctx, txRef)
	if err != nil {
		return nil, err
	}

	if !applied {
		util.PaymentsVerifiedTotal.WithLabelValues("duplicate").Inc()
		return booking, nil
	}

	util.PaymentsVerifiedTotal.WithLabelValues("applied").Inc()
	util.BookingTransitionsTotal.WithLabelValues(string(models.BookingStatusConfirmed)).Inc()
	s.logger.Info("Booking payment confirmed",
		zap.String("booking_number", txRef),
		zap.String("transaction_ref", transactionID))

	if _, err := s.redis.MarkTransactionSeen(ctx, txRef, 24*time.Hour); err != nil {
		s.logger.Warn("Failed to mark transaction seen", zap.Error(err))
	}
	if err := s.redis.InvalidateCheckoutLink(ctx, txRef); err != nil {
		s.logger.Warn("Failed to drop checkout link", zap.Error(err))
	}

	// Tell the provider their service was booked and paid for.
	s.publishStatusChanged(ctx, booking, booking.UserID, booking.ClientID, false)

	return booking, nil
}

// UpdateBookingStatus drives a provider-side transition through the
// state-machine table. Only the provider owning the booked service may call
// it; cancelling a PAID booking marks it REFUNDED.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, providerID, bookingNumber string, newStatus models.BookingStatus) (*models.ServiceBooking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.UpdateBookingStatus")
	defer span.End()

	booking, err := s.store.GetBookingByNumber(ctx, bookingNumber)
	if err != nil {
		return nil, err
	}
	svc, err := s.store.GetServiceByID(ctx, booking.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.UserID != providerID {
		return nil, models.NewNotFound("booking")
	}

	if !models.CanTransitionBooking(booking.Status, newStatus) {
		util.BookingTransitionsRejected.Inc()
		return nil, &models.InvalidTransitionError{From: booking.Status, To: newStatus}
	}

	refund := newStatus == models.BookingStatusCancelled && booking.PaymentStatus == models.PaymentStatusPaid

	applied, err := s.store.UpdateBookingStatus(ctx, bookingNumber, booking.Status, newStatus, refund)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost a race against a concurrent transition; report against the
		// state that actually holds now.
		current, err := s.store.GetBookingByNumber(ctx, bookingNumber)
		if err != nil {
			return nil, err
		}
		return nil, &models.InvalidTransitionError{From: current.Status, To: newStatus}
	}

	util.BookingTransitionsTotal.WithLabelValues(string(newStatus)).Inc()
	s.logger.Info("Booking status updated",
		zap.String("booking_number", bookingNumber),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(newStatus)),
		zap.Bool("refunded", refund))

	updated, err := s.store.GetBookingByNumber(ctx, bookingNumber)
	if err != nil {
		return nil, err
	}

	// Provider acted, client is notified.
	s.publishStatusChanged(ctx, updated, updated.ClientID, providerID, refund)

	return updated, nil
}

// CancelClientBooking cancels the caller's own booking. Rejected once the
// provider is mid-service or the booking is terminal; a paid booking is
// marked REFUNDED.
func (s *BookingService) CancelClientBooking(ctx context.Context, bookingNumber, userID string) (*models.ServiceBooking, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CancelClientBooking")
	defer span.End()

	booking, err := s.store.GetBookingByNumber(ctx, bookingNumber)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != userID {
		return nil, models.NewNotFound("booking")
	}

	switch booking.Status {
	case models.BookingStatusCancelled:
		return nil, models.ErrAlreadyCancelled
	case models.BookingStatusCompleted:
		return nil, models.ErrCancelCompleted
	case models.BookingStatusInProgress:
		return nil, models.ErrCancelInProgress
	}

	refund := booking.PaymentStatus == models.PaymentStatusPaid

	applied, err := s.store.UpdateBookingStatus(ctx, bookingNumber, booking.Status, models.BookingStatusCancelled, refund)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, models.ErrAlreadyCancelled
	}

	util.BookingTransitionsTotal.WithLabelValues(string(models.BookingStatusCancelled)).Inc()
	s.logger.Info("Booking cancelled by client",
		zap.String("booking_number", bookingNumber),
		zap.Bool("refunded", refund))

	updated, err := s.store.GetBookingByNumber(ctx, bookingNumber)
	if err != nil {
		return nil, err
	}

	// Client acted, provider is notified.
	s.publishStatusChanged(ctx, updated, updated.UserID, userID, refund)

	return updated, nil
}

// GetClientBooking retrieves the caller's booking by reference code.
func (s *BookingService) GetClientBooking(ctx context.Context, bookingNumber, userID string) (*models.ServiceBooking, error) {
	booking, err := s.store.GetBookingByNumber(ctx, bookingNumber)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != userID {
		return nil, models.NewNotFound("booking")
	}
	return booking, nil
}

// GetProviderBooking retrieves a booking against the provider's service.
func (s *BookingService) GetProviderBooking(ctx context.Context, bookingNumber, providerID string) (*models.ServiceBooking, error) {
	booking, err := s.store.GetBookingByNumber(ctx, bookingNumber)
	if err != nil {
		return nil, err
	}
	svc, err := s.store.GetServiceByID(ctx, booking.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.UserID != providerID {
		return nil, models.NewNotFound("booking")
	}
	return booking, nil
}

// ListClientBookings retrieves the caller's bookings, newest first.
func (s *BookingService) ListClientBookings(ctx context.Context, userID string) ([]models.ServiceBooking, error) {
	return s.store.GetBookingsByClientID(ctx, userID)
}

// ListProviderBookings retrieves bookings against the caller's services,
// newest first.
func (s *BookingService) ListProviderBookings(ctx context.Context, providerID string) ([]models.ServiceBooking, error) {
	return s.store.GetBookingsByProviderID(ctx, providerID)
}

// publishStatusChanged emits a booking.status_changed event addressed to the
// counterparty. Failures are logged and swallowed; the transition is already
// committed.
func (s *BookingService) publishStatusChanged(ctx context.Context, booking *models.ServiceBooking, recipientID, actorID string, refunded bool) {
	recipient, err := s.store.GetUserByID(ctx, recipientID)
	if err != nil {
		s.logger.Warn("Notification recipient lookup failed",
			zap.String("booking_number", booking.BookingNumber),
			zap.Error(err))
		return
	}

	actorName := ""
	if actor, err := s.store.GetUserByID(ctx, actorID); err == nil {
		actorName = fmt.Sprintf("%s %s", actor.FirstName, actor.LastName)
	}

	serviceName := ""
	if svc, err := s.store.GetServiceByID(ctx, booking.ServiceID); err == nil {
		serviceName = svc.Name
	}

	event := &models.BookingStatusChangedEvent{
		BaseEvent:     newBaseEvent(models.EventTypeBookingStatusChanged),
		BookingID:     booking.ID,
		BookingNumber: booking.BookingNumber,
		ServiceName:   serviceName,
		NewStatus:     booking.Status,
		Refunded:      refunded,
		ActorName:     actorName,
		Recipient: models.EventRecipient{
			Email: recipient.Email,
			Name:  recipient.FirstName,
		},
	}
	if err := s.eventPublisher.PublishBookingStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish booking.status_changed event",
			zap.String("booking_number", booking.BookingNumber),
			zap.Error(err))
	}
}

// parseSchedule combines the request's date and time into a timestamp. An
// empty date means no schedule yet.
func parseSchedule(date, timeOfDay string) (*time.Time, error) {
	if date == "" {
		return nil, nil
	}
	if timeOfDay == "" {
		timeOfDay = "00:00"
	}
	parsed, err := time.Parse(scheduleLayout, fmt.Sprintf("%sT%s", date, timeOfDay))
	if err != nil {
		return nil, models.ErrInvalidSchedule
	}
	return &parsed, nil
}
