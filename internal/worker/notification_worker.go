package worker

import (
	"context"

	"commerce-service/internal/broker"
	"commerce-service/internal/notify"
	"commerce-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NotificationWorker consumes commerce events and turns booking status
// changes into counterparty emails. It runs detached from the request path:
// the transition is already committed by the time an event reaches it, and a
// failed delivery is logged and dropped, never retried into the domain
// state.
type NotificationWorker struct {
	consumer *broker.Consumer
	mailer   *notify.Mailer
	logger   *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, mailer *notify.Mailer) *NotificationWorker {
	return &NotificationWorker{
		consumer: consumer,
		mailer:   mailer,
		logger:   util.GetLogger(),
	}
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	event, ok, err := broker.DecodeBookingStatusChanged(msg)
	if err != nil {
		// Malformed payloads are dropped, not redelivered.
		w.logger.Error("Failed to decode event", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	if event.Recipient.Email == "" {
		w.logger.Warn("Booking status event without recipient",
			zap.String("booking_number", event.BookingNumber))
		return nil
	}

	subject, html := notify.BookingStatusEmail(event)
	if err := w.mailer.Send(ctx, event.Recipient.Email, event.Recipient.Name, subject, html); err != nil {
		util.NotificationsFailedTotal.Inc()
		w.logger.Error("Failed to send booking notification",
			zap.String("booking_number", event.BookingNumber),
			zap.Error(err))
		return nil
	}

	util.NotificationsSentTotal.Inc()
	w.logger.Info("Booking notification sent",
		zap.String("booking_number", event.BookingNumber),
		zap.String("status", string(event.NewStatus)))
	return nil
}
