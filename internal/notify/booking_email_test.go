package notify

import (
	"testing"

	"commerce-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func statusEvent(status models.BookingStatus, refunded bool) *models.BookingStatusChangedEvent {
	return &models.BookingStatusChangedEvent{
		BookingNumber: "BK-00042",
		ServiceName:   "Logo Design",
		NewStatus:     status,
		Refunded:      refunded,
		ActorName:     "Ada Lovelace",
		Recipient:     models.EventRecipient{Email: "client@example.com", Name: "Grace"},
	}
}

func TestBookingStatusEmailConfirmed(t *testing.T) {
	subject, html := BookingStatusEmail(statusEvent(models.BookingStatusConfirmed, false))

	assert.Contains(t, subject, "BK-00042")
	assert.Contains(t, subject, "accepted")
	assert.Contains(t, html, "Ada Lovelace")
	assert.Contains(t, html, "Logo Design")
	assert.Contains(t, html, "Hi Grace")
}

func TestBookingStatusEmailCompleted(t *testing.T) {
	subject, html := BookingStatusEmail(statusEvent(models.BookingStatusCompleted, false))

	assert.Contains(t, subject, "complete")
	assert.Contains(t, html, "completed")
}

func TestBookingStatusEmailCancelled(t *testing.T) {
	subject, html := BookingStatusEmail(statusEvent(models.BookingStatusCancelled, false))

	assert.Contains(t, subject, "cancelled")
	assert.NotContains(t, html, "refund")

	_, htmlRefunded := BookingStatusEmail(statusEvent(models.BookingStatusCancelled, true))
	assert.Contains(t, htmlRefunded, "refund has been initiated")
}

func TestBookingStatusEmailMissingActor(t *testing.T) {
	ev := statusEvent(models.BookingStatusInProgress, false)
	ev.ActorName = ""

	_, html := BookingStatusEmail(ev)
	assert.Contains(t, html, "Your counterparty")
}
