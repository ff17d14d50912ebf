package notify

import (
	"fmt"

	"commerce-service/internal/models"
)

// BookingStatusEmail renders the subject and HTML body announcing a booking
// status change to its recipient. Content mirrors what the storefront shows
// for each lifecycle step.
func BookingStatusEmail(ev *models.BookingStatusChangedEvent) (subject, html string) {
	actor := ev.ActorName
	if actor == "" {
		actor = "Your counterparty"
	}

	var message string
	switch ev.NewStatus {
	case models.BookingStatusConfirmed:
		subject = fmt.Sprintf("Your booking %s has been accepted", ev.BookingNumber)
		message = fmt.Sprintf("Great news! %s has accepted your booking for <strong>%s</strong>. Your service is now confirmed and the provider will begin working on it soon.", actor, ev.ServiceName)
	case models.BookingStatusInProgress:
		subject = fmt.Sprintf("Your service is now in progress: %s", ev.BookingNumber)
		message = fmt.Sprintf("%s has started working on your booking for <strong>%s</strong>. You will be notified when the service is complete.", actor, ev.ServiceName)
	case models.BookingStatusCompleted:
		subject = fmt.Sprintf("Your service is complete: %s", ev.BookingNumber)
		message = fmt.Sprintf("%s has marked your booking for <strong>%s</strong> as completed. We hope you had a great experience!", actor, ev.ServiceName)
	case models.BookingStatusCancelled:
		subject = fmt.Sprintf("Booking %s has been cancelled", ev.BookingNumber)
		message = fmt.Sprintf("%s has cancelled the booking for <strong>%s</strong>.", actor, ev.ServiceName)
		if ev.Refunded {
			message += " The booking was already paid and a refund has been initiated."
		}
	default:
		subject = fmt.Sprintf("Booking %s update", ev.BookingNumber)
		message = fmt.Sprintf("The status of your booking for <strong>%s</strong> is now %s.", ev.ServiceName, ev.NewStatus)
	}

	html = fmt.Sprintf(
		"<p>Hi %s,</p><p>%s</p><p>Booking reference: <strong>%s</strong></p>",
		ev.Recipient.Name, message, ev.BookingNumber)
	return subject, html
}
