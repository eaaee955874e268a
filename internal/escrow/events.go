package escrow

import "gigpay-backend/internal/models"

// Lifecycle event types handed to the notifier.
const (
	EventProjectOffer    = "project_offer"
	EventOfferAccepted   = "offer_accepted"
	EventOfferRejected   = "offer_rejected"
	EventAdvancePaid     = "advance_paid"
	EventWorkCompleted   = "work_completed"
	EventFinalPaid       = "final_paid"
	EventPaymentReleased = "payment_released"
)

// Event is what a transition emits toward the notification fan-out. Delivery
// is best-effort and must never block or fail the transition.
type Event struct {
	Type    string
	Title   string
	Message string
	// ActorName is the display name of the party that triggered the event.
	ActorName string
	Project   *models.Project
}
