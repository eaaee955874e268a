package escrow

// Project lifecycle statuses. The transition table below is the single
// authority on which moves are legal; anything not listed is rejected.
const (
	StatusOfferSent         = "offer_sent"
	StatusAccepted          = "accepted"
	StatusRejected          = "rejected"
	StatusPendingAdvance    = "pending_advance"
	StatusInProgress        = "in_progress"
	StatusMidLevel          = "mid_level"
	StatusCompleted         = "completed"
	StatusCompletedReleased = "completed_released"
	StatusCancelled         = "cancelled"
)

// transitions maps each status to the statuses it may move to. rejected,
// cancelled and completed_released are terminal. No transition produces
// mid_level or cancelled; both stay in the table so the guard, not the
// callers, decides they are unreachable.
var transitions = map[string][]string{
	StatusOfferSent:         {StatusAccepted, StatusRejected},
	StatusAccepted:          {StatusPendingAdvance, StatusInProgress},
	StatusPendingAdvance:    {StatusInProgress},
	StatusInProgress:        {StatusCompleted},
	StatusMidLevel:          {StatusCompleted},
	StatusCompleted:         {StatusCompletedReleased},
	StatusRejected:          {},
	StatusCancelled:         {},
	StatusCompletedReleased: {},
}

// TransitionAllowed reports whether the lifecycle permits moving from one
// status to another.
func TransitionAllowed(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a recognized lifecycle status.
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}
