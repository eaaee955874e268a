package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Project is the escrow aggregate. Status and all money fields are written
// exclusively by the escrow service; clients never supply them directly.
type Project struct {
	ID       uuid.UUID
	ClientID uuid.UUID
	WorkerID uuid.UUID
	// ChatPartnerID records who the client negotiated with, kept separately
	// from WorkerID for chat-thread lookup.
	ChatPartnerID uuid.UUID
	Title         string
	Description   string
	Budget        float64
	Deadline      time.Time

	// Terms locked at acceptance. Funds computations fall back to the
	// proposed budget/deadline when these were never set.
	AgreedBudget   sql.NullFloat64
	AgreedDeadline sql.NullTime
	AgreedTimeline sql.NullString
	LockedAt       sql.NullTime

	Status          string
	ProgressPercent int
	Milestones      json.RawMessage

	AdvanceAmount      sql.NullFloat64
	AdvancePaidAt      sql.NullTime
	FinalAmount        sql.NullFloat64
	FinalPaidAt        sql.NullTime
	CommissionPercent  float64
	CommissionAmount   sql.NullFloat64
	WorkerPayoutAmount sql.NullFloat64
	WorkerPayoutAt     sql.NullTime

	Rating  sql.NullInt64
	Review  sql.NullString
	RatedAt sql.NullTime

	// Cancellation fields exist in the schema but no transition sets them.
	CancelledBy  uuid.NullUUID
	CancelReason sql.NullString
	CancelledAt  sql.NullTime

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Total is the amount the two-phase escrow funds: the locked budget, or the
// proposed budget when terms were never locked.
func (p *Project) Total() float64 {
	if p.AgreedBudget.Valid {
		return p.AgreedBudget.Float64
	}
	return p.Budget
}

// Milestone is one entry of a project's worker-maintained milestone list.
type Milestone struct {
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	ProgressPercent int        `json:"progress_percent"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Transaction is an immutable ledger entry. Rows are created once and never
// updated; a null ToUserID means the funds are held in escrow.
type Transaction struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	Type       string
	Amount     float64
	Currency   string
	FromUserID uuid.NullUUID
	ToUserID   uuid.NullUUID
	Status     string
	GatewayRef sql.NullString
	Metadata   json.RawMessage
	CreatedAt  time.Time
}

// WorkerReview is the single rating+comment a client leaves on a completed
// project. Not editable or deletable.
type WorkerReview struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	ClientID  uuid.UUID
	WorkerID  uuid.UUID
	Rating    int
	Review    sql.NullString
	CreatedAt time.Time
}

// WorkerProfile carries the aggregate rating recomputed on every new review.
type WorkerProfile struct {
	UserID      uuid.UUID
	Rating      float64
	RatingCount int
	UpdatedAt   time.Time
}

// Notification is the in-app half of the notifier fan-out.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      string
	Title     string
	Message   string
	ProjectID uuid.NullUUID
	Read      bool
	CreatedAt time.Time
}
