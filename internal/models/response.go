package models

import (
	"encoding/json"
	"time"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ProjectResponse struct {
	ID            string `json:"project_id"`
	ClientID      string `json:"client_id"`
	WorkerID      string `json:"worker_id"`
	ChatPartnerID string `json:"chat_partner_id"`

	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Budget      float64   `json:"budget"`
	Deadline    time.Time `json:"deadline"`

	AgreedBudget   *float64   `json:"agreed_budget,omitempty"`
	AgreedDeadline *time.Time `json:"agreed_deadline,omitempty"`
	AgreedTimeline string     `json:"agreed_timeline,omitempty"`
	LockedAt       *time.Time `json:"locked_at,omitempty"`

	Status          string      `json:"status"`
	ProgressPercent int         `json:"progress_percent"`
	Milestones      []Milestone `json:"milestones,omitempty"`

	AdvanceAmount      *float64   `json:"advance_amount,omitempty"`
	AdvancePaidAt      *time.Time `json:"advance_paid_at,omitempty"`
	FinalAmount        *float64   `json:"final_amount,omitempty"`
	FinalPaidAt        *time.Time `json:"final_paid_at,omitempty"`
	CommissionPercent  float64    `json:"platform_commission_percent"`
	CommissionAmount   *float64   `json:"platform_commission_amount,omitempty"`
	WorkerPayoutAmount *float64   `json:"worker_payout_amount,omitempty"`
	WorkerPayoutAt     *time.Time `json:"worker_payout_at,omitempty"`

	Rating  *int       `json:"rating,omitempty"`
	Review  string     `json:"review,omitempty"`
	RatedAt *time.Time `json:"rated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type TransactionResponse struct {
	ID         string                 `json:"transaction_id"`
	ProjectID  string                 `json:"project_id"`
	Type       string                 `json:"type"`
	Amount     float64                `json:"amount"`
	Currency   string                 `json:"currency"`
	FromUserID string                 `json:"from_user_id,omitempty"`
	ToUserID   string                 `json:"to_user_id,omitempty"`
	Status     string                 `json:"status"`
	GatewayRef string                 `json:"payment_gateway_ref,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

type ReviewResponse struct {
	ID        string    `json:"review_id"`
	ProjectID string    `json:"project_id"`
	ClientID  string    `json:"client_id"`
	WorkerID  string    `json:"worker_id"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type WorkerReviewsResponse struct {
	WorkerID    string           `json:"worker_id"`
	Rating      float64          `json:"rating"`
	RatingCount int              `json:"rating_count"`
	Reviews     []ReviewResponse `json:"reviews"`
}

type NotificationResponse struct {
	ID        string    `json:"notification_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	ProjectID string    `json:"project_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

// NewProjectResponse flattens the nullable database columns into the wire
// shape shared by every transition endpoint.
func NewProjectResponse(p *Project) ProjectResponse {
	resp := ProjectResponse{
		ID:                p.ID.String(),
		ClientID:          p.ClientID.String(),
		WorkerID:          p.WorkerID.String(),
		ChatPartnerID:     p.ChatPartnerID.String(),
		Title:             p.Title,
		Description:       p.Description,
		Budget:            p.Budget,
		Deadline:          p.Deadline,
		Status:            p.Status,
		ProgressPercent:   p.ProgressPercent,
		CommissionPercent: p.CommissionPercent,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}

	if p.AgreedBudget.Valid {
		resp.AgreedBudget = &p.AgreedBudget.Float64
	}
	if p.AgreedDeadline.Valid {
		resp.AgreedDeadline = &p.AgreedDeadline.Time
	}
	if p.AgreedTimeline.Valid {
		resp.AgreedTimeline = p.AgreedTimeline.String
	}
	if p.LockedAt.Valid {
		resp.LockedAt = &p.LockedAt.Time
	}
	if len(p.Milestones) > 0 {
		var milestones []Milestone
		if err := json.Unmarshal(p.Milestones, &milestones); err == nil {
			resp.Milestones = milestones
		}
	}
	if p.AdvanceAmount.Valid {
		resp.AdvanceAmount = &p.AdvanceAmount.Float64
	}
	if p.AdvancePaidAt.Valid {
		resp.AdvancePaidAt = &p.AdvancePaidAt.Time
	}
	if p.FinalAmount.Valid {
		resp.FinalAmount = &p.FinalAmount.Float64
	}
	if p.FinalPaidAt.Valid {
		resp.FinalPaidAt = &p.FinalPaidAt.Time
	}
	if p.CommissionAmount.Valid {
		resp.CommissionAmount = &p.CommissionAmount.Float64
	}
	if p.WorkerPayoutAmount.Valid {
		resp.WorkerPayoutAmount = &p.WorkerPayoutAmount.Float64
	}
	if p.WorkerPayoutAt.Valid {
		resp.WorkerPayoutAt = &p.WorkerPayoutAt.Time
	}
	if p.Rating.Valid {
		rating := int(p.Rating.Int64)
		resp.Rating = &rating
	}
	if p.Review.Valid {
		resp.Review = p.Review.String
	}
	if p.RatedAt.Valid {
		resp.RatedAt = &p.RatedAt.Time
	}

	return resp
}

// NewTransactionResponse converts a ledger row for the payment-history views.
func NewTransactionResponse(t *Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:        t.ID.String(),
		ProjectID: t.ProjectID.String(),
		Type:      t.Type,
		Amount:    t.Amount,
		Currency:  t.Currency,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	}
	if t.FromUserID.Valid {
		resp.FromUserID = t.FromUserID.UUID.String()
	}
	if t.ToUserID.Valid {
		resp.ToUserID = t.ToUserID.UUID.String()
	}
	if t.GatewayRef.Valid {
		resp.GatewayRef = t.GatewayRef.String
	}
	if len(t.Metadata) > 0 {
		var metadata map[string]interface{}
		if err := json.Unmarshal(t.Metadata, &metadata); err == nil {
			resp.Metadata = metadata
		}
	}
	return resp
}

func NewReviewResponse(r *WorkerReview) ReviewResponse {
	resp := ReviewResponse{
		ID:        r.ID.String(),
		ProjectID: r.ProjectID.String(),
		ClientID:  r.ClientID.String(),
		WorkerID:  r.WorkerID.String(),
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
	}
	if r.Review.Valid {
		resp.Review = r.Review.String
	}
	return resp
}

func NewNotificationResponse(n *Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.ProjectID.Valid {
		resp.ProjectID = n.ProjectID.UUID.String()
	}
	return resp
}
