package models

import "time"

type CreateProjectRequest struct {
	WorkerID    string    `json:"worker_id" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Budget      float64   `json:"budget" binding:"required"`
	Deadline    time.Time `json:"deadline" binding:"required"`
}

type AcceptProjectRequest struct {
	AgreedBudget   *float64   `json:"agreed_budget"`
	AgreedDeadline *time.Time `json:"agreed_deadline"`
	AgreedTimeline *string    `json:"agreed_timeline"`
}

type ProgressUpdateRequest struct {
	ProgressPercent *int        `json:"progress_percent"`
	Milestones      []Milestone `json:"milestones"`
}

type RateProjectRequest struct {
	Rating int    `json:"rating" binding:"required"`
	Review string `json:"review"`
}
