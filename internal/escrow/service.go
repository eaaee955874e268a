package escrow

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gigpay-backend/internal/models"
)

// Actor is the authenticated party resolved once per request and passed into
// every transition.
type Actor struct {
	ID   uuid.UUID
	Name string
	// IdempotencyKey is optional and only honored by money-moving commands.
	IdempotencyKey string
}

// ProjectStore persists the escrow aggregate.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjectsForUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	// ListProjectsBetween returns projects where the two users are the client
	// and worker in either order, excluding rejected and cancelled ones.
	ListProjectsBetween(ctx context.Context, first, second uuid.UUID) ([]models.Project, error)
	// SaveTransition writes every service-owned field of p and appends the
	// given ledger entries in one transaction, guarded by the status the
	// project held when it was read. A failed guard is ErrStateConflict.
	SaveTransition(ctx context.Context, p *models.Project, expectedStatus string, entries []models.Transaction) error
	// SaveRelease is SaveTransition plus the review insert, all in the same
	// transaction. A failure leaves no review behind, so the release stays
	// retryable. A duplicate review for the project is ErrStateConflict.
	SaveRelease(ctx context.Context, p *models.Project, expectedStatus string, review *models.WorkerReview, entries []models.Transaction) error
	UpdateProgress(ctx context.Context, p *models.Project) error
}

// LedgerStore reads the append-only transaction history.
type LedgerStore interface {
	ListTransactionsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error)
	ListTransactionsForProject(ctx context.Context, projectID uuid.UUID) ([]models.Transaction, error)
}

// ReviewStore reads reviews and keeps the worker's recomputed aggregate
// rating. Review rows are written by ProjectStore.SaveRelease, inside the
// release transaction.
type ReviewStore interface {
	ListReviewsForWorker(ctx context.Context, workerID uuid.UUID) ([]models.WorkerReview, error)
	GetWorkerProfile(ctx context.Context, workerID uuid.UUID) (*models.WorkerProfile, error)
	SaveWorkerAggregate(ctx context.Context, workerID uuid.UUID, rating float64, count int) error
}

// Notifier fans a lifecycle event out to the in-app/email/push sinks. It must
// not block the transition; failures are its own problem to log.
type Notifier interface {
	Notify(userID uuid.UUID, ev Event)
}

// IdempotencyRecord is a stored reservation for an Idempotency-Key.
type IdempotencyRecord struct {
	RequestHash string
	Response    []byte
}

// IdempotencyStore keeps keyed reservations with a TTL so retried
// money-moving commands cannot double-charge.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string) error
	Complete(ctx context.Context, key string, response []byte) error
	// Release drops a reservation whose transition failed, so an honest
	// retry with the same key is not refused for the rest of the TTL.
	Release(ctx context.Context, key string) error
}

// Service owns every status transition, the derived money fields and the
// per-transition authorization rules.
type Service struct {
	projects    ProjectStore
	ledger      LedgerStore
	reviews     ReviewStore
	notifier    Notifier
	idempotency IdempotencyStore

	commissionPercent float64
	currency          string
}

// NewService builds the state machine. The idempotency store may be nil, in
// which case Idempotency-Key headers are ignored.
func NewService(projects ProjectStore, ledger LedgerStore, reviews ReviewStore, notifier Notifier, idempotency IdempotencyStore, commissionPercent float64, currency string) *Service {
	if commissionPercent <= 0 {
		commissionPercent = DefaultCommissionPercent
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Service{
		projects:    projects,
		ledger:      ledger,
		reviews:     reviews,
		notifier:    notifier,
		idempotency: idempotency,

		commissionPercent: commissionPercent,
		currency:          currency,
	}
}

type CreateOfferInput struct {
	WorkerID    uuid.UUID
	Title       string
	Description string
	Budget      float64
	Deadline    time.Time
}

// CreateOffer opens the lifecycle: the client proposes terms to a worker.
func (s *Service) CreateOffer(ctx context.Context, actor Actor, in CreateOfferInput) (*models.Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Budget <= 0 {
		return nil, fmt.Errorf("%w: budget must be greater than zero", ErrInvalidInput)
	}
	if in.Deadline.IsZero() {
		return nil, fmt.Errorf("%w: deadline is required", ErrInvalidInput)
	}
	if in.WorkerID == uuid.Nil {
		return nil, fmt.Errorf("%w: worker id is required", ErrInvalidInput)
	}
	if in.WorkerID == actor.ID {
		return nil, fmt.Errorf("%w: client and worker must be distinct", ErrInvalidInput)
	}

	now := time.Now().UTC()
	project := &models.Project{
		ID:                uuid.New(),
		ClientID:          actor.ID,
		WorkerID:          in.WorkerID,
		ChatPartnerID:     in.WorkerID,
		Title:             in.Title,
		Description:       strings.TrimSpace(in.Description),
		Budget:            in.Budget,
		Deadline:          in.Deadline,
		Status:            StatusOfferSent,
		CommissionPercent: s.commissionPercent,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.projects.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.notifier.Notify(project.WorkerID, Event{
		Type:      EventProjectOffer,
		Title:     "New project offer",
		Message:   fmt.Sprintf("%s sent you an offer: %s", displayName(actor), project.Title),
		ActorName: displayName(actor),
		Project:   project,
	})

	return project, nil
}

type AcceptInput struct {
	AgreedBudget   *float64
	AgreedDeadline *time.Time
	AgreedTimeline *string
}

// Accept locks the negotiated terms and moves the offer to accepted. Only the
// offered worker may accept, and only while the offer is still open.
func (s *Service) Accept(ctx context.Context, actor Actor, projectID uuid.UUID, in AcceptInput) (*models.Project, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.ID != project.WorkerID {
		return nil, fmt.Errorf("%w: only the worker can accept an offer", ErrForbidden)
	}
	if project.Status != StatusOfferSent {
		return nil, fmt.Errorf("%w: offer is %s", ErrStateConflict, project.Status)
	}

	budget := project.Budget
	if in.AgreedBudget != nil {
		if *in.AgreedBudget <= 0 {
			return nil, fmt.Errorf("%w: agreed budget must be greater than zero", ErrInvalidInput)
		}
		budget = *in.AgreedBudget
	}
	deadline := project.Deadline
	if in.AgreedDeadline != nil && !in.AgreedDeadline.IsZero() {
		deadline = *in.AgreedDeadline
	}

	expected := project.Status
	now := time.Now().UTC()
	project.AgreedBudget = sql.NullFloat64{Float64: budget, Valid: true}
	project.AgreedDeadline = sql.NullTime{Time: deadline, Valid: true}
	if in.AgreedTimeline != nil && strings.TrimSpace(*in.AgreedTimeline) != "" {
		project.AgreedTimeline = sql.NullString{String: strings.TrimSpace(*in.AgreedTimeline), Valid: true}
	}
	project.LockedAt = sql.NullTime{Time: now, Valid: true}
	project.Status = StatusAccepted
	project.UpdatedAt = now

	if err := s.saveTransition(ctx, project, expected, nil); err != nil {
		return nil, err
	}

	s.notifier.Notify(project.ClientID, Event{
		Type:    EventOfferAccepted,
		Title:   "Offer accepted",
		Message: fmt.Sprintf("%s accepted your offer for %s", displayName(actor), project.Title),
		Project: project,
	})

	return project, nil
}

// Reject closes an open offer. Terminal.
func (s *Service) Reject(ctx context.Context, actor Actor, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.ID != project.WorkerID {
		return nil, fmt.Errorf("%w: only the worker can reject an offer", ErrForbidden)
	}
	if project.Status != StatusOfferSent {
		return nil, fmt.Errorf("%w: offer is %s", ErrStateConflict, project.Status)
	}

	expected := project.Status
	project.Status = StatusRejected
	project.UpdatedAt = time.Now().UTC()

	if err := s.saveTransition(ctx, project, expected, nil); err != nil {
		return nil, err
	}

	s.notifier.Notify(project.ClientID, Event{
		Type:    EventOfferRejected,
		Title:   "Offer rejected",
		Message: fmt.Sprintf("%s declined your offer for %s", displayName(actor), project.Title),
		Project: project,
	})

	return project, nil
}

// PayAdvance records the 10% advance, starts the work phase and seeds the
// ledger. Amounts are derived here, never taken from the request.
func (s *Service) PayAdvance(ctx context.Context, actor Actor, projectID uuid.UUID) (*models.Project, error) {
	requestHash := hashRequest("advance_payment", actor.ID, projectID, nil)
	if cached, ok, err := s.cachedProject(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.ID != project.ClientID {
		return nil, fmt.Errorf("%w: only the client can pay the advance", ErrForbidden)
	}
	if project.Status != StatusAccepted && project.Status != StatusPendingAdvance {
		return nil, fmt.Errorf("%w: project is %s", ErrStateConflict, project.Status)
	}

	if err := s.reserveKey(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return nil, err
	}

	amount := AdvanceAmount(project.Total())
	expected := project.Status
	now := time.Now().UTC()
	project.AdvanceAmount = sql.NullFloat64{Float64: amount, Valid: true}
	project.AdvancePaidAt = sql.NullTime{Time: now, Valid: true}
	project.Status = StatusInProgress
	project.ProgressPercent = 50
	project.UpdatedAt = now

	entry := models.Transaction{
		ID:         uuid.New(),
		ProjectID:  project.ID,
		Type:       TransactionAdvancePayment,
		Amount:     amount,
		Currency:   s.currency,
		FromUserID: uuid.NullUUID{UUID: project.ClientID, Valid: true},
		Status:     TransactionCompleted,
		CreatedAt:  now,
	}

	if err := s.saveTransition(ctx, project, expected, []models.Transaction{entry}); err != nil {
		s.releaseKey(ctx, actor.IdempotencyKey)
		return nil, err
	}

	s.completeKey(ctx, actor.IdempotencyKey, project)

	s.notifier.Notify(project.WorkerID, Event{
		Type:    EventAdvancePaid,
		Title:   "Advance payment received",
		Message: fmt.Sprintf("The advance for %s has been paid. Work can begin.", project.Title),
		Project: project,
	})

	return project, nil
}

type ProgressInput struct {
	ProgressPercent *int
	Milestones      []models.Milestone
}

// UpdateProgress lets the worker set the progress percentage and/or replace
// the milestone list. Free-form: not validated against status, and not
// notified.
func (s *Service) UpdateProgress(ctx context.Context, actor Actor, projectID uuid.UUID, in ProgressInput) (*models.Project, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.ID != project.WorkerID {
		return nil, fmt.Errorf("%w: only the worker can update progress", ErrForbidden)
	}

	if in.ProgressPercent != nil {
		percent := *in.ProgressPercent
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		project.ProgressPercent = percent
	}
	if in.Milestones != nil {
		milestones, err := json.Marshal(in.Milestones)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid milestones", ErrInvalidInput)
		}
		project.Milestones = milestones
	}
	project.UpdatedAt = time.Now().UTC()

	if err := s.projects.UpdateProgress(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// Complete marks the work done and asks the client for the final payment.
func (s *Service) Complete(ctx context.Context, actor Actor, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.ID != project.WorkerID {
		return nil, fmt.Errorf("%w: only the worker can complete the project", ErrForbidden)
	}
	if project.Status != StatusInProgress && project.Status != StatusMidLevel {
		return nil, fmt.Errorf("%w: project is %s", ErrStateConflict, project.Status)
	}

	expected := project.Status
	project.Status = StatusCompleted
	project.ProgressPercent = 100
	project.UpdatedAt = time.Now().UTC()

	if err := s.saveTransition(ctx, project, expected, nil); err != nil {
		return nil, err
	}

	s.notifier.Notify(project.ClientID, Event{
		Type:    EventWorkCompleted,
		Title:   "Final payment required",
		Message: fmt.Sprintf("%s marked %s complete. The final payment is due.", displayName(actor), project.Title),
		Project: project,
	})

	return project, nil
}

// PayFinal records the 90% balance. The status stays completed; funds are
// released only after the client rates the worker.
func (s *Service) PayFinal(ctx context.Context, actor Actor, projectID uuid.UUID) (*models.Project, error) {
	requestHash := hashRequest("final_payment", actor.ID, projectID, nil)
	if cached, ok, err := s.cachedProject(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.ID != project.ClientID {
		return nil, fmt.Errorf("%w: only the client can pay the final amount", ErrForbidden)
	}
	if project.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: project is %s", ErrStateConflict, project.Status)
	}
	if project.FinalPaidAt.Valid {
		return nil, fmt.Errorf("%w: final payment already recorded", ErrStateConflict)
	}

	if err := s.reserveKey(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return nil, err
	}

	amount := FinalAmount(project.Total())
	expected := project.Status
	now := time.Now().UTC()
	project.FinalAmount = sql.NullFloat64{Float64: amount, Valid: true}
	project.FinalPaidAt = sql.NullTime{Time: now, Valid: true}
	project.UpdatedAt = now

	entry := models.Transaction{
		ID:         uuid.New(),
		ProjectID:  project.ID,
		Type:       TransactionFinalPayment,
		Amount:     amount,
		Currency:   s.currency,
		FromUserID: uuid.NullUUID{UUID: project.ClientID, Valid: true},
		Status:     TransactionCompleted,
		CreatedAt:  now,
	}

	if err := s.saveTransition(ctx, project, expected, []models.Transaction{entry}); err != nil {
		s.releaseKey(ctx, actor.IdempotencyKey)
		return nil, err
	}

	s.completeKey(ctx, actor.IdempotencyKey, project)

	s.notifier.Notify(project.WorkerID, Event{
		Type:    EventFinalPaid,
		Title:   "Final payment received",
		Message: fmt.Sprintf("The final payment for %s is in escrow, pending the client's rating.", project.Title),
		Project: project,
	})

	return project, nil
}

type RateInput struct {
	Rating int
	Review string
}

// Rate records the client's rating, takes the platform commission, releases
// the worker payout and recomputes the worker's aggregate rating.
func (s *Service) Rate(ctx context.Context, actor Actor, projectID uuid.UUID, in RateInput) (*models.Project, error) {
	requestHash := hashRequest("rate", actor.ID, projectID, in)
	if cached, ok, err := s.cachedProject(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}

	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.ID != project.ClientID {
		return nil, fmt.Errorf("%w: only the client can rate the project", ErrForbidden)
	}
	if project.Status != StatusCompleted || !project.FinalPaidAt.Valid {
		return nil, fmt.Errorf("%w: project must be completed and fully paid before rating", ErrStateConflict)
	}
	if project.Rating.Valid {
		return nil, fmt.Errorf("%w: project has already been rated", ErrStateConflict)
	}

	if err := s.reserveKey(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &models.WorkerReview{
		ID:        uuid.New(),
		ProjectID: project.ID,
		ClientID:  project.ClientID,
		WorkerID:  project.WorkerID,
		Rating:    in.Rating,
		CreatedAt: now,
	}
	if trimmed := strings.TrimSpace(in.Review); trimmed != "" {
		review.Review = sql.NullString{String: trimmed, Valid: true}
	}

	total := project.Total()
	commission, payout := CommissionSplit(total, project.CommissionPercent)

	expected := project.Status
	project.Rating = sql.NullInt64{Int64: int64(in.Rating), Valid: true}
	project.Review = review.Review
	project.RatedAt = sql.NullTime{Time: now, Valid: true}
	project.CommissionAmount = sql.NullFloat64{Float64: commission, Valid: true}
	project.WorkerPayoutAmount = sql.NullFloat64{Float64: payout, Valid: true}
	project.WorkerPayoutAt = sql.NullTime{Time: now, Valid: true}
	project.Status = StatusCompletedReleased
	project.UpdatedAt = now

	commissionMeta, _ := json.Marshal(map[string]interface{}{"commission_percent": project.CommissionPercent})
	entries := []models.Transaction{
		{
			ID:        uuid.New(),
			ProjectID: project.ID,
			Type:      TransactionPlatformCommission,
			Amount:    commission,
			Currency:  s.currency,
			Status:    TransactionCompleted,
			Metadata:  commissionMeta,
			CreatedAt: now,
		},
		{
			ID:        uuid.New(),
			ProjectID: project.ID,
			Type:      TransactionWorkerPayout,
			Amount:    payout,
			Currency:  s.currency,
			ToUserID:  uuid.NullUUID{UUID: project.WorkerID, Valid: true},
			Status:    TransactionCompleted,
			CreatedAt: now,
		},
	}

	if !TransitionAllowed(expected, project.Status) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrStateConflict, expected, project.Status)
	}
	// The review insert rides in the release transaction: a failed release
	// leaves no review behind, so a retry starts clean, and the unique
	// review-per-project constraint guards against a racing duplicate.
	if err := s.projects.SaveRelease(ctx, project, expected, review, entries); err != nil {
		s.releaseKey(ctx, actor.IdempotencyKey)
		return nil, err
	}

	s.completeKey(ctx, actor.IdempotencyKey, project)

	// Aggregate recomputation is deliberately outside the release
	// transaction; a failure here must not undo the payout.
	if err := s.recomputeWorkerRating(ctx, project.WorkerID); err != nil {
		log.Printf("Warning: failed to recompute rating for worker %s: %v", project.WorkerID, err)
	}

	s.notifier.Notify(project.WorkerID, Event{
		Type:    EventPaymentReleased,
		Title:   "Payment released",
		Message: fmt.Sprintf("The escrowed payment for %s has been released to you.", project.Title),
		Project: project,
	})

	return project, nil
}

// saveTransition checks the move against the transition table before letting
// the store persist it. PayFinal rewrites money fields without changing
// status, which the table treats as staying put.
func (s *Service) saveTransition(ctx context.Context, p *models.Project, expectedStatus string, entries []models.Transaction) error {
	if p.Status != expectedStatus && !TransitionAllowed(expectedStatus, p.Status) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrStateConflict, expectedStatus, p.Status)
	}
	return s.projects.SaveTransition(ctx, p, expectedStatus, entries)
}

// recomputeWorkerRating takes the exact mean over the full review set rather
// than updating incrementally, so the aggregate can never drift.
func (s *Service) recomputeWorkerRating(ctx context.Context, workerID uuid.UUID) error {
	reviews, err := s.reviews.ListReviewsForWorker(ctx, workerID)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		return nil
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return s.reviews.SaveWorkerAggregate(ctx, workerID, mean, len(reviews))
}

// GetProject returns the project to one of its two parties.
func (s *Service) GetProject(ctx context.Context, actor Actor, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.ID != project.ClientID && actor.ID != project.WorkerID {
		return nil, fmt.Errorf("%w: not a party to this project", ErrForbidden)
	}
	return project, nil
}

// ListProjects returns every project where the actor is client or worker.
func (s *Service) ListProjects(ctx context.Context, actor Actor) ([]models.Project, error) {
	return s.projects.ListProjectsForUser(ctx, actor.ID)
}

// ListProjectsWith returns the projects between the actor and one
// counterparty, excluding rejected and cancelled ones.
func (s *Service) ListProjectsWith(ctx context.Context, actor Actor, otherUserID uuid.UUID) ([]models.Project, error) {
	if otherUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.projects.ListProjectsBetween(ctx, actor.ID, otherUserID)
}

// ListTransactions returns ledger entries involving the actor, newest first,
// capped at MaxLedgerPageSize.
func (s *Service) ListTransactions(ctx context.Context, actor Actor, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > MaxLedgerPageSize {
		limit = MaxLedgerPageSize
	}
	return s.ledger.ListTransactionsForUser(ctx, actor.ID, limit)
}

// ListProjectTransactions returns one project's ledger to either party.
func (s *Service) ListProjectTransactions(ctx context.Context, actor Actor, projectID uuid.UUID) ([]models.Transaction, error) {
	if _, err := s.GetProject(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return s.ledger.ListTransactionsForProject(ctx, projectID)
}

// WorkerReviews returns a worker's reviews plus the stored aggregate.
func (s *Service) WorkerReviews(ctx context.Context, workerID uuid.UUID) ([]models.WorkerReview, *models.WorkerProfile, error) {
	if workerID == uuid.Nil {
		return nil, nil, fmt.Errorf("%w: worker id is required", ErrInvalidInput)
	}
	reviews, err := s.reviews.ListReviewsForWorker(ctx, workerID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.reviews.GetWorkerProfile(ctx, workerID)
	if err != nil {
		return nil, nil, err
	}
	return reviews, profile, nil
}

func (s *Service) cachedProject(ctx context.Context, key, requestHash string) (*models.Project, bool, error) {
	if s.idempotency == nil || key == "" {
		return nil, false, nil
	}
	rec, err := s.idempotency.Get(ctx, key)
	if err != nil {
		log.Printf("Warning: idempotency lookup failed for key %s: %v", key, err)
		return nil, false, nil
	}
	if rec == nil {
		return nil, false, nil
	}
	if rec.RequestHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	if len(rec.Response) == 0 {
		// Reserved but never completed: the first attempt is still running or
		// the process died between the write and storing the response. Failed
		// transitions release their reservation, so this stays rare; refuse
		// rather than risk a double charge.
		return nil, false, ErrIdempotencyConflict
	}
	var project models.Project
	if err := json.Unmarshal(rec.Response, &project); err != nil {
		return nil, false, nil
	}
	return &project, true, nil
}

func (s *Service) reserveKey(ctx context.Context, key, requestHash string) error {
	if s.idempotency == nil || key == "" {
		return nil
	}
	return s.idempotency.Reserve(ctx, key, requestHash)
}

// releaseKey drops the reservation after a failed transition. Nothing was
// charged, so the same key must stay usable for the retry.
func (s *Service) releaseKey(ctx context.Context, key string) {
	if s.idempotency == nil || key == "" {
		return
	}
	if err := s.idempotency.Release(ctx, key); err != nil {
		log.Printf("Warning: failed to release idempotency key %s: %v", key, err)
	}
}

func (s *Service) completeKey(ctx context.Context, key string, project *models.Project) {
	if s.idempotency == nil || key == "" {
		return
	}
	body, err := json.Marshal(project)
	if err != nil {
		return
	}
	if err := s.idempotency.Complete(ctx, key, body); err != nil {
		log.Printf("Warning: failed to store idempotent response for key %s: %v", key, err)
	}
}

// hashRequest binds an Idempotency-Key reservation to one actor, operation
// and payload. A different actor replaying a known key therefore mismatches
// the stored hash and is refused instead of reading the cached response.
func hashRequest(op string, actorID, projectID uuid.UUID, payload interface{}) string {
	body, _ := json.Marshal(map[string]interface{}{
		"op":         op,
		"actor_id":   actorID,
		"project_id": projectID,
		"payload":    payload,
	})
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func displayName(actor Actor) string {
	if strings.TrimSpace(actor.Name) != "" {
		return actor.Name
	}
	return "Your counterparty"
}
