package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gigpay-backend/internal/escrow"
	"gigpay-backend/internal/models"
)

// Client wraps the direct PostgreSQL connection. It implements the escrow
// service's store interfaces plus notification persistence.
type Client struct {
	db *sql.DB
}

func NewClient(connectionString string) (*Client, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

const projectColumns = `
	id, client_id, worker_id, chat_partner_id, title, description, budget, deadline,
	agreed_budget, agreed_deadline, agreed_timeline, locked_at,
	status, progress_percent, milestones,
	advance_amount, advance_paid_at, final_amount, final_paid_at,
	commission_percent, commission_amount, worker_payout_amount, worker_payout_at,
	rating, review, rated_at,
	cancelled_by, cancel_reason, cancelled_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.ClientID, &p.WorkerID, &p.ChatPartnerID, &p.Title, &p.Description, &p.Budget, &p.Deadline,
		&p.AgreedBudget, &p.AgreedDeadline, &p.AgreedTimeline, &p.LockedAt,
		&p.Status, &p.ProgressPercent, &p.Milestones,
		&p.AdvanceAmount, &p.AdvancePaidAt, &p.FinalAmount, &p.FinalPaidAt,
		&p.CommissionPercent, &p.CommissionAmount, &p.WorkerPayoutAmount, &p.WorkerPayoutAt,
		&p.Rating, &p.Review, &p.RatedAt,
		&p.CancelledBy, &p.CancelReason, &p.CancelledAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProject(ctx context.Context, p *models.Project) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO projects (
			id, client_id, worker_id, chat_partner_id, title, description, budget, deadline,
			status, progress_percent, commission_percent, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, p.ID, p.ClientID, p.WorkerID, p.ChatPartnerID, p.Title, p.Description, p.Budget, p.Deadline,
		p.Status, p.ProgressPercent, p.CommissionPercent, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (c *Client) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
	`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, escrow.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (c *Client) ListProjectsForUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE client_id = $1 OR worker_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

func (c *Client) ListProjectsBetween(ctx context.Context, first, second uuid.UUID) ([]models.Project, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE ((client_id = $1 AND worker_id = $2) OR (client_id = $2 AND worker_id = $1))
		  AND status NOT IN ($3, $4)
		ORDER BY created_at DESC
	`, first, second, escrow.StatusRejected, escrow.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

func collectProjects(rows *sql.Rows) ([]models.Project, error) {
	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// SaveTransition persists one status transition and its ledger rows in a
// single transaction. The expected-status guard on the UPDATE is the
// optimistic-concurrency check: a racing transition that got there first
// leaves zero rows affected and the loser gets a state conflict.
func (c *Client) SaveTransition(ctx context.Context, p *models.Project, expectedStatus string, entries []models.Transaction) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE projects
		SET agreed_budget = $1, agreed_deadline = $2, agreed_timeline = $3, locked_at = $4,
		    status = $5, progress_percent = $6, milestones = $7,
		    advance_amount = $8, advance_paid_at = $9, final_amount = $10, final_paid_at = $11,
		    commission_amount = $12, worker_payout_amount = $13, worker_payout_at = $14,
		    rating = $15, review = $16, rated_at = $17, updated_at = $18
		WHERE id = $19 AND status = $20
	`, p.AgreedBudget, p.AgreedDeadline, p.AgreedTimeline, p.LockedAt,
		p.Status, p.ProgressPercent, p.Milestones,
		p.AdvanceAmount, p.AdvancePaidAt, p.FinalAmount, p.FinalPaidAt,
		p.CommissionAmount, p.WorkerPayoutAmount, p.WorkerPayoutAt,
		p.Rating, p.Review, p.RatedAt, p.UpdatedAt,
		p.ID, expectedStatus)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		tx.Rollback()
		return fmt.Errorf("%w: project was modified concurrently", escrow.ErrStateConflict)
	}

	for i := range entries {
		if err := insertTransaction(ctx, tx, &entries[i]); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}
	return nil
}

// SaveRelease persists the release transition: the guarded project update,
// the review row and the ledger entries commit or roll back together, so a
// transient failure never strands a review that would block the retry.
func (c *Client) SaveRelease(ctx context.Context, p *models.Project, expectedStatus string, review *models.WorkerReview, entries []models.Transaction) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE projects
		SET status = $1, rating = $2, review = $3, rated_at = $4,
		    commission_amount = $5, worker_payout_amount = $6, worker_payout_at = $7, updated_at = $8
		WHERE id = $9 AND status = $10
	`, p.Status, p.Rating, p.Review, p.RatedAt,
		p.CommissionAmount, p.WorkerPayoutAmount, p.WorkerPayoutAt, p.UpdatedAt,
		p.ID, expectedStatus)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		tx.Rollback()
		return fmt.Errorf("%w: project was modified concurrently", escrow.ErrStateConflict)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO worker_reviews (id, project_id, client_id, worker_id, rating, review, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, review.ID, review.ProjectID, review.ClientID, review.WorkerID, review.Rating, review.Review, review.CreatedAt); err != nil {
		tx.Rollback()
		var pqErr *pq.Error
		// 23505 unique_violation on project_id: the project is already rated.
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w: project has already been rated", escrow.ErrStateConflict)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	for i := range entries {
		if err := insertTransaction(ctx, tx, &entries[i]); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit release: %w", err)
	}
	return nil
}

func (c *Client) UpdateProgress(ctx context.Context, p *models.Project) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE projects
		SET progress_percent = $1, milestones = $2, updated_at = $3
		WHERE id = $4
	`, p.ProgressPercent, p.Milestones, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t *models.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, project_id, type, amount, currency, from_user_id, to_user_id, status, payment_gateway_ref, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, t.ID, t.ProjectID, t.Type, t.Amount, t.Currency, t.FromUserID, t.ToUserID, t.Status, t.GatewayRef, t.Metadata, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

const transactionColumns = `id, project_id, type, amount, currency, from_user_id, to_user_id, status, payment_gateway_ref, metadata, created_at`

func (c *Client) ListTransactionsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (c *Client) ListTransactionsForProject(ctx context.Context, projectID uuid.UUID) ([]models.Transaction, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.ProjectID, &t.Type, &t.Amount, &t.Currency,
			&t.FromUserID, &t.ToUserID, &t.Status, &t.GatewayRef, &t.Metadata, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (c *Client) ListReviewsForWorker(ctx context.Context, workerID uuid.UUID) ([]models.WorkerReview, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, project_id, client_id, worker_id, rating, review, created_at
		FROM worker_reviews
		WHERE worker_id = $1
		ORDER BY created_at DESC
	`, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.WorkerReview
	for rows.Next() {
		var r models.WorkerReview
		err := rows.Scan(&r.ID, &r.ProjectID, &r.ClientID, &r.WorkerID, &r.Rating, &r.Review, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (c *Client) GetWorkerProfile(ctx context.Context, workerID uuid.UUID) (*models.WorkerProfile, error) {
	var profile models.WorkerProfile
	err := c.db.QueryRowContext(ctx, `
		SELECT user_id, rating, rating_count, updated_at
		FROM worker_profiles
		WHERE user_id = $1
	`, workerID).Scan(&profile.UserID, &profile.Rating, &profile.RatingCount, &profile.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// No reviews yet; an empty aggregate, not an error.
		return &models.WorkerProfile{UserID: workerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get worker profile: %w", err)
	}
	return &profile, nil
}

func (c *Client) SaveWorkerAggregate(ctx context.Context, workerID uuid.UUID, rating float64, count int) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO worker_profiles (user_id, rating, rating_count, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET rating = EXCLUDED.rating, rating_count = EXCLUDED.rating_count, updated_at = NOW()
	`, workerID, rating, count)
	if err != nil {
		return fmt.Errorf("failed to save worker aggregate: %w", err)
	}
	return nil
}

func (c *Client) CreateNotification(ctx context.Context, n *models.Notification) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, project_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.ID, n.UserID, n.Type, n.Title, n.Message, n.ProjectID, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (c *Client) ListNotificationsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, message, project_id, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.ProjectID, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (c *Client) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	result, err := c.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return escrow.ErrNotFound
	}
	return nil
}
