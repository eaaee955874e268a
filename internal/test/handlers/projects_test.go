package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gigpay-backend/internal/escrow"
	"gigpay-backend/internal/handlers"
	"gigpay-backend/internal/middleware"
	"gigpay-backend/internal/models"
)

// memStore is the minimal in-memory backend the HTTP tests run against.
type memStore struct {
	projects     map[uuid.UUID]models.Project
	transactions []models.Transaction
	reviews      []models.WorkerReview
	profiles     map[uuid.UUID]models.WorkerProfile
}

func newMemStore() *memStore {
	return &memStore{
		projects: make(map[uuid.UUID]models.Project),
		profiles: make(map[uuid.UUID]models.WorkerProfile),
	}
}

func (s *memStore) CreateProject(_ context.Context, p *models.Project) error {
	s.projects[p.ID] = *p
	return nil
}

func (s *memStore) GetProject(_ context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, escrow.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (s *memStore) ListProjectsForUser(_ context.Context, userID uuid.UUID) ([]models.Project, error) {
	var out []models.Project
	for _, p := range s.projects {
		if p.ClientID == userID || p.WorkerID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) ListProjectsBetween(_ context.Context, first, second uuid.UUID) ([]models.Project, error) {
	var out []models.Project
	for _, p := range s.projects {
		pair := (p.ClientID == first && p.WorkerID == second) || (p.ClientID == second && p.WorkerID == first)
		if pair && p.Status != escrow.StatusRejected && p.Status != escrow.StatusCancelled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) SaveTransition(_ context.Context, p *models.Project, expectedStatus string, entries []models.Transaction) error {
	current, ok := s.projects[p.ID]
	if !ok {
		return escrow.ErrNotFound
	}
	if current.Status != expectedStatus {
		return fmt.Errorf("%w: project was modified concurrently", escrow.ErrStateConflict)
	}
	s.projects[p.ID] = *p
	s.transactions = append(s.transactions, entries...)
	return nil
}

func (s *memStore) SaveRelease(_ context.Context, p *models.Project, expectedStatus string, review *models.WorkerReview, entries []models.Transaction) error {
	current, ok := s.projects[p.ID]
	if !ok {
		return escrow.ErrNotFound
	}
	if current.Status != expectedStatus {
		return fmt.Errorf("%w: project was modified concurrently", escrow.ErrStateConflict)
	}
	for _, existing := range s.reviews {
		if existing.ProjectID == review.ProjectID {
			return fmt.Errorf("%w: project has already been rated", escrow.ErrStateConflict)
		}
	}
	s.reviews = append(s.reviews, *review)
	s.projects[p.ID] = *p
	s.transactions = append(s.transactions, entries...)
	return nil
}

func (s *memStore) UpdateProgress(_ context.Context, p *models.Project) error {
	s.projects[p.ID] = *p
	return nil
}

func (s *memStore) ListTransactionsForUser(_ context.Context, userID uuid.UUID, limit int) ([]models.Transaction, error) {
	var out []models.Transaction
	for i := len(s.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		t := s.transactions[i]
		if (t.FromUserID.Valid && t.FromUserID.UUID == userID) || (t.ToUserID.Valid && t.ToUserID.UUID == userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) ListTransactionsForProject(_ context.Context, projectID uuid.UUID) ([]models.Transaction, error) {
	var out []models.Transaction
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].ProjectID == projectID {
			out = append(out, s.transactions[i])
		}
	}
	return out, nil
}

func (s *memStore) ListReviewsForWorker(_ context.Context, workerID uuid.UUID) ([]models.WorkerReview, error) {
	var out []models.WorkerReview
	for _, r := range s.reviews {
		if r.WorkerID == workerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) GetWorkerProfile(_ context.Context, workerID uuid.UUID) (*models.WorkerProfile, error) {
	p, ok := s.profiles[workerID]
	if !ok {
		return &models.WorkerProfile{UserID: workerID}, nil
	}
	copied := p
	return &copied, nil
}

func (s *memStore) SaveWorkerAggregate(_ context.Context, workerID uuid.UUID, rating float64, count int) error {
	s.profiles[workerID] = models.WorkerProfile{UserID: workerID, Rating: rating, RatingCount: count}
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(uuid.UUID, escrow.Event) {}

// setAuth stands in for the JWT middleware and stores the given user.
func setAuth(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID.String())
		c.Next()
	}
}

type testRouter struct {
	store  *memStore
	client uuid.UUID
	worker uuid.UUID
}

func newTestRouter() *testRouter {
	gin.SetMode(gin.TestMode)
	return &testRouter{
		store:  newMemStore(),
		client: uuid.New(),
		worker: uuid.New(),
	}
}

// as builds a router where every request is authenticated as userID.
func (tr *testRouter) as(userID uuid.UUID) *gin.Engine {
	service := escrow.NewService(tr.store, tr.store, tr.store, noopNotifier{}, nil, 5, "INR")
	projectsHandler := handlers.NewProjectsHandler(service)
	transactionsHandler := handlers.NewTransactionsHandler(service)
	reviewsHandler := handlers.NewReviewsHandler(service)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(setAuth(userID))
	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.POST("/projects/:project_id/accept", projectsHandler.AcceptProject)
	api.POST("/projects/:project_id/reject", projectsHandler.RejectProject)
	api.POST("/projects/:project_id/advance-payment", projectsHandler.PayAdvance)
	api.PUT("/projects/:project_id/progress", projectsHandler.UpdateProgress)
	api.POST("/projects/:project_id/complete", projectsHandler.CompleteProject)
	api.POST("/projects/:project_id/final-payment", projectsHandler.PayFinal)
	api.POST("/projects/:project_id/rate", projectsHandler.RateProject)
	api.GET("/transactions", transactionsHandler.ListTransactions)
	api.GET("/projects/:project_id/transactions", transactionsHandler.ListProjectTransactions)
	api.GET("/workers/:user_id/reviews", reviewsHandler.GetWorkerReviews)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeProject(t *testing.T, w *httptest.ResponseRecorder) models.ProjectResponse {
	t.Helper()
	var resp models.ProjectResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (tr *testRouter) createProject(t *testing.T) models.ProjectResponse {
	t.Helper()
	w := doJSON(t, tr.as(tr.client), "POST", "/api/v1/projects", models.CreateProjectRequest{
		WorkerID: tr.worker.String(),
		Title:    "Landing page",
		Budget:   10000,
		Deadline: time.Now().UTC().Add(7 * 24 * time.Hour),
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	return decodeProject(t, w)
}

func TestCreateProject(t *testing.T) {
	tr := newTestRouter()

	project := tr.createProject(t)
	assert.Equal(t, escrow.StatusOfferSent, project.Status)
	assert.Equal(t, tr.client.String(), project.ClientID)
	assert.Equal(t, tr.worker.String(), project.WorkerID)
	assert.Equal(t, 10000.0, project.Budget)
	assert.Equal(t, 5.0, project.CommissionPercent)
}

func TestCreateProject_InvalidBody(t *testing.T) {
	tr := newTestRouter()

	w := doJSON(t, tr.as(tr.client), "POST", "/api/v1/projects", map[string]interface{}{
		"title": "missing everything else",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Code)

	w = doJSON(t, tr.as(tr.client), "POST", "/api/v1/projects", models.CreateProjectRequest{
		WorkerID: "not-a-uuid",
		Title:    "x",
		Budget:   100,
		Deadline: time.Now().UTC().Add(time.Hour),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	tr := newTestRouter()
	project := tr.createProject(t)
	base := "/api/v1/projects/" + project.ID

	w := doJSON(t, tr.as(tr.worker), "POST", base+"/accept", models.AcceptProjectRequest{})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, escrow.StatusAccepted, decodeProject(t, w).Status)

	w = doJSON(t, tr.as(tr.client), "POST", base+"/advance-payment", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	advanced := decodeProject(t, w)
	assert.Equal(t, escrow.StatusInProgress, advanced.Status)
	assert.Equal(t, 50, advanced.ProgressPercent)
	if assert.NotNil(t, advanced.AdvanceAmount) {
		assert.Equal(t, 1000.0, *advanced.AdvanceAmount)
	}

	percent := 75
	w = doJSON(t, tr.as(tr.worker), "PUT", base+"/progress", models.ProgressUpdateRequest{
		ProgressPercent: &percent,
		Milestones:      []models.Milestone{{Title: "Draft", ProgressPercent: 75}},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 75, decodeProject(t, w).ProgressPercent)

	w = doJSON(t, tr.as(tr.worker), "POST", base+"/complete", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, escrow.StatusCompleted, decodeProject(t, w).Status)

	w = doJSON(t, tr.as(tr.client), "POST", base+"/final-payment", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	paid := decodeProject(t, w)
	if assert.NotNil(t, paid.FinalAmount) {
		assert.Equal(t, 9000.0, *paid.FinalAmount)
	}

	w = doJSON(t, tr.as(tr.client), "POST", base+"/rate", models.RateProjectRequest{Rating: 5, Review: "Excellent"})
	assert.Equal(t, http.StatusOK, w.Code)
	released := decodeProject(t, w)
	assert.Equal(t, escrow.StatusCompletedReleased, released.Status)
	if assert.NotNil(t, released.WorkerPayoutAmount) {
		assert.Equal(t, 9500.0, *released.WorkerPayoutAmount)
	}

	// Ledger shows all four money movements.
	w = doJSON(t, tr.as(tr.client), "GET", base+"/transactions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var ledger models.TransactionListResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &ledger))
	assert.Len(t, ledger.Transactions, 4)

	// The worker's aggregate is visible on the reviews endpoint.
	w = doJSON(t, tr.as(tr.client), "GET", "/api/v1/workers/"+tr.worker.String()+"/reviews", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var reviews models.WorkerReviewsResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &reviews))
	assert.Equal(t, 5.0, reviews.Rating)
	assert.Equal(t, 1, reviews.RatingCount)
	assert.Len(t, reviews.Reviews, 1)
}

func TestErrorMapping(t *testing.T) {
	tr := newTestRouter()
	project := tr.createProject(t)
	base := "/api/v1/projects/" + project.ID

	// Wrong actor: 403 authorization_error.
	w := doJSON(t, tr.as(tr.client), "POST", base+"/accept", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "authorization_error", decodeError(t, w).Code)

	// Wrong state: 400 state_conflict.
	w = doJSON(t, tr.as(tr.client), "POST", base+"/advance-payment", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "state_conflict", decodeError(t, w).Code)

	// Unknown project: 404 not_found.
	w = doJSON(t, tr.as(tr.client), "GET", "/api/v1/projects/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Code)

	// Third party: 403 on read.
	w = doJSON(t, tr.as(uuid.New()), "GET", base, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Malformed id: 400 validation_error.
	w = doJSON(t, tr.as(tr.client), "GET", "/api/v1/projects/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Code)

	// Out-of-range rating: 400 validation_error.
	w = doJSON(t, tr.as(tr.client), "POST", base+"/rate", models.RateProjectRequest{Rating: 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnauthenticatedRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newMemStore()
	service := escrow.NewService(store, store, store, noopNotifier{}, nil, 5, "INR")
	projectsHandler := handlers.NewProjectsHandler(service)

	router := gin.New()
	router.GET("/api/v1/projects", projectsHandler.ListProjects)

	req, _ := http.NewRequest("GET", "/api/v1/projects", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandlersWithoutService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	projectsHandler := handlers.NewProjectsHandler(nil)

	router := gin.New()
	router.GET("/api/v1/projects", projectsHandler.ListProjects)

	req, _ := http.NewRequest("GET", "/api/v1/projects", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListTransactions_LimitParam(t *testing.T) {
	tr := newTestRouter()
	project := tr.createProject(t)
	base := "/api/v1/projects/" + project.ID

	doJSON(t, tr.as(tr.worker), "POST", base+"/accept", nil)
	doJSON(t, tr.as(tr.client), "POST", base+"/advance-payment", nil)

	w := doJSON(t, tr.as(tr.client), "GET", "/api/v1/transactions?limit=1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var ledger models.TransactionListResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &ledger))
	assert.Len(t, ledger.Transactions, 1)
	assert.Equal(t, escrow.TransactionAdvancePayment, ledger.Transactions[0].Type)
}
