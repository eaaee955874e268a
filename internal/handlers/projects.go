package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gigpay-backend/internal/escrow"
	"gigpay-backend/internal/models"
)

type ProjectsHandler struct {
	service *escrow.Service
}

func NewProjectsHandler(service *escrow.Service) *ProjectsHandler {
	return &ProjectsHandler{
		service: service,
	}
}

// CreateProject godoc
// @Summary     Create a project offer
// @Description Creates a new escrow project offer from the authenticated client to a worker. The offer carries the proposed title, budget and deadline; the worker accepts or rejects it.
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateProjectRequest true "Offer terms"
// @Success     201 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid request body", Code: "validation_error", Message: err.Error(),
		})
		return
	}

	workerID, err := uuid.Parse(req.WorkerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid worker id", Code: "validation_error",
		})
		return
	}

	project, err := h.service.CreateOffer(c.Request.Context(), actor, escrow.CreateOfferInput{
		WorkerID:    workerID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewProjectResponse(project))
}

// ListProjects godoc
// @Summary     List projects
// @Description Returns every project where the authenticated user is the client or the worker
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProjectListResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /projects [get]
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	projects, err := h.service.ListProjects(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, projectList(projects))
}

// ListProjectsWith godoc
// @Summary     List projects with one counterparty
// @Description Returns the projects between the authenticated user and another user, excluding rejected and cancelled ones
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       user_id path string true "Counterparty user ID (UUID)"
// @Success     200 {object} models.ProjectListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /projects/with/{user_id} [get]
func (h *ProjectsHandler) ListProjectsWith(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	otherUserID, ok := parseUUIDParam(c, "user_id")
	if !ok {
		return
	}

	projects, err := h.service.ListProjectsWith(c.Request.Context(), actor, otherUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, projectList(projects))
}

// GetProject godoc
// @Summary     Get project details
// @Description Returns the full project representation. Only the project's client or worker may read it.
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id} [get]
func (h *ProjectsHandler) GetProject(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	project, err := h.service.GetProject(c.Request.Context(), actor, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewProjectResponse(project))
}

// AcceptProject godoc
// @Summary     Accept an offer
// @Description The offered worker accepts, optionally overriding budget/deadline/timeline; the agreed terms are locked and cannot change afterwards
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       request body models.AcceptProjectRequest false "Agreed terms (optional overrides)"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/accept [post]
func (h *ProjectsHandler) AcceptProject(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	var req models.AcceptProjectRequest
	// Body is optional; without it the proposed terms become the agreed terms
	_ = c.ShouldBindJSON(&req)

	project, err := h.service.Accept(c.Request.Context(), actor, projectID, escrow.AcceptInput{
		AgreedBudget:   req.AgreedBudget,
		AgreedDeadline: req.AgreedDeadline,
		AgreedTimeline: req.AgreedTimeline,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewProjectResponse(project))
}

// RejectProject godoc
// @Summary     Reject an offer
// @Description The offered worker declines the open offer. Terminal.
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/reject [post]
func (h *ProjectsHandler) RejectProject(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	project, err := h.service.Reject(c.Request.Context(), actor, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewProjectResponse(project))
}

// PayAdvance godoc
// @Summary     Pay the advance
// @Description The client pays the 10% advance into escrow; the project moves to in_progress. Supports an optional Idempotency-Key header.
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       Idempotency-Key header string false "Idempotency key for safe retries"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id}/advance-payment [post]
func (h *ProjectsHandler) PayAdvance(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	project, err := h.service.PayAdvance(c.Request.Context(), actor, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewProjectResponse(project))
}

// UpdateProgress godoc
// @Summary     Update progress
// @Description The worker sets the progress percentage (clamped 0-100) and/or replaces the milestone list. Repeating the same payload is a no-op.
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       request body models.ProgressUpdateRequest true "Progress update"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/progress [put]
func (h *ProjectsHandler) UpdateProgress(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	var req models.ProgressUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid request body", Code: "validation_error", Message: err.Error(),
		})
		return
	}

	project, err := h.service.UpdateProgress(c.Request.Context(), actor, projectID, escrow.ProgressInput{
		ProgressPercent: req.ProgressPercent,
		Milestones:      req.Milestones,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewProjectResponse(project))
}

// CompleteProject godoc
// @Summary     Mark the work complete
// @Description The worker marks the project complete; the client is notified that the final payment is due
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/complete [post]
func (h *ProjectsHandler) CompleteProject(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	project, err := h.service.Complete(c.Request.Context(), actor, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewProjectResponse(project))
}

// PayFinal godoc
// @Summary     Pay the final amount
// @Description The client pays the 90% balance into escrow. Funds stay held until the rating releases them. Supports an optional Idempotency-Key header.
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       Idempotency-Key header string false "Idempotency key for safe retries"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id}/final-payment [post]
func (h *ProjectsHandler) PayFinal(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	project, err := h.service.PayFinal(c.Request.Context(), actor, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewProjectResponse(project))
}

// RateProject godoc
// @Summary     Rate the worker and release payment
// @Description The client rates the completed, fully paid project 1-5. The platform commission is taken, the worker payout is released and the worker's aggregate rating is recomputed. Supports an optional Idempotency-Key header.
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Param       request body models.RateProjectRequest true "Rating"
// @Param       Idempotency-Key header string false "Idempotency key for safe retries"
// @Success     200 {object} models.ProjectResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /projects/{project_id}/rate [post]
func (h *ProjectsHandler) RateProject(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}

	var req models.RateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid request body", Code: "validation_error", Message: err.Error(),
		})
		return
	}

	project, err := h.service.Rate(c.Request.Context(), actor, projectID, escrow.RateInput{
		Rating: req.Rating,
		Review: req.Review,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewProjectResponse(project))
}

func projectList(projects []models.Project) models.ProjectListResponse {
	out := models.ProjectListResponse{Projects: make([]models.ProjectResponse, len(projects))}
	for i := range projects {
		out.Projects[i] = models.NewProjectResponse(&projects[i])
	}
	return out
}
