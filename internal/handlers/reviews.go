package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gigpay-backend/internal/escrow"
	"gigpay-backend/internal/models"
)

type ReviewsHandler struct {
	service *escrow.Service
}

func NewReviewsHandler(service *escrow.Service) *ReviewsHandler {
	return &ReviewsHandler{
		service: service,
	}
}

// GetWorkerReviews godoc
// @Summary     Get a worker's reviews
// @Description Returns a worker's reviews plus the aggregate rating recomputed over all of them
// @Tags        reviews
// @Produce     json
// @Security    Bearer
// @Param       user_id path string true "Worker user ID (UUID)"
// @Success     200 {object} models.WorkerReviewsResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /workers/{user_id}/reviews [get]
func (h *ReviewsHandler) GetWorkerReviews(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	if _, ok := actorFromContext(c); !ok {
		return
	}

	workerID, ok := parseUUIDParam(c, "user_id")
	if !ok {
		return
	}

	reviews, profile, err := h.service.WorkerReviews(c.Request.Context(), workerID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := models.WorkerReviewsResponse{
		WorkerID:    workerID.String(),
		Rating:      profile.Rating,
		RatingCount: profile.RatingCount,
		Reviews:     make([]models.ReviewResponse, len(reviews)),
	}
	for i := range reviews {
		response.Reviews[i] = models.NewReviewResponse(&reviews[i])
	}

	c.JSON(http.StatusOK, response)
}
