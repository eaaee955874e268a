package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gigpay-backend/internal/escrow"
	"gigpay-backend/internal/middleware"
	"gigpay-backend/internal/models"
)

// actorFromContext resolves the authenticated actor the middleware stored.
// It writes the error response itself when the context is unusable.
func actorFromContext(c *gin.Context) (escrow.Actor, bool) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return escrow.Actor{}, false
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return escrow.Actor{}, false
	}

	actor := escrow.Actor{
		ID:             userID,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	}
	if name, ok := c.Get(middleware.UserNameKey); ok {
		actor.Name, _ = name.(string)
	}
	return actor, true
}

// respondError maps the escrow error taxonomy onto HTTP categories with a
// stable code. Anything unrecognized is an internal error.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, escrow.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "validation failed", Code: "validation_error", Message: err.Error(),
		})
	case errors.Is(err, escrow.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error: "not permitted", Code: "authorization_error", Message: err.Error(),
		})
	case errors.Is(err, escrow.ErrStateConflict):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid project state", Code: "state_conflict", Message: err.Error(),
		})
	case errors.Is(err, escrow.ErrIdempotencyConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error: "idempotency conflict", Code: "idempotency_conflict", Message: err.Error(),
		})
	case errors.Is(err, escrow.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "not found", Code: "not_found", Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "internal error", Code: "internal_error", Message: err.Error(),
		})
	}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid " + name, Code: "validation_error",
		})
		return uuid.Nil, false
	}
	return id, true
}
