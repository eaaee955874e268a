package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gigpay-backend/internal/database"
	"gigpay-backend/internal/models"
)

const notificationPageSize = 100

type NotificationsHandler struct {
	dbClient *database.Client
}

func NewNotificationsHandler(dbClient *database.Client) *NotificationsHandler {
	return &NotificationsHandler{
		dbClient: dbClient,
	}
}

// ListNotifications godoc
// @Summary     List in-app notifications
// @Description Returns the authenticated user's notifications, newest first
// @Tags        notifications
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.NotificationListResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /notifications [get]
func (h *NotificationsHandler) ListNotifications(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	notifications, err := h.dbClient.ListNotificationsForUser(c.Request.Context(), actor.ID, notificationPageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	response := models.NotificationListResponse{
		Notifications: make([]models.NotificationResponse, len(notifications)),
	}
	for i := range notifications {
		response.Notifications[i] = models.NewNotificationResponse(&notifications[i])
	}

	c.JSON(http.StatusOK, response)
}

// MarkNotificationRead godoc
// @Summary     Mark a notification read
// @Tags        notifications
// @Produce     json
// @Security    Bearer
// @Param       notification_id path string true "Notification ID (UUID)"
// @Success     200 {object} map[string]string "message"
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /notifications/{notification_id}/read [post]
func (h *NotificationsHandler) MarkNotificationRead(c *gin.Context) {
	if h.dbClient == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	notificationID, ok := parseUUIDParam(c, "notification_id")
	if !ok {
		return
	}

	if err := h.dbClient.MarkNotificationRead(c.Request.Context(), notificationID, actor.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification marked read"})
}
