package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gigpay-backend/internal/escrow"
	"gigpay-backend/internal/models"
)

type TransactionsHandler struct {
	service *escrow.Service
}

func NewTransactionsHandler(service *escrow.Service) *TransactionsHandler {
	return &TransactionsHandler{
		service: service,
	}
}

// ListTransactions godoc
// @Summary     List payment history
// @Description Returns ledger entries where the authenticated user is the sender or receiver, newest first, capped at 200
// @Tags        transactions
// @Produce     json
// @Security    Bearer
// @Param       limit query int false "Page size (max 200)"
// @Success     200 {object} models.TransactionListResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /transactions [get]
func (h *TransactionsHandler) ListTransactions(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "service not available"})
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "invalid limit", Code: "validation_error",
			})
			return
		}
		limit = parsed
	}

	transactions, err := h.service.ListTransactions(c.Request.Context(), actor, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactionList(transactions))
}

// ListProjectTransactions godoc
// @Summary     List one project's ledger
// @Description Returns the ledger entries of a project to its client or worker
// @Tags        transactions
// @Produce     json
// @Security    Bearer
// @Param       project_id path string true "Project ID (UUID)"
// @Success     200 {object} models.TransactionListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id}/transactions [get]
func (h *TransactionsHandler) ListProjectTransactions(c *gin.Context) {
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

	transactions, err := h.service.ListProjectTransactions(c.Request.Context(), actor, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactionList(transactions))
}

func transactionList(transactions []models.Transaction) models.TransactionListResponse {
	out := models.TransactionListResponse{Transactions: make([]models.TransactionResponse, len(transactions))}
	for i := range transactions {
		out.Transactions[i] = models.NewTransactionResponse(&transactions[i])
	}
	return out
}
