package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/http/handlers/common"
	"github.com/gigscape/backend/internal/service"
)

// TransactionHandler is the HTTP layer for provider-backed deposits.
type TransactionHandler struct {
	transactions *service.TransactionService
}

func NewTransactionHandler(transactions *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// CreateDeposit handles POST /payments/deposit. Returns the pending
// transaction plus the provider's client secret.
func (h *TransactionHandler) CreateDeposit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Amount   float64 `json:"amount" binding:"required,gt=0"`
		Currency string  `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "amount must be positive")
		return
	}

	intent, err := h.transactions.CreateDeposit(c.Request.Context(), userID, req.Amount, req.Currency)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, intent)
}

// CreateManual handles POST /admin/payments. Records a bank or offline
// payment outside the provider flow.
func (h *TransactionHandler) CreateManual(c *gin.Context) {
	var req struct {
		UserID   string  `json:"user_id" binding:"required"`
		Type     string  `json:"type" binding:"required"`
		Amount   float64 `json:"amount" binding:"required,gt=0"`
		Currency string  `json:"currency"`
		Reason   string  `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		common.RespondBadRequest(c, "user_id must be a valid UUID")
		return
	}

	transaction, err := h.transactions.CreateManual(c.Request.Context(), service.ManualTransactionInput{
		UserID:   userID,
		Type:     req.Type,
		Amount:   req.Amount,
		Currency: req.Currency,
		Reason:   req.Reason,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

// AdminUpdateStatus handles PATCH /admin/payments/:id/status.
func (h *TransactionHandler) AdminUpdateStatus(c *gin.Context) {
	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transaction, err := h.transactions.AdminUpdateStatus(c.Request.Context(), transactionID, req.Status)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// Confirm handles POST /payments/:id/confirm.
func (h *TransactionHandler) Confirm(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transaction, err := h.transactions.Confirm(c.Request.Context(), userID, transactionID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// Refund handles POST /payments/:id/refund. Succeeded deposits only.
func (h *TransactionHandler) Refund(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transaction, err := h.transactions.Refund(c.Request.Context(), userID, transactionID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// MarkFailed handles POST /payments/:id/fail.
func (h *TransactionHandler) MarkFailed(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transaction, err := h.transactions.MarkFailed(c.Request.Context(), userID, transactionID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// Get handles GET /payments/:id.
func (h *TransactionHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	transactionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	transaction, err := h.transactions.Get(c.Request.Context(), userID, transactionID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// List handles GET /payments.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	transactions, err := h.transactions.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// Stats handles GET /admin/stats/transactions.
func (h *TransactionHandler) Stats(c *gin.Context) {
	stats, err := h.transactions.Stats(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
