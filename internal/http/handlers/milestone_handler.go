package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/http/handlers/common"
	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/service"
	"github.com/gigscape/backend/internal/storage"
)

// MilestoneHandler is the HTTP layer for milestone workflow and
// deliverables.
type MilestoneHandler struct {
	milestones *service.MilestoneService
}

func NewMilestoneHandler(milestones *service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestones: milestones}
}

// Create handles POST /milestones, client only.
func (h *MilestoneHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		ContractID  string     `json:"contract_id" binding:"required"`
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
		Amount      float64    `json:"amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		common.RespondBadRequest(c, "contract_id must be a valid UUID")
		return
	}

	milestone, err := h.milestones.Create(c.Request.Context(), userID, service.CreateMilestoneInput{
		ContractID:  contractID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Amount:      req.Amount,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, milestone)
}

// Get handles GET /milestones/:id.
func (h *MilestoneHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestone, err := h.milestones.Get(c.Request.Context(), milestoneID, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, milestone)
}

// ListByContract handles GET /contracts/:id/milestones.
func (h *MilestoneHandler) ListByContract(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestones, err := h.milestones.ListByContract(c.Request.Context(), contractID, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// Start handles POST /milestones/:id/start, freelancer only.
func (h *MilestoneHandler) Start(c *gin.Context) {
	h.transition(c, h.milestones.Start)
}

// Complete handles POST /milestones/:id/complete, client only. The final
// milestone completes the contract and releases the escrow.
func (h *MilestoneHandler) Complete(c *gin.Context) {
	h.transition(c, h.milestones.Complete)
}

// Cancel handles POST /milestones/:id/cancel, client only.
func (h *MilestoneHandler) Cancel(c *gin.Context) {
	h.transition(c, h.milestones.Cancel)
}

// Update handles PATCH /milestones/:id, client only, before the milestone
// closes.
func (h *MilestoneHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		DueDate     *time.Time `json:"due_date"`
		Amount      *float64   `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestone, err := h.milestones.Update(c.Request.Context(), milestoneID, userID, service.UpdateMilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Amount:      req.Amount,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, milestone)
}

// Delete handles DELETE /milestones/:id. Admins may force-remove a completed
// milestone; clients only delete open ones.
func (h *MilestoneHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	role, _ := common.CurrentUserRole(c)
	force := role == models.RoleAdmin

	if err := h.milestones.Delete(c.Request.Context(), milestoneID, userID, force); err != nil {
		common.Fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AdminList handles GET /admin/milestones.
func (h *MilestoneHandler) AdminList(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	milestones, err := h.milestones.ListAll(c.Request.Context(), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// AttachDeliverable handles POST /milestones/:id/deliverables. Accepts a
// multipart file field named "file".
func (h *MilestoneHandler) AttachDeliverable(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "file field is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "failed to read the uploaded file")
		return
	}
	defer file.Close()

	deliverable, err := h.milestones.AttachDeliverable(c.Request.Context(), milestoneID, userID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			common.RespondError(c, http.StatusRequestEntityTooLarge, "file is too large")
		case errors.Is(err, storage.ErrUnsupportedType):
			common.RespondBadRequest(c, "unsupported file type")
		default:
			common.Fail(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, deliverable)
}

func (h *MilestoneHandler) transition(c *gin.Context, op func(ctx context.Context, milestoneID, userID uuid.UUID) (*models.Milestone, error)) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	milestoneID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	milestone, err := op(c.Request.Context(), milestoneID, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, milestone)
}
