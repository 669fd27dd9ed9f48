package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/http/handlers/common"
	"github.com/gigscape/backend/internal/models"
	"github.com/gigscape/backend/internal/service"
)

// JobHandler is the HTTP layer for job postings.
type JobHandler struct {
	jobs *service.JobService
}

func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

type jobRequest struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description" binding:"required"`
	CategoryID    *string  `json:"category_id"`
	Skills        []string `json:"skills"`
	BudgetType    string   `json:"budget_type"`
	BudgetMin     *float64 `json:"budget_min"`
	FixedBudget   *float64 `json:"fixed_budget"`
	Currency      string   `json:"currency"`
	DurationWeeks *int     `json:"duration_weeks"`
	Remote        bool     `json:"remote"`
	Location      *string  `json:"location"`
}

func (r jobRequest) toInput() (service.CreateJobInput, error) {
	in := service.CreateJobInput{
		Title:         r.Title,
		Description:   r.Description,
		Skills:        r.Skills,
		BudgetType:    r.BudgetType,
		BudgetMin:     r.BudgetMin,
		FixedBudget:   r.FixedBudget,
		Currency:      r.Currency,
		DurationWeeks: r.DurationWeeks,
		Remote:        r.Remote,
		Location:      r.Location,
	}
	if r.CategoryID != nil {
		id, err := uuid.Parse(*r.CategoryID)
		if err != nil {
			return in, err
		}
		in.CategoryID = &id
	}
	return in, nil
}

// Create handles POST /jobs.
func (h *JobHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	in, err := req.toInput()
	if err != nil {
		common.RespondBadRequest(c, "category_id must be a valid UUID")
		return
	}

	job, err := h.jobs.Create(c.Request.Context(), userID, in)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// Get handles GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// List handles GET /jobs.
func (h *JobHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	filter := models.JobFilter{
		Status: c.Query("status"),
		Search: c.Query("q"),
		Limit:  limit,
		Offset: offset,
	}

	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "category_id must be a valid UUID")
			return
		}
		filter.CategoryID = &id
	}
	if raw := c.Query("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "client_id must be a valid UUID")
			return
		}
		filter.ClientID = &id
	}

	jobs, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// Update handles PUT /jobs/:id.
func (h *JobHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	in, err := req.toInput()
	if err != nil {
		common.RespondBadRequest(c, "category_id must be a valid UUID")
		return
	}

	job, err := h.jobs.Update(c.Request.Context(), jobID, userID, in)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Close handles POST /jobs/:id/close.
func (h *JobHandler) Close(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.jobs.Close(c.Request.Context(), jobID, userID); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job closed"})
}

// Delete handles DELETE /jobs/:id. Draft jobs only.
func (h *JobHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.jobs.Delete(c.Request.Context(), jobID, userID); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job deleted"})
}

// Stats handles GET /admin/stats/jobs.
func (h *JobHandler) Stats(c *gin.Context) {
	stats, err := h.jobs.Stats(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
