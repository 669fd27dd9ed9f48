package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigscape/backend/internal/http/handlers/common"
	"github.com/gigscape/backend/internal/service"
)

// CatalogHandler serves the category and skill directory. Writes are
// admin-only, enforced in the router.
type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories handles GET /catalog/categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory handles POST /admin/catalog/categories.
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name        string  `json:"name" binding:"required"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// DeleteCategory handles DELETE /admin/catalog/categories/:id.
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

// ListSkills handles GET /catalog/skills.
func (h *CatalogHandler) ListSkills(c *gin.Context) {
	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "category_id must be a valid UUID")
			return
		}
		categoryID = &id
	}

	skills, err := h.catalog.ListSkills(c.Request.Context(), categoryID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

// CreateSkill handles POST /admin/catalog/skills.
func (h *CatalogHandler) CreateSkill(c *gin.Context) {
	var req struct {
		Name       string  `json:"name" binding:"required"`
		CategoryID *string `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var categoryID *uuid.UUID
	if req.CategoryID != nil {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			common.RespondBadRequest(c, "category_id must be a valid UUID")
			return
		}
		categoryID = &id
	}

	skill, err := h.catalog.CreateSkill(c.Request.Context(), req.Name, categoryID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, skill)
}

// DeleteSkill handles DELETE /admin/catalog/skills/:id.
func (h *CatalogHandler) DeleteSkill(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.catalog.DeleteSkill(c.Request.Context(), id); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "skill deleted"})
}
