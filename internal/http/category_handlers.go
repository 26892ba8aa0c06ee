package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sm-portal/internal/service"
)

type categoryRequest struct {
	Name      string `json:"name" binding:"required"`
	SortOrder *int   `json:"sortOrder"`
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.categories.ListCategories(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]CategoryResponse, len(categories))
	for i := range categories {
		resp[i] = categoryToResponse(categories[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.categories.CreateCategory(c.Request.Context(), service.CategoryInput{Name: req.Name, SortOrder: req.SortOrder})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, categoryToResponse(*category))
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.categories.UpdateCategory(c.Request.Context(), id, service.CategoryInput{Name: req.Name, SortOrder: req.SortOrder})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryToResponse(*category))
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.DeleteCategory(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
