package handler

import (
	"net/http"

	"commsdesk/internal/middleware"
	"commsdesk/internal/model"
	"commsdesk/internal/service"
	"commsdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

// CategoryHandler exposes category reference-data routes. Reads are open to
// any authenticated user; mutations need the category permissions.
type CategoryHandler struct {
	categories service.CategoryService
}

func NewCategoryHandler(categories service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/categories", middleware.RequireAuth())
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", middleware.RequirePermission(model.PermCategoryCreate), h.Create)
		group.PUT("/:id", middleware.RequirePermission(model.PermCategoryUpdate), h.Update)
		group.DELETE("/:id", middleware.RequirePermission(model.PermCategoryDelete), h.Delete)
	}
}

// List godoc
// @Summary List categories
// @Tags categories
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Categories retrieved", categories))
}

// Get godoc
// @Summary Get a category
// @Tags categories
// @Security BearerAuth
// @Produce json
// @Param id path string true "Category id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /categories/{id} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := h.categories.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Category retrieved", category))
}

// Create godoc
// @Summary Create a category
// @Tags categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CategoryRequest true "Category payload"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	category, err := h.categories.Create(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("Category created", category))
}

// Update godoc
// @Summary Update a category
// @Tags categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Category id"
// @Param request body service.CategoryRequest true "Category payload"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	category, err := h.categories.Update(c.Request.Context(), id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Category updated", category))
}

// Delete godoc
// @Summary Delete an unused category
// @Tags categories
// @Security BearerAuth
// @Produce json
// @Param id path string true "Category id"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Category deleted", nil))
}
