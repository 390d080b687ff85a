package handler

import (
	"net/http"

	"commsdesk/internal/middleware"
	"commsdesk/internal/model"
	"commsdesk/internal/service"
	"commsdesk/pkg/pagination"
	"commsdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

// ContentHandler exposes content CRUD and the approval workflow routes.
type ContentHandler struct {
	contents service.ContentService
}

func NewContentHandler(contents service.ContentService) *ContentHandler {
	return &ContentHandler{contents: contents}
}

func (h *ContentHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/contents", middleware.RequireAuth())
	{
		group.POST("", middleware.RequirePermission(model.PermContentCreate), h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.PUT("/:id", middleware.RequirePermission(model.PermContentCreate), h.Update)
		group.DELETE("/:id", middleware.RequirePermission(model.PermContentCreate), h.Delete)

		group.POST("/:id/submit", middleware.RequirePermission(model.PermContentCreate), h.Submit)
		group.POST("/:id/approve", middleware.RequirePermission(model.PermContentApprove), h.Approve)
		group.POST("/:id/publish", middleware.RequirePermission(model.PermContentPublish), h.Publish)
		group.POST("/:id/reject", middleware.RequirePermission(model.PermContentApprove), h.Reject)

		group.GET("/:id/approvals", h.ApprovalHistory)
	}
}

// transitionRequest is the optional body for workflow actions.
type transitionRequest struct {
	Notes string `json:"notes"`
}

// Create godoc
// @Summary Create a content draft
// @Tags contents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateContentRequest true "Draft payload"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /contents [post]
func (h *ContentHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req service.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	content, err := h.contents.Create(c.Request.Context(), user, req, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("Content created", content))
}

// List godoc
// @Summary List contents with filters and pagination
// @Tags contents
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status"
// @Param category_id query string false "Filter by category"
// @Param author_id query string false "Filter by author"
// @Param search query string false "Search in title, excerpt and body"
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /contents [get]
func (h *ContentHandler) List(c *gin.Context) {
	q := service.ListContentsQuery{
		Status:     c.Query("status"),
		CategoryID: c.Query("category_id"),
		AuthorID:   c.Query("author_id"),
		Search:     c.Query("search"),
	}

	contents, meta, err := h.contents.List(c.Request.Context(), q, pagination.Parse(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Contents retrieved", gin.H{
		"contents":   contents,
		"pagination": meta,
	}))
}

// Get godoc
// @Summary Get a content by id
// @Tags contents
// @Security BearerAuth
// @Produce json
// @Param id path string true "Content id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /contents/{id} [get]
func (h *ContentHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	content, err := h.contents.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Content retrieved", content))
}

// Update godoc
// @Summary Update a content
// @Tags contents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Content id"
// @Param request body service.UpdateContentRequest true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /contents/{id} [put]
func (h *ContentHandler) Update(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	content, err := h.contents.Update(c.Request.Context(), user, id, req, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Content updated", content))
}

// Delete godoc
// @Summary Delete a content
// @Tags contents
// @Security BearerAuth
// @Produce json
// @Param id path string true "Content id"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /contents/{id} [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.contents.Delete(c.Request.Context(), user, id, requestMeta(c)); err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Content deleted", nil))
}

func (h *ContentHandler) bindTransition(c *gin.Context) (string, bool) {
	var req transitionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
			return "", false
		}
	}
	return req.Notes, true
}

// Submit godoc
// @Summary Submit a draft for review
// @Tags contents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Content id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /contents/{id}/submit [post]
func (h *ContentHandler) Submit(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	notes, ok := h.bindTransition(c)
	if !ok {
		return
	}

	content, err := h.contents.Submit(c.Request.Context(), user, id, notes, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Content submitted for review", content))
}

// Approve godoc
// @Summary Record an approval sign-off
// @Tags contents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Content id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /contents/{id}/approve [post]
func (h *ContentHandler) Approve(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	notes, ok := h.bindTransition(c)
	if !ok {
		return
	}

	content, err := h.contents.Approve(c.Request.Context(), user, id, notes, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Content approved", content))
}

// Publish godoc
// @Summary Publish approved content
// @Tags contents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Content id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /contents/{id}/publish [post]
func (h *ContentHandler) Publish(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	notes, ok := h.bindTransition(c)
	if !ok {
		return
	}

	content, err := h.contents.Publish(c.Request.Context(), user, id, notes, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Content published", content))
}

// Reject godoc
// @Summary Reject content with mandatory notes
// @Tags contents
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Content id"
// @Param request body transitionRequest true "Rejection notes"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /contents/{id}/reject [post]
func (h *ContentHandler) Reject(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	notes, ok := h.bindTransition(c)
	if !ok {
		return
	}

	content, err := h.contents.Reject(c.Request.Context(), user, id, notes, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Content rejected", content))
}

// ApprovalHistory godoc
// @Summary Get the approval ledger for a content
// @Tags contents
// @Security BearerAuth
// @Produce json
// @Param id path string true "Content id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /contents/{id}/approvals [get]
func (h *ContentHandler) ApprovalHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	history, err := h.contents.ApprovalHistory(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Approval history retrieved", history))
}
