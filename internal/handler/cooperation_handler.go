package handler

import (
	"fmt"
	"net/http"

	"commsdesk/internal/middleware"
	"commsdesk/internal/model"
	"commsdesk/internal/service"
	"commsdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

// CooperationHandler exposes partnership intake and verification routes.
type CooperationHandler struct {
	coops service.CooperationService
}

func NewCooperationHandler(coops service.CooperationService) *CooperationHandler {
	return &CooperationHandler{coops: coops}
}

func (h *CooperationHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/cooperations", middleware.RequireAuth())
	{
		group.POST("", middleware.RequirePermission(model.PermCoopSubmit), h.Create)
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.GET("/:id/document", h.Document)

		group.POST("/:id/verify", middleware.RequirePermission(model.PermCoopVerify), h.Verify)
		group.POST("/:id/approve", middleware.RequirePermission(model.PermCoopApprove), h.Approve)
		// Rejection is gated by role name, not by a permission code.
		group.POST("/:id/reject", middleware.RequireRole(model.RoleStaff, model.RoleKasubbag), h.Reject)
	}
}

// Create godoc
// @Summary Submit a partnership application
// @Tags cooperations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateCooperationRequest true "Application payload"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /cooperations [post]
func (h *CooperationHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req service.CreateCooperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	coop, err := h.coops.Create(c.Request.Context(), user, req, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("Cooperation application submitted", coop))
}

// List godoc
// @Summary List cooperation applications
// @Tags cooperations
// @Security BearerAuth
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Response
// @Router /cooperations [get]
func (h *CooperationHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	coops, err := h.coops.List(c.Request.Context(), user, c.Query("status"))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Cooperations retrieved", coops))
}

// Get godoc
// @Summary Get a cooperation application
// @Tags cooperations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Cooperation id"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /cooperations/{id} [get]
func (h *CooperationHandler) Get(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	coop, err := h.coops.Get(c.Request.Context(), user, id)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Cooperation retrieved", coop))
}

// Document godoc
// @Summary Download the supporting document
// @Tags cooperations
// @Security BearerAuth
// @Produce octet-stream
// @Param id path string true "Cooperation id"
// @Success 200 {file} binary
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /cooperations/{id}/document [get]
func (h *CooperationHandler) Document(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.coops.Document(c.Request.Context(), user, id)
	if err != nil {
		respondErr(c, err)
		return
	}

	mime := doc.Mime
	if mime == "" {
		mime = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	c.Data(http.StatusOK, mime, doc.Data)
}

// Verify godoc
// @Summary Verify a pending application
// @Tags cooperations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Cooperation id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /cooperations/{id}/verify [post]
func (h *CooperationHandler) Verify(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	coop, err := h.coops.Verify(c.Request.Context(), user, id, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Cooperation verified", coop))
}

// Approve godoc
// @Summary Approve a verified application
// @Tags cooperations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Cooperation id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /cooperations/{id}/approve [post]
func (h *CooperationHandler) Approve(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	coop, err := h.coops.Approve(c.Request.Context(), user, id, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Cooperation approved", coop))
}

// Reject godoc
// @Summary Reject an application
// @Tags cooperations
// @Security BearerAuth
// @Produce json
// @Param id path string true "Cooperation id"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /cooperations/{id}/reject [post]
func (h *CooperationHandler) Reject(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	coop, err := h.coops.Reject(c.Request.Context(), user, id, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Cooperation rejected", coop))
}
