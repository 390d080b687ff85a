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

// AuditHandler exposes the read-only activity trail.
type AuditHandler struct {
	audit service.AuditService
}

func NewAuditHandler(audit service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func (h *AuditHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/audit-logs", middleware.RequireAuth(), middleware.RequirePermission(model.PermAuditRead))
	{
		group.GET("", h.List)
	}
}

// List godoc
// @Summary List audit log entries, newest first
// @Tags audit
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	logs, meta, err := h.audit.List(c.Request.Context(), pagination.Parse(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Audit logs retrieved", gin.H{
		"logs":       logs,
		"pagination": meta,
	}))
}
