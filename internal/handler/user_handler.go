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

// UserHandler exposes administrative account management. Reads are open to
// both Jashumas roles; mutations are restricted to the section head.
type UserHandler struct {
	users service.UserService
	roles service.RoleService
}

func NewUserHandler(users service.UserService, roles service.RoleService) *UserHandler {
	return &UserHandler{users: users, roles: roles}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/users", middleware.RequireAuth())
	{
		group.GET("", middleware.RequireRole(model.RoleStaff, model.RoleKasubbag), h.List)
		group.GET("/:id", middleware.RequireRole(model.RoleStaff, model.RoleKasubbag), h.Get)
		group.POST("", middleware.RequireRole(model.RoleKasubbag), h.Create)
		group.PUT("/:id", middleware.RequireRole(model.RoleKasubbag), h.Update)
		group.DELETE("/:id", middleware.RequireRole(model.RoleKasubbag), h.Delete)
		group.POST("/:id/reset-password", middleware.RequireRole(model.RoleKasubbag), h.ResetPassword)
	}

	meta := r.Group("", middleware.RequireAuth(), middleware.RequireRole(model.RoleStaff, model.RoleKasubbag))
	{
		meta.GET("/roles", h.ListRoles)
		meta.GET("/permissions", h.ListPermissions)
	}
}

// List godoc
// @Summary List user accounts
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param per_page query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, meta, err := h.users.List(c.Request.Context(), pagination.Parse(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Users retrieved", gin.H{
		"users":      users,
		"pagination": meta,
	}))
}

// Get godoc
// @Summary Get a user account
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("User retrieved", user))
}

// Create godoc
// @Summary Create a user account with an explicit role
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.CreateUserRequest true "Account payload"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	user, err := h.users.Create(c.Request.Context(), actor, req, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("User created", user))
}

// Update godoc
// @Summary Update a user account
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param request body service.UpdateUserRequest true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	user, err := h.users.Update(c.Request.Context(), actor, id, req, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("User updated", user))
}

// Delete godoc
// @Summary Soft-delete a user account
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), actor, id, requestMeta(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("User deleted", nil))
}

// ResetPassword godoc
// @Summary Set a new password for a user and invalidate their sessions
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param request body service.ResetPasswordRequest true "New password"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	actor, _ := middleware.CurrentUser(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req service.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), actor, id, req, requestMeta(c)); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Password reset. The user must login again", nil))
}

// ListRoles godoc
// @Summary List roles with their permissions
// @Tags roles
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /roles [get]
func (h *UserHandler) ListRoles(c *gin.Context) {
	roles, err := h.roles.ListRoles(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Roles retrieved", roles))
}

// ListPermissions godoc
// @Summary List the permission catalog
// @Tags roles
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /permissions [get]
func (h *UserHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roles.ListPermissions(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Permissions retrieved", perms))
}
