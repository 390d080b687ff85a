package handler

import (
	"net/http"
	"strings"

	"commsdesk/internal/middleware"
	"commsdesk/internal/service"
	"commsdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler exposes registration, session and self-service profile routes.
type AuthHandler struct {
	auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/auth")
	{
		group.POST("/register", h.Register)
		group.POST("/login", h.Login)
		group.POST("/refresh", h.Refresh)
		group.POST("/logout", middleware.RequireAuth(), h.Logout)
		group.GET("/profile", middleware.RequireAuth(), h.Profile)
		group.PUT("/profile", middleware.RequireAuth(), h.UpdateProfile)
		group.POST("/change-password", middleware.RequireAuth(), h.ChangePassword)
	}
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("Registration successful", user))
}

// Login godoc
// @Summary Login with username or email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginRequest true "Credentials"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Login successful", result))
}

// Refresh godoc
// @Summary Exchange a refresh token for a new access token
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Token refreshed", pair))
}

// Logout godoc
// @Summary Logout and invalidate the current session
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	token := ""
	if parts := strings.Split(c.GetHeader("Authorization"), " "); len(parts) == 2 {
		token = parts[1]
	}

	if err := h.auth.Logout(c.Request.Context(), user, token, requestMeta(c)); err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Logout successful", nil))
}

// Profile godoc
// @Summary Get the current user's profile with role capabilities
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	profile, err := h.auth.Profile(c.Request.Context(), user.ID)
	if err != nil {
		respondErr(c, err)
		return
	}

	perms, err := middleware.PermissionCodesForRole(profile.Role.Name)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Profile retrieved", gin.H{
		"user":        profile,
		"permissions": perms,
	}))
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	updated, err := h.auth.UpdateProfile(c.Request.Context(), user, req, requestMeta(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Profile updated", updated))
}

// ChangePassword godoc
// @Summary Change the current user's password
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.ChangePasswordRequest true "Password change payload"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request body: "+err.Error()))
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), user, req, requestMeta(c)); err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Password changed. Please login again", nil))
}
