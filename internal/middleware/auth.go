package middleware

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"commsdesk/internal/model"
	"commsdesk/pkg/auth"
	"commsdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const currentUserKey = "currentUser"

var (
	tokenIssuer *auth.TokenIssuer
	guardDB     *gorm.DB
)

// Init wires the token issuer and database used by the request guards. Must
// be called once during startup before any route registers a guard.
func Init(issuer *auth.TokenIssuer, db *gorm.DB) {
	tokenIssuer = issuer
	guardDB = db
}

// CurrentUser returns the authenticated user stashed by RequireAuth.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// RequireAuth validates the bearer token and loads the active user (with
// role) into the request context. Refresh tokens are rejected here: only
// access tokens authenticate API calls.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Authorization header is missing"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Invalid authorization format. Expected 'Bearer <token>'"))
			return
		}

		claims, err := tokenIssuer.DecodeAccess(parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Token has expired. Please login again"))
			case errors.Is(err, auth.ErrWrongTokenType):
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Invalid token type"))
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Invalid token"))
			}
			return
		}

		var user model.User
		err = guardDB.WithContext(c.Request.Context()).
			Preload("Role").
			Where("id = ? AND is_active = true", claims.UserID).
			First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("User not found or inactive"))
			} else {
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error("Internal server error"))
			}
			return
		}

		c.Set(currentUserKey, &user)
		c.Next()
	}
}

// RequireRole allows the request only when the user's role name is in the
// given allow-list. Must run after RequireAuth.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Authentication required"))
			return
		}

		for _, role := range allowedRoles {
			if user.Role.Name == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, response.Error("Access denied: insufficient role"))
	}
}

// --- Permission-based guard ---

// permCacheEntry stores cached permission codes for a role with TTL.
type permCacheEntry struct {
	codes     map[string]bool
	expiresAt time.Time
}

var (
	permCache    sync.Map // roleName -> permCacheEntry
	permCacheTTL = 5 * time.Minute
)

// RequirePermission allows the request only when the user's role holds every
// listed permission code. Must run after RequireAuth.
func RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error("Authentication required"))
			return
		}

		permSet, err := permissionsForRole(user.Role.Name)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error("Failed to verify permissions"))
			return
		}

		for _, required := range requiredPerms {
			if !permSet[required] {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error("You do not have permission to perform this action"))
				return
			}
		}

		c.Next()
	}
}

// permissionsForRole returns cached or DB-fetched permission codes for a role.
func permissionsForRole(roleName string) (map[string]bool, error) {
	if entry, ok := permCache.Load(roleName); ok {
		cached := entry.(permCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.codes, nil
		}
	}

	var codes []string
	err := guardDB.Raw(`
		SELECT p.code FROM permissions p
		INNER JOIN role_permissions rp ON rp.permission_id = p.id
		INNER JOIN roles r ON r.id = rp.role_id
		WHERE r.name = ?
	`, roleName).Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}

	permSet := make(map[string]bool, len(codes))
	for _, code := range codes {
		permSet[code] = true
	}

	permCache.Store(roleName, permCacheEntry{
		codes:     permSet,
		expiresAt: time.Now().Add(permCacheTTL),
	})

	return permSet, nil
}

// PermissionCodesForRole exposes permission fetching for handlers (e.g. the
// profile endpoint returns the caller's capabilities).
func PermissionCodesForRole(roleName string) ([]string, error) {
	permSet, err := permissionsForRole(roleName)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(permSet))
	for code := range permSet {
		codes = append(codes, code)
	}
	return codes, nil
}

// ClearPermissionCache removes cached permissions for a role, or all roles
// when roleName is empty. Call after role-permission assignments change.
func ClearPermissionCache(roleName string) {
	if roleName == "" {
		permCache.Range(func(key, _ interface{}) bool {
			permCache.Delete(key)
			return true
		})
	} else {
		permCache.Delete(roleName)
	}
}
