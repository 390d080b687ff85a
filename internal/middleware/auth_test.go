package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commsdesk/internal/model"
	"commsdesk/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGuardRouter(issuer *auth.TokenIssuer) *gin.Engine {
	Init(issuer, nil)
	r := gin.New()
	r.GET("/protected", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doGet(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	issuer := auth.NewTokenIssuer([]byte("test-secret"), time.Hour, 24*time.Hour)
	r := newGuardRouter(issuer)

	pair, err := issuer.IssuePair(uuid.NewString(), "budi", model.RoleUser)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	expired := auth.NewTokenIssuer([]byte("test-secret"), -time.Minute, 24*time.Hour)
	expiredPair, err := expired.IssuePair(uuid.NewString(), "budi", model.RoleUser)
	if err != nil {
		t.Fatalf("issue expired pair: %v", err)
	}

	foreign := auth.NewTokenIssuer([]byte("other-secret"), time.Hour, 24*time.Hour)
	foreignPair, err := foreign.IssuePair(uuid.NewString(), "budi", model.RoleUser)
	if err != nil {
		t.Fatalf("issue foreign pair: %v", err)
	}

	cases := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{"missing header", "", "Authorization header is missing"},
		{"wrong scheme", "Basic abc123", "Invalid authorization format"},
		{"garbage token", "Bearer not-a-jwt", "Invalid token"},
		{"expired token", "Bearer " + expiredPair.AccessToken, "Token has expired"},
		{"refresh token as access", "Bearer " + pair.RefreshToken, "Invalid token type"},
		{"foreign signature", "Bearer " + foreignPair.AccessToken, "Invalid token"},
	}
	for _, tc := range cases {
		w := doGet(r, "/protected", tc.header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", tc.name, w.Code)
		}
		if !strings.Contains(w.Body.String(), tc.wantMsg) {
			t.Errorf("%s: body %q does not contain %q", tc.name, w.Body.String(), tc.wantMsg)
		}
	}
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	asUser := func(roleName string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(currentUserKey, &model.User{
				ID:   uuid.New(),
				Role: model.Role{Name: roleName},
			})
		}
	}
	r.GET("/staff", asUser(model.RoleStaff), RequireRole(model.RoleStaff, model.RoleKasubbag),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/user", asUser(model.RoleUser), RequireRole(model.RoleStaff, model.RoleKasubbag),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/anon", RequireRole(model.RoleStaff),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doGet(r, "/staff", ""); w.Code != http.StatusOK {
		t.Errorf("allowed role: status = %d, want 200", w.Code)
	}
	if w := doGet(r, "/user", ""); w.Code != http.StatusForbidden {
		t.Errorf("disallowed role: status = %d, want 403", w.Code)
	}
	if w := doGet(r, "/anon", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no user in context: status = %d, want 401", w.Code)
	}
}

func TestPermissionCacheClear(t *testing.T) {
	permCache.Store("SomeRole", permCacheEntry{
		codes:     map[string]bool{"content.create": true},
		expiresAt: time.Now().Add(time.Hour),
	})

	ClearPermissionCache("SomeRole")
	if _, ok := permCache.Load("SomeRole"); ok {
		t.Fatal("role cache entry survived targeted clear")
	}

	permCache.Store("A", permCacheEntry{expiresAt: time.Now().Add(time.Hour)})
	permCache.Store("B", permCacheEntry{expiresAt: time.Now().Add(time.Hour)})
	ClearPermissionCache("")
	for _, name := range []string{"A", "B"} {
		if _, ok := permCache.Load(name); ok {
			t.Fatalf("cache entry %q survived full clear", name)
		}
	}
}
