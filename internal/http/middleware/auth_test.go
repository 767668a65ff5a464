package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehall-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursehall-backend/internal/pkg/ctxutil"
	"github.com/yungbote/coursehall-backend/internal/services"
)

func authRouter(t *testing.T, required bool) (*gin.Engine, services.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	auth := services.NewAuthService(log, "secret", "", time.Hour)
	am := NewAuthMiddleware(log, auth)
	r := gin.New()
	if required {
		r.Use(am.RequireAuth())
	} else {
		r.Use(am.OptionalAuth())
	}
	r.GET("/who", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if !rd.LoggedIn() {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, rd.UserID)
	})
	return r, auth
}

func get(r http.Handler, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestOptionalAuth(t *testing.T) {
	r, auth := authRouter(t, false)
	tok, err := auth.IssueToken(services.Identity{UserID: "u1", Role: "student"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if rec := get(r, "/who", ""); rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Fatalf("anonymous: %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(r, "/who", tok); rec.Body.String() != "u1" {
		t.Fatalf("bearer: %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(r, "/who?token="+tok, ""); rec.Body.String() != "u1" {
		t.Fatalf("query token: %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(r, "/who", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token should be rejected, got %d", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	r, auth := authRouter(t, true)
	if rec := get(r, "/who", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	tok, _ := auth.IssueToken(services.Identity{UserID: "u2"})
	if rec := get(r, "/who", tok); rec.Code != http.StatusOK || rec.Body.String() != "u2" {
		t.Fatalf("expected u2, got %d %q", rec.Code, rec.Body.String())
	}
}
