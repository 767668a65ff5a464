package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehall-backend/internal/pkg/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, "req-1")
	req.Header.Set(headerTraceID, "trace-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if seen == nil || seen.RequestID != "req-1" || seen.TraceID != "trace-1" {
		t.Fatalf("client ids not propagated: %+v", seen)
	}
	if rec.Header().Get(headerRequestID) != "req-1" {
		t.Fatalf("response header missing request id")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(headerRequestID, strings.Repeat("x", maxClientIDLen+1))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if seen.RequestID == "" || len(seen.RequestID) > maxClientIDLen || seen.TraceID == "" {
		t.Fatalf("expected generated ids, got %+v", seen)
	}
}
