package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehall-backend/internal/domain"
)

func TestRespondDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.Validation("op", "bad"), http.StatusBadRequest, "validation"},
		{domain.NotFound("op", "gone"), http.StatusNotFound, "not_found"},
		{domain.PermissionDenied("op", "no"), http.StatusForbidden, "permission_denied"},
		{domain.Unauthenticated("op"), http.StatusUnauthorized, "unauthenticated"},
		{domain.NewError(domain.CodeStoreUnavailable, "op", "down", nil), http.StatusServiceUnavailable, "store_unavailable"},
		{domain.NewError(domain.CodeRetryable, "op", "again", nil), http.StatusServiceUnavailable, "retryable"},
		{domain.NewError(domain.CodeQueryPrecondition, "op", "index", nil), http.StatusInternalServerError, "query_precondition"},
		{errors.New("secret detail"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		RespondDomainError(c, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: status %d, want %d", tc.err, rec.Code, tc.status)
		}
		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Error.Code != tc.code {
			t.Fatalf("%v: code %q, want %q", tc.err, env.Error.Code, tc.code)
		}
		if env.Error.Message == "secret detail" {
			t.Fatalf("uncoded error text leaked")
		}
	}
}
