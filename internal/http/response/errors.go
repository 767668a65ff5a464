package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehall-backend/internal/domain"
)

// StatusFor maps a domain error code onto an HTTP status.
func StatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodePermissionDenied:
		return http.StatusForbidden
	case domain.CodeUnauthenticated:
		return http.StatusUnauthorized
	case domain.CodeStoreUnavailable, domain.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondDomainError writes err using its domain code. Uncoded errors are
// reported as internal without leaking their text.
func RespondDomainError(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	if code == "" {
		RespondError(c, http.StatusInternalServerError, string(domain.CodeInternal), errInternal)
		return
	}
	RespondError(c, StatusFor(code), string(code), err)
}
