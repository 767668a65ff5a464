package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehall-backend/internal/http/response"
	"github.com/yungbote/coursehall-backend/internal/pkg/ctxutil"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
	"github.com/yungbote/coursehall-backend/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

// OptionalAuth attaches the caller when a token is present. Requests without
// a token continue anonymously; a bad token is rejected.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			c.Next()
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Warn("Rejected bearer token", "path", c.Request.URL.Path, "error", err)
			response.RespondError(c, http.StatusUnauthorized, "unauthenticated", err)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests outright.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	optional := am.OptionalAuth()
	return func(c *gin.Context) {
		optional(c)
		if c.IsAborted() {
			return
		}
		if !ctxutil.GetRequestData(c.Request.Context()).LoggedIn() {
			response.RespondError(c, http.StatusUnauthorized, "unauthenticated", errMissingToken)
			return
		}
	}
}

func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
