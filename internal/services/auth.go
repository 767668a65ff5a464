package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/ctxutil"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

// JWTClaims is the token payload issued by the identity provider.
type JWTClaims struct {
	Name    string   `json:"name,omitempty"`
	Role    string   `json:"role,omitempty"`
	Courses []string `json:"courses,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the caller a token is minted for.
type Identity struct {
	UserID      string
	DisplayName string
	Role        string
	CourseIDs   []string
}

type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(id Identity) (string, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
	issuer       string
	accessTTL    time.Duration
}

func NewAuthService(baseLog *logger.Logger, jwtSecretKey, issuer string, accessTTL time.Duration) AuthService {
	serviceLog := baseLog.With("service", "AuthService")
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &authService{
		log:          serviceLog,
		jwtSecretKey: jwtSecretKey,
		issuer:       strings.TrimSpace(issuer),
		accessTTL:    accessTTL,
	}
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

// IssueToken signs an HS256 access token. The API never calls it on a
// request path; it exists for tooling and tests.
func (as *authService) IssueToken(id Identity) (string, error) {
	const op = "auth.issue_token"
	if strings.TrimSpace(id.UserID) == "" {
		return "", domain.Validation(op, "user id is required")
	}
	now := time.Now()
	claims := JWTClaims{
		Name:    id.DisplayName,
		Role:    id.Role,
		Courses: id.CourseIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    as.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken verifies tokenString and attaches the caller to ctx.
// An empty token leaves ctx anonymous.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "auth.verify_token"
	if tokenString == "" {
		return ctx, nil
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if as.issuer != "" {
		opts = append(opts, jwt.WithIssuer(as.issuer))
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, opts...)
	if err != nil {
		as.log.Debug("Token rejected", "error", err)
		return ctx, domain.NewError(domain.CodeUnauthenticated, op, "invalid or expired token", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, domain.NewError(domain.CodeUnauthenticated, op, "invalid or expired token", nil)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return ctx, domain.NewError(domain.CodeUnauthenticated, op, "token has no subject", fmt.Errorf("empty sub claim"))
	}
	rd := &ctxutil.RequestData{
		TokenString:       tokenString,
		UserID:            claims.Subject,
		DisplayName:       claims.Name,
		Role:              strings.ToLower(strings.TrimSpace(claims.Role)),
		EnrolledCourseIDs: claims.Courses,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}
