package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/coursehall-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/ctxutil"
)

func TestAuthRoundTrip(t *testing.T) {
	auth := NewAuthService(testutil.Logger(t), "secret", "coursehall", time.Hour)
	tok, err := auth.IssueToken(Identity{UserID: "u1", DisplayName: "Ann", Role: "Teacher", CourseIDs: []string{"c1"}})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	ctx, err := auth.SetContextFromToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if !rd.LoggedIn() || rd.UserID != "u1" || rd.Role != domain.RoleTeacher || rd.DisplayName != "Ann" {
		t.Fatalf("unexpected request data %+v", rd)
	}
	if len(rd.EnrolledCourseIDs) != 1 || rd.EnrolledCourseIDs[0] != "c1" {
		t.Fatalf("courses = %v", rd.EnrolledCourseIDs)
	}
}

func TestAuthEmptyTokenIsAnonymous(t *testing.T) {
	auth := NewAuthService(testutil.Logger(t), "secret", "", time.Hour)
	ctx, err := auth.SetContextFromToken(context.Background(), "")
	if err != nil || ctxutil.GetRequestData(ctx).LoggedIn() {
		t.Fatalf("expected anonymous context, err=%v", err)
	}
}

func TestAuthRejectsBadTokens(t *testing.T) {
	log := testutil.Logger(t)
	auth := NewAuthService(log, "secret", "coursehall", time.Hour)

	other, _ := NewAuthService(log, "other-secret", "coursehall", time.Hour).IssueToken(Identity{UserID: "u1"})
	wrongIssuer, _ := NewAuthService(log, "secret", "someone-else", time.Hour).IssueToken(Identity{UserID: "u1"})
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "coursehall",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}).SignedString([]byte("secret"))
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer: "coursehall",
	}}).SignedString([]byte("secret"))

	for name, tok := range map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": other,
		"wrong issuer": wrongIssuer,
		"expired":      expired,
		"no subject":   noSubject,
	} {
		_, err := auth.SetContextFromToken(context.Background(), tok)
		if !domain.IsCode(err, domain.CodeUnauthenticated) {
			t.Fatalf("%s: expected unauthenticated, got %v", name, err)
		}
	}
	if _, err := auth.IssueToken(Identity{}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error for empty identity, got %v", err)
	}
}
