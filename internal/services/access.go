package services

import (
	"context"
	"strings"

	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/ctxutil"
)

// requireUser returns the caller or an unauthenticated error.
func requireUser(ctx context.Context, op string) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if !rd.LoggedIn() {
		return nil, domain.Unauthenticated(op)
	}
	return rd, nil
}

// requireManager allows teachers and admins to edit course content.
func requireManager(ctx context.Context, op string) (*ctxutil.RequestData, error) {
	rd, err := requireUser(ctx, op)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(rd.Role)) {
	case domain.RoleTeacher, domain.RoleAdmin:
		return rd, nil
	}
	return nil, domain.PermissionDenied(op, "only teachers and admins can manage courses")
}

// canManage reports whether the caller may see and edit quiz answers.
func canManage(ctx context.Context) bool {
	rd := ctxutil.GetRequestData(ctx)
	if !rd.LoggedIn() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(rd.Role)) {
	case domain.RoleTeacher, domain.RoleAdmin:
		return true
	}
	return false
}

func userIDOf(ctx context.Context) string {
	if rd := ctxutil.GetRequestData(ctx); rd != nil {
		return rd.UserID
	}
	return ""
}
