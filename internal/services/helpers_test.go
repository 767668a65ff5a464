package services

import (
	"context"

	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/ctxutil"
)

func asUser(userID, role string, courses ...string) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:            userID,
		DisplayName:       "User " + userID,
		Role:              role,
		EnrolledCourseIDs: courses,
	})
}

func asTeacher() context.Context { return asUser("teach", domain.RoleTeacher) }

type inlineRunner struct{ tasks int }

func (r *inlineRunner) Go(_ string, fn func(ctx context.Context) error) bool {
	r.tasks++
	_ = fn(context.Background())
	return true
}
