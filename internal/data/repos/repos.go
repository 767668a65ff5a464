package repos

import (
	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos/forum"
	"github.com/yungbote/coursehall-backend/internal/data/repos/learning"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type PostRepo = forum.PostRepo
type ReplyRepo = forum.ReplyRepo
type FlagRepo = forum.FlagRepo
type PermissionRepo = forum.PermissionRepo
type ReplyPolicy = forum.ReplyPolicy

type CourseRepo = learning.CourseRepo
type LessonRepo = learning.LessonRepo
type QuizAttemptRepo = learning.QuizAttemptRepo

func NewPostRepo(store docstore.Store, baseLog *logger.Logger) PostRepo {
	return forum.NewPostRepo(store, baseLog)
}
func NewReplyRepo(store docstore.Store, baseLog *logger.Logger) ReplyRepo {
	return forum.NewReplyRepo(store, baseLog)
}
func NewFlagRepo(store docstore.Store, baseLog *logger.Logger) FlagRepo {
	return forum.NewFlagRepo(store, baseLog)
}
func NewPermissionRepo(store docstore.Store, policy ReplyPolicy, baseLog *logger.Logger) PermissionRepo {
	return forum.NewPermissionRepo(store, policy, baseLog)
}

func NewCourseRepo(store docstore.Store, baseLog *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(store, baseLog)
}
func NewLessonRepo(store docstore.Store, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(store, baseLog)
}
func NewQuizAttemptRepo(store docstore.Store, baseLog *logger.Logger) QuizAttemptRepo {
	return learning.NewQuizAttemptRepo(store, baseLog)
}
