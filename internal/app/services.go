package app

import (
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
	"github.com/yungbote/coursehall-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	ForumBoard  services.ForumBoardService
	CourseAdmin services.CourseAdminService
	LessonAdmin services.LessonAdminService
	PlayerHost  services.PlayerHostService
}

func wireServices(log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	log.Info("Wiring services...")
	return Services{
		Auth:        services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer, cfg.AccessTokenTTL),
		ForumBoard:  services.NewForumBoardService(log, r.Post, r.Reply, r.Flag, r.Permission),
		CourseAdmin: services.NewCourseAdminService(log, r.Course, r.Lesson),
		LessonAdmin: services.NewLessonAdminService(log, r.Lesson, r.QuizAttempt, c.Async),
		PlayerHost:  services.NewPlayerHostService(log, r.Lesson, r.QuizAttempt, c.Sessions, c.Async),
	}
}
