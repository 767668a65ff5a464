package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehall-backend/internal/http"
	httpH "github.com/yungbote/coursehall-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursehall-backend/internal/http/middleware"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Forum  *httpH.ForumHandler
	Course *httpH.CourseHandler
	Lesson *httpH.LessonHandler
	Player *httpH.PlayerHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(),
		Forum:  httpH.NewForumHandler(log, services.ForumBoard),
		Course: httpH.NewCourseHandler(log, services.CourseAdmin),
		Lesson: httpH.NewLessonHandler(log, services.LessonAdmin),
		Player: httpH.NewPlayerHandler(log, services.PlayerHost),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func routerConfig(cfg Config, log *logger.Logger, handlers Handlers, middleware Middleware) http.RouterConfig {
	return http.RouterConfig{
		Log:            log,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		AuthMiddleware: middleware.Auth,
		HealthHandler:  handlers.Health,
		ForumHandler:   handlers.Forum,
		CourseHandler:  handlers.Course,
		LessonHandler:  handlers.Lesson,
		PlayerHandler:  handlers.Player,
	}
}

func ginMode(cfg Config) string {
	if cfg.Development() {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}
