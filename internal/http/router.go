package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/coursehall-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursehall-backend/internal/http/middleware"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	ForumHandler  *httpH.ForumHandler
	CourseHandler *httpH.CourseHandler
	LessonHandler *httpH.LessonHandler
	PlayerHandler *httpH.PlayerHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	api := r.Group("/api")

	// Health
	if cfg.HealthHandler != nil {
		api.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Reads are open to anonymous callers; services reject anonymous writes.
	open := api.Group("/")
	if cfg.AuthMiddleware != nil {
		open.Use(cfg.AuthMiddleware.OptionalAuth())
	}

	// Forum
	if h := cfg.ForumHandler; h != nil {
		open.GET("/forum/posts", h.ListPosts)
		open.GET("/forum/posts/page", h.PagePosts)
		open.GET("/forum/search", h.Search)
		open.GET("/forum/posts/:id", h.GetPost)
		open.GET("/forum/posts/:id/replies", h.ListReplies)
		open.POST("/forum/posts", h.CreatePost)
		open.PATCH("/forum/posts/:id", h.UpdatePost)
		open.POST("/forum/posts/:id/replies", h.Reply)
		open.PATCH("/forum/replies/:id", h.UpdateReply)
		open.POST("/forum/flags", h.Flag)
		open.GET("/forum/can-reply", h.CanReply)
	}

	// Courses
	if h := cfg.CourseHandler; h != nil {
		open.GET("/courses", h.ListCourses)
		open.POST("/courses", h.CreateCourse)
		open.GET("/courses/:id", h.GetCourse)
		open.PUT("/courses/:id", h.UpdateCourse)
		open.DELETE("/courses/:id", h.DeleteCourse)
		open.GET("/courses/:id/lessons", h.ListLessons)
		open.GET("/courses/:id/progress", h.Progress)
	}

	// Lessons
	if h := cfg.LessonHandler; h != nil {
		open.POST("/lessons", h.CreateLesson)
		open.GET("/lessons/:id", h.GetLesson)
		open.PUT("/lessons/:id", h.UpdateLesson)
		open.DELETE("/lessons/:id", h.DeleteLesson)
		open.PUT("/lessons/:id/completion", h.SetCompletion)
		open.POST("/lessons/:id/quizzes/:quizId/answer", h.SubmitAnswer)
	}

	// Player
	if h := cfg.PlayerHandler; h != nil {
		open.GET("/player/:lessonId", h.Open)
		open.POST("/player/:lessonId/advance", h.Advance)
		open.POST("/player/:lessonId/retreat", h.Retreat)
		open.POST("/player/:lessonId/answer", h.Answer)
		open.POST("/player/:lessonId/submit", h.Submit)
		open.POST("/player/:lessonId/reset", h.Reset)
		open.POST("/player/:lessonId/complete", h.Complete)
	}

	return r
}
