package app

import (
	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type Repos struct {
	Post        repos.PostRepo
	Reply       repos.ReplyRepo
	Flag        repos.FlagRepo
	Permission  repos.PermissionRepo
	Course      repos.CourseRepo
	Lesson      repos.LessonRepo
	QuizAttempt repos.QuizAttemptRepo
}

func replyPolicy(cfg Config) repos.ReplyPolicy {
	return repos.ReplyPolicy{
		Roles:        cfg.ReplyRoles,
		AllowOnError: cfg.ReplyAllowOnError && cfg.Development(),
	}
}

func wireRepos(store docstore.Store, cfg Config, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Post:        repos.NewPostRepo(store, log),
		Reply:       repos.NewReplyRepo(store, log),
		Flag:        repos.NewFlagRepo(store, log),
		Permission:  repos.NewPermissionRepo(store, replyPolicy(cfg), log),
		Course:      repos.NewCourseRepo(store, log),
		Lesson:      repos.NewLessonRepo(store, log),
		QuizAttempt: repos.NewQuizAttemptRepo(store, log),
	}
}
