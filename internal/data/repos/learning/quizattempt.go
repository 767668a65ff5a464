package learning

import (
	"context"
	"strings"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos/docmap"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type QuizAttemptRepo interface {
	Create(ctx context.Context, attempt domain.QuizAttempt) (string, error)
	ListByUser(ctx context.Context, userID string) ([]domain.QuizAttempt, error)
	ListByLesson(ctx context.Context, lessonID string) ([]domain.QuizAttempt, error)
}

type quizAttemptRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewQuizAttemptRepo(store docstore.Store, baseLog *logger.Logger) QuizAttemptRepo {
	repoLog := baseLog.With("repo", "QuizAttemptRepo")
	return &quizAttemptRepo{store: store, log: repoLog}
}

func (r *quizAttemptRepo) Create(ctx context.Context, a domain.QuizAttempt) (string, error) {
	const op = "learning.record_quiz_attempt"
	if strings.TrimSpace(a.UserID) == "" {
		return "", domain.Unauthenticated(op)
	}
	if strings.TrimSpace(a.LessonID) == "" || strings.TrimSpace(a.QuizID) == "" {
		return "", domain.Validation(op, "lesson id and quiz id are required")
	}
	id, err := r.store.Create(ctx, domain.CollectionQuizAttempts, docstore.Data{
		"userId":    a.UserID,
		"lessonId":  a.LessonID,
		"courseId":  a.CourseID,
		"quizId":    a.QuizID,
		"answer":    a.Answer,
		"isCorrect": a.IsCorrect,
		"timestamp": docstore.ServerTimestamp(),
	})
	if err != nil {
		r.log.Error("Quiz attempt write failed", "op", op, "lesson_id", a.LessonID, "error", err)
		return "", docmap.StoreError(op, err)
	}
	return id, nil
}

func (r *quizAttemptRepo) ListByUser(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	return r.listBy(ctx, "learning.list_attempts_by_user", "userId", userID)
}

func (r *quizAttemptRepo) ListByLesson(ctx context.Context, lessonID string) ([]domain.QuizAttempt, error) {
	return r.listBy(ctx, "learning.list_attempts_by_lesson", "lessonId", lessonID)
}

// listBy filters without ordering so no composite index is needed and sorts
// newest first in memory.
func (r *quizAttemptRepo) listBy(ctx context.Context, op, field, value string) ([]domain.QuizAttempt, error) {
	if strings.TrimSpace(value) == "" {
		return []domain.QuizAttempt{}, nil
	}
	res, err := r.store.Query(ctx, docstore.Query{
		Collection: domain.CollectionQuizAttempts,
		Filters:    []docstore.Filter{docstore.Eq(field, value)},
	})
	if err != nil {
		r.log.Error("Quiz attempt query failed", "op", op, "error", err)
		return nil, docmap.StoreError(op, err)
	}
	out, err := docmap.DecodeAll[domain.QuizAttempt](res.Docs)
	if err != nil {
		return nil, docmap.StoreError(op, err)
	}
	docmap.SortByTime(out, func(a domain.QuizAttempt) domain.Timestamp { return a.Timestamp }, true)
	return out, nil
}
