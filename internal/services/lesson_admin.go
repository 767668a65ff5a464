package services

import (
	"context"

	"github.com/yungbote/coursehall-backend/internal/data/repos"
	"github.com/yungbote/coursehall-backend/internal/data/repos/learning"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/modules/player"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type LessonAdminService interface {
	GetLesson(ctx context.Context, lessonID string) (*domain.Lesson, error)
	// CreateLesson validates every quiz block before writing and appends the
	// lesson to the course when in.Order is 0.
	CreateLesson(ctx context.Context, in domain.LessonInput) (*domain.Lesson, error)
	UpdateLesson(ctx context.Context, lessonID string, in domain.LessonInput) error
	DeleteLesson(ctx context.Context, lessonID string) error
	SetCompletion(ctx context.Context, lessonID string, completed bool) error
	SubmitAnswer(ctx context.Context, lessonID, quizID, answer string) (bool, error)
}

type lessonAdminService struct {
	log      *logger.Logger
	lessons  repos.LessonRepo
	attempts repos.QuizAttemptRepo
	async    player.Dispatcher
}

func NewLessonAdminService(
	baseLog *logger.Logger,
	lessons repos.LessonRepo,
	attempts repos.QuizAttemptRepo,
	async player.Dispatcher,
) LessonAdminService {
	serviceLog := baseLog.With("service", "LessonAdminService")
	return &lessonAdminService{log: serviceLog, lessons: lessons, attempts: attempts, async: async}
}

// GetLesson hides quiz answers from callers who cannot manage lessons.
func (s *lessonAdminService) GetLesson(ctx context.Context, lessonID string) (*domain.Lesson, error) {
	lesson, err := s.lessons.Get(ctx, lessonID)
	if err != nil || canManage(ctx) {
		return lesson, err
	}
	redacted := lesson.WithoutAnswers()
	return &redacted, nil
}

func normaliseLesson(in *domain.LessonInput) error {
	in.VideoURL = domain.EmbedVideoURL(in.VideoURL)
	for i := range in.Content {
		if in.Content[i].Type == domain.BlockVideo {
			in.Content[i].Content = domain.EmbedVideoURL(in.Content[i].Content)
		}
	}
	return in.Validate()
}

func (s *lessonAdminService) CreateLesson(ctx context.Context, in domain.LessonInput) (*domain.Lesson, error) {
	const op = "lesson.create"
	rd, err := requireManager(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := normaliseLesson(&in); err != nil {
		return nil, err
	}
	if in.Order <= 0 {
		existing, err := s.lessons.ListByCourse(ctx, in.CourseID)
		if err != nil {
			return nil, err
		}
		in.Order = learning.NextLessonOrder(existing)
	}
	lesson, err := s.lessons.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("Lesson created", "lesson_id", lesson.ID, "course_id", in.CourseID, "user_id", rd.UserID)
	return lesson, nil
}

func (s *lessonAdminService) UpdateLesson(ctx context.Context, lessonID string, in domain.LessonInput) error {
	if _, err := requireManager(ctx, "lesson.update"); err != nil {
		return err
	}
	if err := normaliseLesson(&in); err != nil {
		return err
	}
	return s.lessons.Update(ctx, lessonID, in)
}

func (s *lessonAdminService) DeleteLesson(ctx context.Context, lessonID string) error {
	if _, err := requireManager(ctx, "lesson.delete"); err != nil {
		return err
	}
	return s.lessons.Delete(ctx, lessonID)
}

func (s *lessonAdminService) SetCompletion(ctx context.Context, lessonID string, completed bool) error {
	rd, err := requireUser(ctx, "lesson.set_completion")
	if err != nil {
		return err
	}
	return s.lessons.UpdateCompletion(ctx, lessonID, rd.UserID, completed)
}

// SubmitAnswer checks an answer outside the player and records the attempt
// in the background.
func (s *lessonAdminService) SubmitAnswer(ctx context.Context, lessonID, quizID, answer string) (bool, error) {
	rd, err := requireUser(ctx, "lesson.submit_answer")
	if err != nil {
		return false, err
	}
	correct, err := s.lessons.SubmitQuizAnswer(ctx, lessonID, quizID, rd.UserID, answer)
	if err != nil {
		return false, err
	}
	attempt := domain.QuizAttempt{
		UserID:    rd.UserID,
		LessonID:  lessonID,
		QuizID:    quizID,
		Answer:    answer,
		IsCorrect: correct,
	}
	if s.attempts != nil && s.async != nil {
		s.async.Go("quiz_attempt", func(ctx context.Context) error {
			if l, err := s.lessons.Get(ctx, lessonID); err == nil {
				attempt.CourseID = l.CourseID
			}
			_, err := s.attempts.Create(ctx, attempt)
			return err
		})
	}
	return correct, nil
}
