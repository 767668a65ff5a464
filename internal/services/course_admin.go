package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/coursehall-backend/internal/data/repos"
	"github.com/yungbote/coursehall-backend/internal/data/repos/learning"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

// progressFanout bounds concurrent lesson lookups when listing courses.
const progressFanout = 4

type CourseAdminService interface {
	// ListCourses returns every course with the caller's progress; progress
	// is 0 for anonymous callers.
	ListCourses(ctx context.Context) ([]domain.CourseWithProgress, error)
	GetCourse(ctx context.Context, courseID string) (*domain.CourseWithProgress, error)
	ListLessons(ctx context.Context, courseID string) ([]domain.Lesson, error)
	Progress(ctx context.Context, courseID string) (int, error)
	CreateCourse(ctx context.Context, in domain.CourseInput) (*domain.Course, error)
	UpdateCourse(ctx context.Context, courseID string, in domain.CourseInput) error
	DeleteCourse(ctx context.Context, courseID string) error
}

type courseAdminService struct {
	log     *logger.Logger
	courses repos.CourseRepo
	lessons repos.LessonRepo
}

func NewCourseAdminService(baseLog *logger.Logger, courses repos.CourseRepo, lessons repos.LessonRepo) CourseAdminService {
	serviceLog := baseLog.With("service", "CourseAdminService")
	return &courseAdminService{log: serviceLog, courses: courses, lessons: lessons}
}

func (s *courseAdminService) ListCourses(ctx context.Context) ([]domain.CourseWithProgress, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	userID := userIDOf(ctx)
	out := make([]domain.CourseWithProgress, len(courses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(progressFanout)
	for i := range courses {
		i := i
		out[i].Course = courses[i]
		if userID == "" {
			continue
		}
		g.Go(func() error {
			lessons, err := s.lessons.ListByCourse(gctx, courses[i].ID)
			if err != nil {
				return err
			}
			out[i].Progress = learning.CourseProgress(lessons, userID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("Computing course progress failed", "error", err)
		return nil, err
	}
	return out, nil
}

func (s *courseAdminService) GetCourse(ctx context.Context, courseID string) (*domain.CourseWithProgress, error) {
	course, err := s.courses.Get(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.ListLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return &domain.CourseWithProgress{
		Course:   *course,
		Lessons:  lessons,
		Progress: learning.CourseProgress(lessons, userIDOf(ctx)),
	}, nil
}

// ListLessons returns the course's lessons sorted by order. Quiz answers are
// only included for managers.
func (s *courseAdminService) ListLessons(ctx context.Context, courseID string) ([]domain.Lesson, error) {
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	learning.SortLessonsByOrder(lessons)
	if !canManage(ctx) {
		for i := range lessons {
			lessons[i] = lessons[i].WithoutAnswers()
		}
	}
	return lessons, nil
}

func (s *courseAdminService) Progress(ctx context.Context, courseID string) (int, error) {
	rd, err := requireUser(ctx, "course.progress")
	if err != nil {
		return 0, err
	}
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	return learning.CourseProgress(lessons, rd.UserID), nil
}

func (s *courseAdminService) CreateCourse(ctx context.Context, in domain.CourseInput) (*domain.Course, error) {
	const op = "course.create"
	rd, err := requireManager(ctx, op)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	in.CreatedBy = rd.UserID
	course, err := s.courses.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("Course created", "course_id", course.ID, "user_id", rd.UserID)
	return course, nil
}

func (s *courseAdminService) UpdateCourse(ctx context.Context, courseID string, in domain.CourseInput) error {
	if _, err := requireManager(ctx, "course.update"); err != nil {
		return err
	}
	return s.courses.Update(ctx, courseID, in)
}

func (s *courseAdminService) DeleteCourse(ctx context.Context, courseID string) error {
	if _, err := requireManager(ctx, "course.delete"); err != nil {
		return err
	}
	return s.courses.Delete(ctx, courseID)
}
