package learning

import (
	"context"
	"strings"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos/docmap"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type CourseRepo interface {
	List(ctx context.Context) ([]domain.Course, error)
	Get(ctx context.Context, courseID string) (*domain.Course, error)
	Create(ctx context.Context, in domain.CourseInput) (*domain.Course, error)
	Update(ctx context.Context, courseID string, in domain.CourseInput) error
	// Delete removes the course's lessons one by one and then the course.
	// A failure part way leaves the course and any remaining lessons behind.
	Delete(ctx context.Context, courseID string) error
}

type courseRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewCourseRepo(store docstore.Store, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{store: store, log: repoLog}
}

func (r *courseRepo) fail(op string, err error) error {
	r.log.Error("Course operation failed", "op", op, "error", err)
	return docmap.StoreError(op, err)
}

func courseData(in domain.CourseInput) docstore.Data {
	return docstore.Data{
		"title":         strings.TrimSpace(in.Title),
		"description":   strings.TrimSpace(in.Description),
		"imageUrl":      strings.TrimSpace(in.ImageURL),
		"estimatedTime": in.EstimatedTime,
		"updatedAt":     docstore.ServerTimestamp(),
	}
}

// List returns every course, newest first.
func (r *courseRepo) List(ctx context.Context) ([]domain.Course, error) {
	const op = "learning.list_courses"
	res, err := r.store.Query(ctx, docstore.Query{Collection: domain.CollectionCourses})
	if err != nil {
		return nil, r.fail(op, err)
	}
	courses, err := docmap.DecodeAll[domain.Course](res.Docs)
	if err != nil {
		return nil, r.fail(op, err)
	}
	docmap.SortByTime(courses, func(c domain.Course) domain.Timestamp { return c.CreatedAt }, true)
	return courses, nil
}

func (r *courseRepo) Get(ctx context.Context, courseID string) (*domain.Course, error) {
	const op = "learning.get_course"
	if strings.TrimSpace(courseID) == "" {
		return nil, domain.Validation(op, "course id is required")
	}
	doc, err := r.store.Get(ctx, domain.CollectionCourses, courseID)
	if err != nil {
		return nil, docmap.StoreError(op, err)
	}
	var c domain.Course
	if err := docmap.Decode(doc, &c); err != nil {
		return nil, r.fail(op, err)
	}
	return &c, nil
}

func (r *courseRepo) Create(ctx context.Context, in domain.CourseInput) (*domain.Course, error) {
	const op = "learning.create_course"
	if err := in.Validate(); err != nil {
		return nil, err
	}
	data := courseData(in)
	data["createdAt"] = docstore.ServerTimestamp()
	if in.CreatedBy != "" {
		data["createdBy"] = in.CreatedBy
	}
	id, err := r.store.Create(ctx, domain.CollectionCourses, data)
	if err != nil {
		return nil, r.fail(op, err)
	}
	now := domain.PendingNow()
	return &domain.Course{
		ID:            id,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		ImageURL:      strings.TrimSpace(in.ImageURL),
		EstimatedTime: in.EstimatedTime,
		CreatedBy:     in.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (r *courseRepo) Update(ctx context.Context, courseID string, in domain.CourseInput) error {
	const op = "learning.update_course"
	if err := in.Validate(); err != nil {
		return err
	}
	if err := r.store.Update(ctx, domain.CollectionCourses, courseID, courseData(in)); err != nil {
		return r.fail(op, err)
	}
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, courseID string) error {
	const op = "learning.delete_course"
	if strings.TrimSpace(courseID) == "" {
		return domain.Validation(op, "course id is required")
	}
	res, err := r.store.Query(ctx, docstore.Query{
		Collection: domain.CollectionLessons,
		Filters:    []docstore.Filter{docstore.Eq("courseId", courseID)},
	})
	if err != nil {
		return r.fail(op, err)
	}
	for _, d := range res.Docs {
		if err := r.store.Delete(ctx, domain.CollectionLessons, d.ID); err != nil {
			r.log.Error("Course delete stopped at lesson", "course_id", courseID, "lesson_id", d.ID)
			return r.fail(op, err)
		}
	}
	if err := r.store.Delete(ctx, domain.CollectionCourses, courseID); err != nil {
		return r.fail(op, err)
	}
	r.log.Info("Course deleted", "course_id", courseID, "lessons", len(res.Docs))
	return nil
}
