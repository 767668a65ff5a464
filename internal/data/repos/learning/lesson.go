package learning

import (
	"context"
	"strings"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos/docmap"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type LessonRepo interface {
	// ListByCourse does not guarantee any order; see SortLessonsByOrder.
	ListByCourse(ctx context.Context, courseID string) ([]domain.Lesson, error)
	Get(ctx context.Context, lessonID string) (*domain.Lesson, error)
	Create(ctx context.Context, in domain.LessonInput) (*domain.Lesson, error)
	Update(ctx context.Context, lessonID string, in domain.LessonInput) error
	Delete(ctx context.Context, lessonID string) error
	UpdateCompletion(ctx context.Context, lessonID, userID string, completed bool) error
	// SubmitQuizAnswer checks answer against the stored quiz and completes
	// the lesson when the quiz is the last block and the answer is correct.
	SubmitQuizAnswer(ctx context.Context, lessonID, quizID, userID, answer string) (bool, error)
}

type lessonRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewLessonRepo(store docstore.Store, baseLog *logger.Logger) LessonRepo {
	repoLog := baseLog.With("repo", "LessonRepo")
	return &lessonRepo{store: store, log: repoLog}
}

func (r *lessonRepo) fail(op string, err error) error {
	r.log.Error("Lesson operation failed", "op", op, "error", err)
	return docmap.StoreError(op, err)
}

// lessonData assigns quiz ids before the blocks are written.
func lessonData(in *domain.LessonInput) (docstore.Data, error) {
	if in.Content == nil {
		in.Content = []domain.ContentBlock{}
	}
	domain.EnsureQuizIDs(in.Content)
	content, err := docmap.Encode(in.Content)
	if err != nil {
		return nil, err
	}
	return docstore.Data{
		"courseId":        in.CourseID,
		"title":           strings.TrimSpace(in.Title),
		"description":     in.Description,
		"content":         content,
		"order":           in.Order,
		"durationMinutes": in.DurationMinutes,
		"videoUrl":        in.VideoURL,
		"updatedAt":       docstore.ServerTimestamp(),
	}, nil
}

func (r *lessonRepo) ListByCourse(ctx context.Context, courseID string) ([]domain.Lesson, error) {
	const op = "learning.list_lessons"
	if strings.TrimSpace(courseID) == "" {
		return nil, domain.Validation(op, "course id is required")
	}
	res, err := r.store.Query(ctx, docstore.Query{
		Collection: domain.CollectionLessons,
		Filters:    []docstore.Filter{docstore.Eq("courseId", courseID)},
	})
	if err != nil {
		return nil, r.fail(op, err)
	}
	lessons, err := docmap.DecodeAll[domain.Lesson](res.Docs)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return lessons, nil
}

func (r *lessonRepo) Get(ctx context.Context, lessonID string) (*domain.Lesson, error) {
	const op = "learning.get_lesson"
	if strings.TrimSpace(lessonID) == "" {
		return nil, domain.Validation(op, "lesson id is required")
	}
	doc, err := r.store.Get(ctx, domain.CollectionLessons, lessonID)
	if err != nil {
		return nil, docmap.StoreError(op, err)
	}
	var l domain.Lesson
	if err := docmap.Decode(doc, &l); err != nil {
		return nil, r.fail(op, err)
	}
	return &l, nil
}

func (r *lessonRepo) Create(ctx context.Context, in domain.LessonInput) (*domain.Lesson, error) {
	const op = "learning.create_lesson"
	if err := in.Validate(); err != nil {
		return nil, err
	}
	data, err := lessonData(&in)
	if err != nil {
		return nil, r.fail(op, err)
	}
	data["createdAt"] = docstore.ServerTimestamp()
	data["completedBy"] = []any{}
	id, err := r.store.Create(ctx, domain.CollectionLessons, data)
	if err != nil {
		return nil, r.fail(op, err)
	}
	now := domain.PendingNow()
	return &domain.Lesson{
		ID:              id,
		CourseID:        in.CourseID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Content:         in.Content,
		Order:           in.Order,
		DurationMinutes: in.DurationMinutes,
		VideoURL:        in.VideoURL,
		CompletedBy:     []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (r *lessonRepo) Update(ctx context.Context, lessonID string, in domain.LessonInput) error {
	const op = "learning.update_lesson"
	if err := in.Validate(); err != nil {
		return err
	}
	data, err := lessonData(&in)
	if err != nil {
		return r.fail(op, err)
	}
	if err := r.store.Update(ctx, domain.CollectionLessons, lessonID, data); err != nil {
		return r.fail(op, err)
	}
	return nil
}

func (r *lessonRepo) Delete(ctx context.Context, lessonID string) error {
	const op = "learning.delete_lesson"
	if strings.TrimSpace(lessonID) == "" {
		return domain.Validation(op, "lesson id is required")
	}
	if err := r.store.Delete(ctx, domain.CollectionLessons, lessonID); err != nil {
		return r.fail(op, err)
	}
	return nil
}

// UpdateCompletion adds userID to completedBy only when absent, and removes
// every occurrence otherwise.
func (r *lessonRepo) UpdateCompletion(ctx context.Context, lessonID, userID string, completed bool) error {
	const op = "learning.update_completion"
	if strings.TrimSpace(userID) == "" {
		return domain.Unauthenticated(op)
	}
	lesson, err := r.Get(ctx, lessonID)
	if err != nil {
		return err
	}
	var change any
	switch {
	case completed && lesson.IsCompletedBy(userID):
		return nil
	case completed:
		change = docstore.ArrayUnion(userID)
	default:
		change = docstore.ArrayRemove(userID)
	}
	if err := r.store.Update(ctx, domain.CollectionLessons, lessonID, docstore.Data{
		"completedBy": change,
		"updatedAt":   docstore.ServerTimestamp(),
	}); err != nil {
		return r.fail(op, err)
	}
	r.log.Debug("Lesson completion updated", "lesson_id", lessonID, "user_id", userID, "completed", completed)
	return nil
}

func (r *lessonRepo) SubmitQuizAnswer(ctx context.Context, lessonID, quizID, userID, answer string) (bool, error) {
	const op = "learning.submit_quiz_answer"
	lesson, err := r.Get(ctx, lessonID)
	if err != nil {
		return false, err
	}
	idx := -1
	for i, b := range lesson.Content {
		if b.Type == domain.BlockQuiz && b.Quiz != nil && b.Quiz.ID == quizID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, domain.NotFound(op, "quiz "+quizID+" not found in lesson")
	}
	correct := lesson.Content[idx].Quiz.IsCorrect(answer)
	if correct && idx == len(lesson.Content)-1 && userID != "" {
		if err := r.UpdateCompletion(ctx, lessonID, userID, true); err != nil {
			return correct, err
		}
	}
	return correct, nil
}
