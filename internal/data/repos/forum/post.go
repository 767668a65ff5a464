package forum

import (
	"context"
	"errors"
	"strings"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos/docmap"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

const (
	DefaultMostActiveLimit = 10
	DefaultPageSize        = 20
)

type PostPage struct {
	Posts  []domain.ForumPost `json:"posts"`
	Cursor string             `json:"cursor,omitempty"`
}

type PostRepo interface {
	ListAll(ctx context.Context) ([]domain.ForumPost, error)
	ListByCourse(ctx context.Context, courseID string) ([]domain.ForumPost, error)
	ListByLesson(ctx context.Context, lessonID string) ([]domain.ForumPost, error)
	ListByCourses(ctx context.Context, courseIDs []string) ([]domain.ForumPost, error)
	ListMostActive(ctx context.Context, limit int) ([]domain.ForumPost, error)
	ListByAuthor(ctx context.Context, userID string) ([]domain.ForumPost, error)
	Paginate(ctx context.Context, cursor string, pageSize int) (*PostPage, error)
	Search(ctx context.Context, term string) ([]domain.ForumPost, error)
	// GetByID returns nil, nil when the post does not exist.
	GetByID(ctx context.Context, postID string) (*domain.ForumPost, error)
	Create(ctx context.Context, in domain.NewPost) (*domain.ForumPost, error)
	Update(ctx context.Context, postID string, patch domain.PostPatch) error
}

type postRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewPostRepo(store docstore.Store, baseLog *logger.Logger) PostRepo {
	repoLog := baseLog.With("repo", "PostRepo")
	return &postRepo{store: store, log: repoLog}
}

func createdAtOf(p domain.ForumPost) domain.Timestamp { return p.CreatedAt }

func (r *postRepo) fail(op string, err error) error {
	r.log.Error("Forum post query failed", "op", op, "error", err)
	return docmap.StoreError(op, err)
}

func (r *postRepo) ListAll(ctx context.Context) ([]domain.ForumPost, error) {
	const op = "forum.list_all"
	res, err := r.store.Query(ctx, docstore.Query{
		Collection: domain.CollectionForumPosts,
		Orders:     []docstore.Order{docstore.Desc("createdAt")},
	})
	if err != nil {
		return nil, r.fail(op, err)
	}
	posts, err := docmap.DecodeAll[domain.ForumPost](res.Docs)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return posts, nil
}

// listNewestFirst runs a filtered createdAt-desc query with the missing-index
// fallback.
func (r *postRepo) listNewestFirst(ctx context.Context, op string, filters ...docstore.Filter) ([]domain.ForumPost, error) {
	docs, fellBack, err := queryOrdered(ctx, r.store, r.log, op, docstore.Query{
		Collection: domain.CollectionForumPosts,
		Filters:    filters,
		Orders:     []docstore.Order{docstore.Desc("createdAt")},
	})
	if err != nil {
		return nil, r.fail(op, err)
	}
	posts, err := docmap.DecodeAll[domain.ForumPost](docs)
	if err != nil {
		return nil, r.fail(op, err)
	}
	if fellBack {
		docmap.SortByTime(posts, createdAtOf, true)
	}
	return posts, nil
}

func (r *postRepo) ListByCourse(ctx context.Context, courseID string) ([]domain.ForumPost, error) {
	const op = "forum.list_by_course"
	if strings.TrimSpace(courseID) == "" {
		return nil, domain.Validation(op, "course id is required")
	}
	return r.listNewestFirst(ctx, op, docstore.Eq("courseId", courseID))
}

func (r *postRepo) ListByLesson(ctx context.Context, lessonID string) ([]domain.ForumPost, error) {
	const op = "forum.list_by_lesson"
	if strings.TrimSpace(lessonID) == "" {
		return nil, domain.Validation(op, "lesson id is required")
	}
	return r.listNewestFirst(ctx, op, docstore.Eq("lessonId", lessonID))
}

func (r *postRepo) ListByAuthor(ctx context.Context, userID string) ([]domain.ForumPost, error) {
	const op = "forum.list_by_author"
	if strings.TrimSpace(userID) == "" {
		return nil, domain.Validation(op, "user id is required")
	}
	return r.listNewestFirst(ctx, op, docstore.Eq("authorId", userID))
}

// ListByCourses queries the enrolled courses in batches that fit an In
// filter and merges the batches newest first.
func (r *postRepo) ListByCourses(ctx context.Context, courseIDs []string) ([]domain.ForumPost, error) {
	const op = "forum.list_by_courses"
	if len(courseIDs) == 0 {
		return []domain.ForumPost{}, nil
	}
	var all []domain.ForumPost
	for start := 0; start < len(courseIDs); start += docstore.MaxInValues {
		end := min(start+docstore.MaxInValues, len(courseIDs))
		batch, err := r.listNewestFirst(ctx, op, docstore.In("courseId", docmap.Strings(courseIDs[start:end])...))
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	docmap.SortByTime(all, createdAtOf, true)
	return all, nil
}

// ListMostActive orders by reply count then recency. Without the compound
// index it settles for reply count alone.
func (r *postRepo) ListMostActive(ctx context.Context, limit int) ([]domain.ForumPost, error) {
	const op = "forum.list_most_active"
	if limit <= 0 {
		limit = DefaultMostActiveLimit
	}
	q := docstore.Query{
		Collection: domain.CollectionForumPosts,
		Orders:     []docstore.Order{docstore.Desc("replyCount"), docstore.Desc("updatedAt")},
		Limit:      limit,
	}
	res, err := r.store.Query(ctx, q)
	if docstore.IsMissingIndex(err) {
		r.log.Warn("Missing composite index, ordering by reply count only",
			"op", op, "index_hint", IndexHint(err))
		q.Orders = q.Orders[:1]
		res, err = r.store.Query(ctx, q)
	}
	if err != nil {
		return nil, r.fail(op, err)
	}
	posts, err := docmap.DecodeAll[domain.ForumPost](res.Docs)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return posts, nil
}

func (r *postRepo) Paginate(ctx context.Context, cursor string, pageSize int) (*PostPage, error) {
	const op = "forum.paginate"
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	res, err := r.store.Query(ctx, docstore.Query{
		Collection: domain.CollectionForumPosts,
		Orders:     []docstore.Order{docstore.Desc("createdAt")},
		Limit:      pageSize,
		StartAfter: cursor,
	})
	if err != nil {
		return nil, r.fail(op, err)
	}
	posts, err := docmap.DecodeAll[domain.ForumPost](res.Docs)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return &PostPage{Posts: posts, Cursor: res.Cursor}, nil
}

// Search scans every post and matches term case-insensitively against title
// and content.
func (r *postRepo) Search(ctx context.Context, term string) ([]domain.ForumPost, error) {
	const op = "forum.search"
	res, err := r.store.Query(ctx, docstore.Query{Collection: domain.CollectionForumPosts})
	if err != nil {
		return nil, r.fail(op, err)
	}
	posts, err := docmap.DecodeAll[domain.ForumPost](res.Docs)
	if err != nil {
		return nil, r.fail(op, err)
	}
	needle := strings.ToLower(term)
	out := make([]domain.ForumPost, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), needle) || strings.Contains(strings.ToLower(p.Content), needle) {
			out = append(out, p)
		}
	}
	docmap.SortByTime(out, createdAtOf, true)
	return out, nil
}

func (r *postRepo) GetByID(ctx context.Context, postID string) (*domain.ForumPost, error) {
	const op = "forum.get_post"
	if strings.TrimSpace(postID) == "" {
		return nil, nil
	}
	doc, err := r.store.Get(ctx, domain.CollectionForumPosts, postID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.fail(op, err)
	}
	var p domain.ForumPost
	if err := docmap.Decode(doc, &p); err != nil {
		return nil, r.fail(op, err)
	}
	return &p, nil
}

// Create writes the post with server timestamps and returns a local copy
// whose timestamps are pending.
func (r *postRepo) Create(ctx context.Context, in domain.NewPost) (*domain.ForumPost, error) {
	const op = "forum.create_post"
	if err := in.Validate(); err != nil {
		return nil, err
	}
	data := docstore.Data{
		"title":      in.Title,
		"content":    in.Content,
		"authorId":   in.AuthorID,
		"authorName": in.AuthorName,
		"createdAt":  docstore.ServerTimestamp(),
		"updatedAt":  docstore.ServerTimestamp(),
		"replyCount": 0,
	}
	if in.CourseID != "" {
		data["courseId"] = in.CourseID
	}
	if in.LessonID != "" {
		data["lessonId"] = in.LessonID
	}
	id, err := r.store.Create(ctx, domain.CollectionForumPosts, data)
	if err != nil {
		return nil, r.fail(op, err)
	}
	now := domain.PendingNow()
	return &domain.ForumPost{
		ID:         id,
		Title:      in.Title,
		Content:    in.Content,
		AuthorID:   in.AuthorID,
		AuthorName: in.AuthorName,
		CourseID:   in.CourseID,
		LessonID:   in.LessonID,
		CreatedAt:  now,
		UpdatedAt:  now,
		ReplyCount: 0,
	}, nil
}

func (r *postRepo) Update(ctx context.Context, postID string, patch domain.PostPatch) error {
	const op = "forum.update_post"
	data := docstore.Data{"updatedAt": docstore.ServerTimestamp()}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return domain.Validation(op, "post title cannot be empty")
		}
		data["title"] = *patch.Title
	}
	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			return domain.Validation(op, "post content cannot be empty")
		}
		data["content"] = *patch.Content
	}
	if err := r.store.Update(ctx, domain.CollectionForumPosts, postID, data); err != nil {
		return r.fail(op, err)
	}
	return nil
}
