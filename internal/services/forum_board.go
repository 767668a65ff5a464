package services

import (
	"context"
	"strings"

	"github.com/yungbote/coursehall-backend/internal/data/repos"
	"github.com/yungbote/coursehall-backend/internal/data/repos/forum"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type BoardFilter string

const (
	FilterAll        BoardFilter = "all"
	FilterMyCourses  BoardFilter = "my_courses"
	FilterMyPosts    BoardFilter = "my_posts"
	FilterMostActive BoardFilter = "most_active"
)

type BoardQuery struct {
	Filter   BoardFilter
	CourseID string
	LessonID string
	Limit    int
}

type ForumBoardService interface {
	ListPosts(ctx context.Context, q BoardQuery) ([]domain.ForumPost, error)
	Page(ctx context.Context, cursor string, size int) (*forum.PostPage, error)
	Search(ctx context.Context, term string) ([]domain.ForumPost, error)
	GetPost(ctx context.Context, postID string) (*domain.ForumPost, error)
	ListReplies(ctx context.Context, postID string) ([]domain.PostReply, error)
	CreatePost(ctx context.Context, in domain.NewPost) (*domain.ForumPost, error)
	UpdatePost(ctx context.Context, postID string, patch domain.PostPatch) error
	Reply(ctx context.Context, postID, content string) (*domain.PostReply, error)
	UpdateReply(ctx context.Context, replyID, content string) error
	Flag(ctx context.Context, contentType domain.ContentType, contentID, reason string) (*domain.ContentFlag, error)
	CanReply(ctx context.Context) bool
}

type forumBoardService struct {
	log         *logger.Logger
	posts       repos.PostRepo
	replies     repos.ReplyRepo
	flags       repos.FlagRepo
	permissions repos.PermissionRepo
}

func NewForumBoardService(
	baseLog *logger.Logger,
	posts repos.PostRepo,
	replies repos.ReplyRepo,
	flags repos.FlagRepo,
	permissions repos.PermissionRepo,
) ForumBoardService {
	serviceLog := baseLog.With("service", "ForumBoardService")
	return &forumBoardService{
		log:         serviceLog,
		posts:       posts,
		replies:     replies,
		flags:       flags,
		permissions: permissions,
	}
}

func (s *forumBoardService) ListPosts(ctx context.Context, q BoardQuery) ([]domain.ForumPost, error) {
	const op = "forum.list_posts"
	switch q.Filter {
	case "", FilterAll:
		switch {
		case q.CourseID != "":
			return s.posts.ListByCourse(ctx, q.CourseID)
		case q.LessonID != "":
			return s.posts.ListByLesson(ctx, q.LessonID)
		}
		return s.posts.ListAll(ctx)
	case FilterMyCourses:
		rd, err := requireUser(ctx, op)
		if err != nil {
			return nil, err
		}
		return s.posts.ListByCourses(ctx, rd.EnrolledCourseIDs)
	case FilterMyPosts:
		rd, err := requireUser(ctx, op)
		if err != nil {
			return nil, err
		}
		return s.posts.ListByAuthor(ctx, rd.UserID)
	case FilterMostActive:
		return s.posts.ListMostActive(ctx, q.Limit)
	}
	return nil, domain.Validation(op, "unknown filter "+string(q.Filter))
}

func (s *forumBoardService) Page(ctx context.Context, cursor string, size int) (*forum.PostPage, error) {
	return s.posts.Paginate(ctx, cursor, size)
}

func (s *forumBoardService) Search(ctx context.Context, term string) ([]domain.ForumPost, error) {
	if strings.TrimSpace(term) == "" {
		return []domain.ForumPost{}, nil
	}
	return s.posts.Search(ctx, strings.TrimSpace(term))
}

func (s *forumBoardService) GetPost(ctx context.Context, postID string) (*domain.ForumPost, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound("forum.get_post", "post not found")
	}
	return p, nil
}

// ListReplies backs expanding a post on the board.
func (s *forumBoardService) ListReplies(ctx context.Context, postID string) ([]domain.PostReply, error) {
	return s.replies.ListByPost(ctx, postID)
}

func (s *forumBoardService) CreatePost(ctx context.Context, in domain.NewPost) (*domain.ForumPost, error) {
	const op = "forum.create_post"
	rd, err := requireUser(ctx, op)
	if err != nil {
		return nil, err
	}
	in.AuthorID = rd.UserID
	in.AuthorName = rd.DisplayName
	if err := in.Validate(); err != nil {
		return nil, err
	}
	post, err := s.posts.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("Forum post created", "post_id", post.ID, "user_id", rd.UserID)
	return post, nil
}

// UpdatePost is limited to the author and admins.
func (s *forumBoardService) UpdatePost(ctx context.Context, postID string, patch domain.PostPatch) error {
	const op = "forum.update_post"
	rd, err := requireUser(ctx, op)
	if err != nil {
		return err
	}
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != rd.UserID && rd.Role != domain.RoleAdmin {
		return domain.PermissionDenied(op, "only the author can edit this post")
	}
	return s.posts.Update(ctx, postID, patch)
}

func (s *forumBoardService) Reply(ctx context.Context, postID, content string) (*domain.PostReply, error) {
	const op = "forum.reply"
	rd, err := requireUser(ctx, op)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.Validation(op, "reply content is required")
	}
	if !s.permissions.CanReply(ctx, rd.UserID) {
		s.log.Warn("Reply rejected by permission check", "user_id", rd.UserID, "post_id", postID)
		return nil, domain.PermissionDenied(op, "you are not allowed to reply")
	}
	return s.replies.Create(ctx, domain.NewReply{
		PostID:     postID,
		Content:    content,
		AuthorID:   rd.UserID,
		AuthorName: rd.DisplayName,
	})
}

func (s *forumBoardService) UpdateReply(ctx context.Context, replyID, content string) error {
	if _, err := requireUser(ctx, "forum.update_reply"); err != nil {
		return err
	}
	return s.replies.Update(ctx, replyID, content)
}

func (s *forumBoardService) Flag(ctx context.Context, contentType domain.ContentType, contentID, reason string) (*domain.ContentFlag, error) {
	rd, err := requireUser(ctx, "forum.flag_content")
	if err != nil {
		return nil, err
	}
	return s.flags.Create(ctx, contentType, contentID, rd.UserID, reason)
}

func (s *forumBoardService) CanReply(ctx context.Context) bool {
	return s.permissions.CanReply(ctx, userIDOf(ctx))
}
