package domain

import "strings"

const (
	CollectionForumPosts   = "forumPosts"
	CollectionPostReplies  = "postReplies"
	CollectionContentFlags = "contentFlags"
)

type ForumPost struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	CourseID   string    `json:"courseId,omitempty"`
	LessonID   string    `json:"lessonId,omitempty"`
	CreatedAt  Timestamp `json:"createdAt"`
	UpdatedAt  Timestamp `json:"updatedAt"`
	ReplyCount int       `json:"replyCount"`
}

// NewPost is the caller-supplied part of a post.
type NewPost struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	CourseID   string `json:"courseId,omitempty"`
	LessonID   string `json:"lessonId,omitempty"`
}

func (p NewPost) Validate() error {
	const op = "post.validate"
	if strings.TrimSpace(p.Title) == "" {
		return Validation(op, "post title is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return Validation(op, "post content is required")
	}
	return nil
}

// PostPatch carries optional edits to a post.
type PostPatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

type PostReply struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	CreatedAt  Timestamp `json:"createdAt"`
	UpdatedAt  Timestamp `json:"updatedAt"`
}

type NewReply struct {
	PostID     string `json:"postId"`
	Content    string `json:"content"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
}

type ContentType string

const (
	ContentPost  ContentType = "post"
	ContentReply ContentType = "reply"
)

const FlagStatusPending = "pending"

type ContentFlag struct {
	ID          string      `json:"id"`
	ContentType ContentType `json:"contentType"`
	ContentID   string      `json:"contentId"`
	ReportedBy  string      `json:"reportedBy"`
	Reason      string      `json:"reason"`
	Status      string      `json:"status"`
	CreatedAt   Timestamp   `json:"createdAt"`
}
