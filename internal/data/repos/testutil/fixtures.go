package testutil

import (
	"context"
	"testing"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, store docstore.Store, userID, role string) {
	tb.Helper()
	if err := store.Set(ctx, domain.CollectionUsers, userID, docstore.Data{
		"role":        role,
		"displayName": "User " + userID,
	}); err != nil {
		tb.Fatalf("seed user: %v", err)
	}
}

func SeedPost(tb testing.TB, ctx context.Context, store docstore.Store, courseID, authorID, title string) string {
	tb.Helper()
	data := docstore.Data{
		"title":      title,
		"content":    "content of " + title,
		"authorId":   authorID,
		"authorName": "Author",
		"replyCount": 0,
		"createdAt":  docstore.ServerTimestamp(),
		"updatedAt":  docstore.ServerTimestamp(),
	}
	if courseID != "" {
		data["courseId"] = courseID
	}
	id, err := store.Create(ctx, domain.CollectionForumPosts, data)
	if err != nil {
		tb.Fatalf("seed post: %v", err)
	}
	return id
}

func SeedCourse(tb testing.TB, ctx context.Context, store docstore.Store, title string) string {
	tb.Helper()
	id, err := store.Create(ctx, domain.CollectionCourses, docstore.Data{
		"title":       title,
		"description": "about " + title,
		"createdAt":   docstore.ServerTimestamp(),
		"updatedAt":   docstore.ServerTimestamp(),
	})
	if err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return id
}

// SeedLesson stores blocks in the same shape the lesson repo writes them.
func SeedLesson(tb testing.TB, ctx context.Context, store docstore.Store, courseID string, order int, blocks []domain.ContentBlock) string {
	tb.Helper()
	content := make([]any, 0, len(blocks))
	for _, b := range blocks {
		m := map[string]any{"type": string(b.Type), "content": b.Content}
		if b.Quiz != nil {
			opts := make([]any, len(b.Quiz.Options))
			for i, o := range b.Quiz.Options {
				opts[i] = o
			}
			m["quiz"] = map[string]any{
				"id":            b.Quiz.ID,
				"question":      b.Quiz.Question,
				"options":       opts,
				"correctAnswer": b.Quiz.CorrectAnswer,
			}
		}
		content = append(content, m)
	}
	id, err := store.Create(ctx, domain.CollectionLessons, docstore.Data{
		"courseId":        courseID,
		"title":           "Lesson",
		"description":     "",
		"content":         content,
		"order":           order,
		"durationMinutes": 5,
		"completedBy":     []any{},
		"createdAt":       docstore.ServerTimestamp(),
		"updatedAt":       docstore.ServerTimestamp(),
	})
	if err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return id
}

func TextBlock(s string) domain.ContentBlock {
	return domain.ContentBlock{Type: domain.BlockText, Content: s}
}

func QuizBlock(id, correct string, options ...string) domain.ContentBlock {
	return domain.ContentBlock{Type: domain.BlockQuiz, Quiz: &domain.Quiz{
		ID:            id,
		Question:      "question " + id,
		Options:       options,
		CorrectAnswer: correct,
	}}
}
