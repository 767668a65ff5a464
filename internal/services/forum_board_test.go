package services

import (
	"context"
	"testing"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos"
	"github.com/yungbote/coursehall-backend/internal/data/repos/forum"
	"github.com/yungbote/coursehall-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursehall-backend/internal/domain"
)

func newBoard(t *testing.T, store docstore.Store, policy forum.ReplyPolicy) ForumBoardService {
	t.Helper()
	log := testutil.Logger(t)
	return NewForumBoardService(log,
		repos.NewPostRepo(store, log),
		repos.NewReplyRepo(store, log),
		repos.NewFlagRepo(store, log),
		repos.NewPermissionRepo(store, policy, log),
	)
}

func TestBoardFilters(t *testing.T) {
	store := testutil.Store(t)
	ctx := context.Background()
	testutil.SeedPost(t, ctx, store, "c1", "u1", "mine in c1")
	testutil.SeedPost(t, ctx, store, "c2", "u2", "theirs in c2")
	testutil.SeedPost(t, ctx, store, "c3", "u2", "theirs in c3")
	board := newBoard(t, store, forum.DefaultReplyPolicy())
	me := asUser("u1", domain.RoleStudent, "c1", "c2")

	tests := []struct {
		name string
		ctx  context.Context
		q    BoardQuery
		want int
	}{
		{"all", ctx, BoardQuery{}, 3},
		{"course", ctx, BoardQuery{Filter: FilterAll, CourseID: "c3"}, 1},
		{"my courses", me, BoardQuery{Filter: FilterMyCourses}, 2},
		{"my posts", me, BoardQuery{Filter: FilterMyPosts}, 1},
		{"most active", ctx, BoardQuery{Filter: FilterMostActive, Limit: 2}, 2},
	}
	for _, tc := range tests {
		posts, err := board.ListPosts(tc.ctx, tc.q)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(posts) != tc.want {
			t.Fatalf("%s: got %d posts, want %d", tc.name, len(posts), tc.want)
		}
	}

	if _, err := board.ListPosts(ctx, BoardQuery{Filter: FilterMyPosts}); !domain.IsCode(err, domain.CodeUnauthenticated) {
		t.Fatalf("my_posts needs login, got %v", err)
	}
	if _, err := board.ListPosts(ctx, BoardQuery{Filter: "weird"}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("unknown filter should be rejected, got %v", err)
	}
}

func TestBoardCreatePostAndReply(t *testing.T) {
	store := testutil.Store(t)
	testutil.SeedUser(t, context.Background(), store, "u1", domain.RoleStudent)
	testutil.SeedUser(t, context.Background(), store, "g1", "guest")
	board := newBoard(t, store, forum.DefaultReplyPolicy())
	me := asUser("u1", domain.RoleStudent)

	if _, err := board.CreatePost(context.Background(), domain.NewPost{Title: "t", Content: "c"}); !domain.IsCode(err, domain.CodeUnauthenticated) {
		t.Fatalf("anonymous post should fail, got %v", err)
	}
	post, err := board.CreatePost(me, domain.NewPost{Title: "Help", Content: "with goroutines", AuthorID: "spoofed"})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if post.AuthorID != "u1" || post.AuthorName != "User u1" {
		t.Fatalf("author must come from the caller: %+v", post)
	}

	if _, err := board.Reply(me, post.ID, "   "); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("blank reply should fail validation, got %v", err)
	}
	if _, err := board.Reply(asUser("g1", "guest"), post.ID, "hi"); !domain.IsCode(err, domain.CodePermissionDenied) {
		t.Fatalf("guest reply should be denied, got %v", err)
	}
	if _, err := board.Reply(asUser("ghost", domain.RoleStudent), post.ID, "hi"); !domain.IsCode(err, domain.CodePermissionDenied) {
		t.Fatalf("user without profile should be denied, got %v", err)
	}
	if _, err := board.Reply(me, post.ID, "answer"); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	replies, err := board.ListReplies(context.Background(), post.ID)
	if err != nil || len(replies) != 1 {
		t.Fatalf("ListReplies: %v %d", err, len(replies))
	}
	got, err := board.GetPost(context.Background(), post.ID)
	if err != nil || got.ReplyCount != 1 {
		t.Fatalf("reply count not bumped: %+v %v", got, err)
	}
	if _, err := board.GetPost(context.Background(), "missing"); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !board.CanReply(me) || board.CanReply(context.Background()) {
		t.Fatalf("CanReply should follow the caller")
	}
}

func TestBoardUpdatePostOwnership(t *testing.T) {
	store := testutil.Store(t)
	id := testutil.SeedPost(t, context.Background(), store, "c1", "u1", "orig")
	board := newBoard(t, store, forum.DefaultReplyPolicy())
	title := "edited"

	if err := board.UpdatePost(asUser("u2", domain.RoleStudent), id, domain.PostPatch{Title: &title}); !domain.IsCode(err, domain.CodePermissionDenied) {
		t.Fatalf("non-author edit should be denied, got %v", err)
	}
	if err := board.UpdatePost(asUser("u1", domain.RoleStudent), id, domain.PostPatch{Title: &title}); err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if err := board.UpdatePost(asUser("root", domain.RoleAdmin), id, domain.PostPatch{Title: &title}); err != nil {
		t.Fatalf("admin edit: %v", err)
	}
}

func TestBoardFlagAndSearch(t *testing.T) {
	store := testutil.Store(t)
	id := testutil.SeedPost(t, context.Background(), store, "c1", "u1", "Channels explained")
	board := newBoard(t, store, forum.DefaultReplyPolicy())

	if _, err := board.Flag(context.Background(), domain.ContentPost, id, "spam"); !domain.IsCode(err, domain.CodeUnauthenticated) {
		t.Fatalf("anonymous flag should fail, got %v", err)
	}
	flag, err := board.Flag(asUser("u2", domain.RoleStudent), domain.ContentPost, id, "spam")
	if err != nil || flag.ReportedBy != "u2" {
		t.Fatalf("Flag: %+v %v", flag, err)
	}

	hits, err := board.Search(context.Background(), " CHANNELS ")
	if err != nil || len(hits) != 1 {
		t.Fatalf("Search: %v %d", err, len(hits))
	}
	empty, err := board.Search(context.Background(), "")
	if err != nil || len(empty) != 0 {
		t.Fatalf("blank search should be empty")
	}
}
