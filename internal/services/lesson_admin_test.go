package services

import (
	"context"
	"testing"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos"
	"github.com/yungbote/coursehall-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursehall-backend/internal/domain"
)

func newLessonAdmin(t *testing.T, store docstore.Store, runner *inlineRunner) (LessonAdminService, repos.QuizAttemptRepo) {
	t.Helper()
	log := testutil.Logger(t)
	attempts := repos.NewQuizAttemptRepo(store, log)
	return NewLessonAdminService(log, repos.NewLessonRepo(store, log), attempts, runner), attempts
}

func TestCreateLessonAppendsAndNormalises(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	svc, _ := newLessonAdmin(t, store, &inlineRunner{})
	testutil.SeedLesson(t, ctx, store, "c1", 4, nil)

	l, err := svc.CreateLesson(asTeacher(), domain.LessonInput{
		CourseID: "c1",
		Title:    "Video",
		VideoURL: "https://youtu.be/abc123",
		Content:  []domain.ContentBlock{{Type: domain.BlockVideo, Content: "https://www.youtube.com/watch?v=xyz"}},
	})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	if l.Order != 5 {
		t.Fatalf("order = %d, want 5", l.Order)
	}
	if l.VideoURL != "https://www.youtube.com/embed/abc123" || l.Content[0].Content != "https://www.youtube.com/embed/xyz" {
		t.Fatalf("video urls not normalised: %q %q", l.VideoURL, l.Content[0].Content)
	}

	_, err = svc.CreateLesson(asTeacher(), domain.LessonInput{
		CourseID: "c1",
		Title:    "Bad quiz",
		Content:  []domain.ContentBlock{{Type: domain.BlockQuiz, Quiz: &domain.Quiz{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: "c"}}},
	})
	if !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.CreateLesson(asUser("s", domain.RoleStudent), domain.LessonInput{CourseID: "c1", Title: "x"}); !domain.IsCode(err, domain.CodePermissionDenied) {
		t.Fatalf("students cannot create lessons, got %v", err)
	}
}

func TestSubmitAnswerRecordsAttempt(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	runner := &inlineRunner{}
	svc, attempts := newLessonAdmin(t, store, runner)
	id := testutil.SeedLesson(t, ctx, store, "c1", 1, []domain.ContentBlock{testutil.QuizBlock("q1", "B", "A", "B")})

	me := asUser("u1", domain.RoleStudent)
	ok, err := svc.SubmitAnswer(me, id, "q1", "A")
	if err != nil || ok {
		t.Fatalf("wrong answer: ok=%v err=%v", ok, err)
	}
	ok, err = svc.SubmitAnswer(me, id, "q1", "B")
	if err != nil || !ok {
		t.Fatalf("right answer: ok=%v err=%v", ok, err)
	}
	recorded, _ := attempts.ListByUser(ctx, "u1")
	if runner.tasks != 2 || len(recorded) != 2 || recorded[0].CourseID != "c1" {
		t.Fatalf("attempts not recorded: tasks=%d %+v", runner.tasks, recorded)
	}
	l, _ := svc.GetLesson(ctx, id)
	if !l.IsCompletedBy("u1") {
		t.Fatalf("correct answer on the last block should complete")
	}

	if err := svc.SetCompletion(me, id, false); err != nil {
		t.Fatalf("SetCompletion: %v", err)
	}
	l, _ = svc.GetLesson(ctx, id)
	if l.IsCompletedBy("u1") {
		t.Fatalf("completion not cleared")
	}
	if _, err := svc.SubmitAnswer(context.Background(), id, "q1", "B"); !domain.IsCode(err, domain.CodeUnauthenticated) {
		t.Fatalf("anonymous submit should fail, got %v", err)
	}
}

func TestLessonAnswersHiddenFromLearners(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	log := testutil.Logger(t)
	svc, _ := newLessonAdmin(t, store, &inlineRunner{})
	courses := NewCourseAdminService(log, repos.NewCourseRepo(store, log), repos.NewLessonRepo(store, log))
	id := testutil.SeedLesson(t, ctx, store, "c1", 1, []domain.ContentBlock{
		testutil.TextBlock("intro"),
		testutil.QuizBlock("q1", "B", "A", "B"),
	})

	for name, caller := range map[string]context.Context{
		"anonymous": ctx,
		"student":   asUser("s1", domain.RoleStudent),
	} {
		l, err := svc.GetLesson(caller, id)
		if err != nil || l.Content[1].Quiz.CorrectAnswer != "" || len(l.Content[1].Quiz.Options) != 2 {
			t.Fatalf("%s GetLesson leaked the answer: %+v %v", name, l, err)
		}
		listed, err := courses.ListLessons(caller, "c1")
		if err != nil || len(listed) != 1 || listed[0].Content[1].Quiz.CorrectAnswer != "" {
			t.Fatalf("%s ListLessons leaked the answer: %+v %v", name, listed, err)
		}
	}

	l, err := svc.GetLesson(asTeacher(), id)
	if err != nil || l.Content[1].Quiz.CorrectAnswer != "B" {
		t.Fatalf("teachers should see the answer: %+v %v", l, err)
	}
	listed, _ := courses.ListLessons(asTeacher(), "c1")
	if listed[0].Content[1].Quiz.CorrectAnswer != "B" {
		t.Fatalf("teachers should see the answer in listings")
	}
}
