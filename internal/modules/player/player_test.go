package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/async"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type fakeLessons struct {
	mu           sync.Mutex
	correct      map[string]string
	completions  []string
	failComplete error
	submits      int
}

func (f *fakeLessons) SubmitQuizAnswer(_ context.Context, _, quizID, _, answer string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	want, ok := f.correct[quizID]
	if !ok {
		return false, domain.NotFound("test", "no quiz")
	}
	return want == answer, nil
}

func (f *fakeLessons) UpdateCompletion(_ context.Context, lessonID, userID string, completed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failComplete != nil {
		return f.failComplete
	}
	f.completions = append(f.completions, lessonID+"/"+userID)
	return nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	attempts []domain.QuizAttempt
	err      error
}

func (f *fakeAttempts) Create(_ context.Context, a domain.QuizAttempt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.attempts = append(f.attempts, a)
	return "a1", nil
}

type inlineDispatcher struct{ ran int }

func (d *inlineDispatcher) Go(_ string, fn func(ctx context.Context) error) bool {
	d.ran++
	_ = fn(context.Background())
	return true
}

type hookCounts struct{ complete, next, previous int }

func (h *hookCounts) hooks() Hooks {
	return Hooks{
		OnComplete: func() { h.complete++ },
		OnNext:     func() { h.next++ },
		OnPrevious: func() { h.previous++ },
	}
}

func quizBlock(id, correct string) domain.ContentBlock {
	return domain.ContentBlock{Type: domain.BlockQuiz, Quiz: &domain.Quiz{
		ID: id, Question: "?", Options: []string{correct, "wrong"}, CorrectAnswer: correct,
	}}
}

func textBlock(s string) domain.ContentBlock {
	return domain.ContentBlock{Type: domain.BlockText, Content: s}
}

func newTestPlayer(blocks ...domain.ContentBlock) (*Player, *fakeLessons, *fakeAttempts, *hookCounts) {
	lessons := &fakeLessons{correct: map[string]string{}}
	for _, b := range blocks {
		if b.Quiz != nil {
			lessons.correct[b.Quiz.ID] = b.Quiz.CorrectAnswer
		}
	}
	attempts := &fakeAttempts{}
	h := &hookCounts{}
	lesson := domain.Lesson{ID: "l1", CourseID: "c1", Content: blocks}
	p := New(lesson, "u1", Deps{Lessons: lessons, Attempts: attempts, Async: &inlineDispatcher{}}, h.hooks())
	return p, lessons, attempts, h
}

func TestAdvanceThroughTextToCompletion(t *testing.T) {
	ctx := context.Background()
	p, lessons, _, h := newTestPlayer(textBlock("a"), textBlock("b"))
	if err := p.Advance(ctx); err != nil || p.Step() != 1 {
		t.Fatalf("Advance: step=%d err=%v", p.Step(), err)
	}
	if err := p.Advance(ctx); err != nil {
		t.Fatalf("Advance on last step: %v", err)
	}
	if !p.Completed() || h.complete != 1 || len(lessons.completions) != 1 || p.Step() != 1 {
		t.Fatalf("expected completion at last step: completed=%v hooks=%+v", p.Completed(), h)
	}
	if err := p.Advance(ctx); err != nil || h.next != 1 || h.complete != 2 || len(lessons.completions) != 2 {
		t.Fatalf("advancing a completed lesson should re-send completion and navigate next: %+v %v", h, err)
	}

	lessons.failComplete = errors.New("offline")
	if err := p.Advance(ctx); !domain.IsCode(err, domain.CodeRetryable) || h.next != 1 {
		t.Fatalf("failed completion must not navigate: %+v %v", h, err)
	}
}

func TestQuizGatesAdvance(t *testing.T) {
	ctx := context.Background()
	p, _, attempts, _ := newTestPlayer(quizBlock("q1", "A"), textBlock("after"))

	if err := p.Advance(ctx); !domain.IsCode(err, domain.CodeValidation) || p.Step() != 0 {
		t.Fatalf("unanswered quiz must block: step=%d err=%v", p.Step(), err)
	}
	if err := p.AnswerQuiz("q1", "wrong"); err != nil {
		t.Fatalf("AnswerQuiz: %v", err)
	}
	ok, err := p.SubmitQuiz(ctx, "q1")
	if err != nil || ok {
		t.Fatalf("SubmitQuiz wrong answer: ok=%v err=%v", ok, err)
	}
	if err := p.Advance(ctx); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("incorrect quiz must block, got %v", err)
	}
	if err := p.ResetQuiz("q1"); err != nil {
		t.Fatalf("ResetQuiz: %v", err)
	}
	if _, submitted := p.Verdict("q1"); submitted || p.Answer("q1") != "" {
		t.Fatalf("reset should clear answer and verdict")
	}
	_ = p.AnswerQuiz("q1", "A")
	if ok, err := p.SubmitQuiz(ctx, "q1"); err != nil || !ok {
		t.Fatalf("SubmitQuiz correct: ok=%v err=%v", ok, err)
	}
	if err := p.ResetQuiz("q1"); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("reset after a correct verdict must fail, got %v", err)
	}
	if err := p.Advance(ctx); err != nil || p.Step() != 1 {
		t.Fatalf("correct quiz should unlock: step=%d err=%v", p.Step(), err)
	}
	if len(attempts.attempts) != 2 || attempts.attempts[1].IsCorrect != true || attempts.attempts[0].CourseID != "c1" {
		t.Fatalf("attempts not recorded: %+v", attempts.attempts)
	}
}

func TestSubmitOnLastStepCompletes(t *testing.T) {
	ctx := context.Background()
	p, lessons, _, h := newTestPlayer(textBlock("intro"), quizBlock("q1", "A"))
	_ = p.Advance(ctx)

	_ = p.AnswerQuiz("q1", "wrong")
	if ok, _ := p.SubmitQuiz(ctx, "q1"); ok || p.Completed() || len(lessons.completions) != 0 {
		t.Fatalf("wrong answer on last block must not complete")
	}
	_ = p.ResetQuiz("q1")
	_ = p.AnswerQuiz("q1", "A")
	if ok, err := p.SubmitQuiz(ctx, "q1"); !ok || err != nil {
		t.Fatalf("SubmitQuiz: %v %v", ok, err)
	}
	if !p.Completed() || h.complete != 1 {
		t.Fatalf("correct last quiz should complete the lesson")
	}
}

func TestSubmitRequiresAnswerAndLogin(t *testing.T) {
	ctx := context.Background()
	p, lessons, _, _ := newTestPlayer(quizBlock("q1", "A"))
	if _, err := p.SubmitQuiz(ctx, "q1"); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("expected validation error without an answer, got %v", err)
	}
	if err := p.AnswerQuiz("nope", "A"); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	anon := New(p.Lesson(), "", Deps{Lessons: lessons}, Hooks{})
	_ = anon.AnswerQuiz("q1", "A")
	if _, err := anon.SubmitQuiz(ctx, "q1"); !domain.IsCode(err, domain.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if lessons.submits != 0 {
		t.Fatalf("store must not be called on rejected submissions")
	}
}

func TestAuditFailureDoesNotBlockSubmission(t *testing.T) {
	ctx := context.Background()
	p, _, attempts, _ := newTestPlayer(quizBlock("q1", "A"), textBlock("x"))
	attempts.err = errors.New("audit down")
	_ = p.AnswerQuiz("q1", "A")
	if ok, err := p.SubmitQuiz(ctx, "q1"); !ok || err != nil {
		t.Fatalf("audit failure leaked: ok=%v err=%v", ok, err)
	}
}

func TestCompletionFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	p, lessons, _, h := newTestPlayer(textBlock("only"))
	lessons.failComplete = errors.New("offline")
	err := p.Advance(ctx)
	if !domain.IsCode(err, domain.CodeRetryable) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	if p.Completed() || h.complete != 0 || p.Step() != 0 {
		t.Fatalf("failed completion must leave state untouched")
	}
	lessons.failComplete = nil
	if err := p.CompleteLesson(ctx); err != nil || !p.Completed() {
		t.Fatalf("retry should succeed: %v", err)
	}
}

func TestRetreatDelegatesAtFirstStep(t *testing.T) {
	ctx := context.Background()
	p, _, _, h := newTestPlayer(textBlock("a"), textBlock("b"))
	p.Retreat()
	if h.previous != 1 || p.Step() != 0 {
		t.Fatalf("retreat at step 0 should call OnPrevious")
	}
	_ = p.Advance(ctx)
	p.Retreat()
	if p.Step() != 0 || h.previous != 1 {
		t.Fatalf("retreat should move back one step")
	}
}

func TestEmptyLessonCompletesOnFirstAdvance(t *testing.T) {
	p, lessons, _, h := newTestPlayer()
	if _, ok := p.Current(); ok {
		t.Fatalf("empty lesson has no current block")
	}
	if err := p.Advance(context.Background()); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !p.Completed() || h.complete != 1 || len(lessons.completions) != 1 {
		t.Fatalf("empty lesson should complete on first advance")
	}
}

func TestSeededCompletionAndRestore(t *testing.T) {
	lesson := domain.Lesson{ID: "l1", CourseID: "c1", Content: []domain.ContentBlock{textBlock("a"), quizBlock("q1", "A")}, CompletedBy: []string{"u1"}}
	lessons := &fakeLessons{correct: map[string]string{"q1": "A"}}
	p := New(lesson, "u1", Deps{Lessons: lessons}, Hooks{})
	if !p.Completed() {
		t.Fatalf("completion should be seeded from completedBy")
	}
	_ = p.Advance(context.Background())
	_ = p.AnswerQuiz("q1", "B")

	snap := p.Snapshot()
	snap.Answers["q1"] = "mutated"
	if p.Answer("q1") != "B" {
		t.Fatalf("snapshot must not alias player state")
	}

	snap = p.Snapshot()
	restored := Restore(lesson, "u1", snap, Deps{Lessons: lessons}, Hooks{})
	if restored.Step() != 1 || restored.Answer("q1") != "B" || !restored.Completed() {
		t.Fatalf("restore lost state: %+v", restored.Snapshot())
	}

	snap.Step = 9
	if Restore(lesson, "u1", snap, Deps{Lessons: lessons}, Hooks{}).Step() != 1 {
		t.Fatalf("out of range step should clamp to the last block")
	}
}

func TestQuizOffCurrentStepIsRejected(t *testing.T) {
	ctx := context.Background()
	p, lessons, attempts, h := newTestPlayer(textBlock("intro"), quizBlock("q2", "A"))
	if err := p.AnswerQuiz("q2", "A"); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("answering a later quiz should fail, got %v", err)
	}
	if _, err := p.SubmitQuiz(ctx, "q2"); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("submitting a later quiz should fail, got %v", err)
	}
	if lessons.submits != 0 || len(lessons.completions) != 0 || len(attempts.attempts) != 0 {
		t.Fatalf("store touched for an off-step quiz: submits=%d completions=%v", lessons.submits, lessons.completions)
	}
	if p.Completed() || h.complete != 0 || p.Answer("q2") != "" {
		t.Fatalf("player state changed: completed=%v hooks=%+v", p.Completed(), h)
	}

	_ = p.Advance(ctx)
	_ = p.AnswerQuiz("q2", "A")
	if ok, err := p.SubmitQuiz(ctx, "q2"); !ok || err != nil || !p.Completed() {
		t.Fatalf("quiz on the current step should complete: ok=%v err=%v", ok, err)
	}
}

type blockingAttempts struct {
	release chan struct{}
}

func (b *blockingAttempts) Create(ctx context.Context, _ domain.QuizAttempt) (string, error) {
	select {
	case <-b.release:
		return "a1", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestBusyAuditPoolDoesNotDelaySubmission(t *testing.T) {
	ctx := context.Background()
	runner := async.NewRunner(1, 5*time.Second, logger.Nop())
	recorder := &blockingAttempts{release: make(chan struct{})}
	lessons := &fakeLessons{correct: map[string]string{"q1": "A", "q2": "B"}}
	lesson := domain.Lesson{ID: "l1", CourseID: "c1", Content: []domain.ContentBlock{quizBlock("q1", "A"), quizBlock("q2", "B")}}
	p := New(lesson, "u1", Deps{Lessons: lessons, Attempts: recorder, Async: runner}, Hooks{})

	_ = p.AnswerQuiz("q1", "A")
	if ok, err := p.SubmitQuiz(ctx, "q1"); !ok || err != nil {
		t.Fatalf("first SubmitQuiz: ok=%v err=%v", ok, err)
	}
	if err := p.Advance(ctx); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	_ = p.AnswerQuiz("q2", "B")
	start := time.Now()
	ok, err := p.SubmitQuiz(ctx, "q2")
	if d := time.Since(start); d > time.Second {
		t.Fatalf("second SubmitQuiz took %s while the audit pool was busy", d)
	}
	if !ok || err != nil || !p.Completed() {
		t.Fatalf("second SubmitQuiz: ok=%v err=%v completed=%v", ok, err, p.Completed())
	}

	close(recorder.release)
	if err := runner.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestRestoreClampsStepForEmptyLesson(t *testing.T) {
	h := &hookCounts{}
	lesson := domain.Lesson{ID: "l1", CourseID: "c1"}
	p := Restore(lesson, "u1", State{Step: 3}, Deps{Lessons: &fakeLessons{}}, h.hooks())
	if p.Step() != 0 {
		t.Fatalf("stale step should clamp to 0, got %d", p.Step())
	}
	p.Retreat()
	if p.Step() != 0 || h.previous != 1 {
		t.Fatalf("retreat should hand over to OnPrevious: step=%d hooks=%+v", p.Step(), h)
	}
}
