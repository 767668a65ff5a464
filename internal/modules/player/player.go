// Package player drives one learner through the steps of a lesson, gating
// progress on quiz verdicts and reporting completion back to the store.
package player

import (
	"context"
	"time"

	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

// LessonAccess is the authoritative side of the player.
type LessonAccess interface {
	SubmitQuizAnswer(ctx context.Context, lessonID, quizID, userID, answer string) (bool, error)
	UpdateCompletion(ctx context.Context, lessonID, userID string, completed bool) error
}

type AttemptRecorder interface {
	Create(ctx context.Context, attempt domain.QuizAttempt) (string, error)
}

// Dispatcher runs best-effort work off the request path.
type Dispatcher interface {
	Go(name string, fn func(ctx context.Context) error) bool
}

type Deps struct {
	Lessons  LessonAccess
	Attempts AttemptRecorder
	Async    Dispatcher
	Log      *logger.Logger
}

// Hooks are called at transition points. Any of them may be nil.
type Hooks struct {
	OnComplete func()
	OnNext     func()
	OnPrevious func()
}

// State is the serialisable part of a player.
type State struct {
	LessonID  string            `json:"lessonId"`
	CourseID  string            `json:"courseId"`
	UserID    string            `json:"userId"`
	Step      int               `json:"step"`
	Completed bool              `json:"completed"`
	Answers   map[string]string `json:"answers"`
	Results   map[string]bool   `json:"results"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type Player struct {
	lesson domain.Lesson
	userID string
	state  State
	deps   Deps
	hooks  Hooks
	log    *logger.Logger
}

// New starts at step 0 with the completion flag seeded from the lesson's
// completedBy set.
func New(lesson domain.Lesson, userID string, deps Deps, hooks Hooks) *Player {
	return Restore(lesson, userID, State{
		LessonID:  lesson.ID,
		CourseID:  lesson.CourseID,
		UserID:    userID,
		Completed: lesson.IsCompletedBy(userID),
	}, deps, hooks)
}

// Restore rebuilds a player from a snapshot. A step outside the lesson is
// clamped (to 0 for a lesson with no blocks) and a completion recorded in the
// store is never forgotten.
func Restore(lesson domain.Lesson, userID string, st State, deps Deps, hooks Hooks) *Player {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	st.LessonID, st.CourseID, st.UserID = lesson.ID, lesson.CourseID, userID
	if st.Answers == nil {
		st.Answers = map[string]string{}
	}
	if st.Results == nil {
		st.Results = map[string]bool{}
	}
	if n := len(lesson.Content); st.Step >= n {
		st.Step = n - 1
	}
	if st.Step < 0 {
		st.Step = 0
	}
	if lesson.IsCompletedBy(userID) {
		st.Completed = true
	}
	return &Player{
		lesson: lesson,
		userID: userID,
		state:  st,
		deps:   deps,
		hooks:  hooks,
		log:    deps.Log.With("component", "LessonPlayer", "lesson_id", lesson.ID),
	}
}

// Snapshot returns a copy of the current state.
func (p *Player) Snapshot() State {
	st := p.state
	st.Answers = make(map[string]string, len(p.state.Answers))
	for k, v := range p.state.Answers {
		st.Answers[k] = v
	}
	st.Results = make(map[string]bool, len(p.state.Results))
	for k, v := range p.state.Results {
		st.Results[k] = v
	}
	return st
}

func (p *Player) Step() int       { return p.state.Step }
func (p *Player) Completed() bool { return p.state.Completed }
func (p *Player) Lesson() domain.Lesson {
	return p.lesson
}

func (p *Player) lastStep() int { return len(p.lesson.Content) - 1 }

// Current returns the block at the current step; false for an empty lesson.
func (p *Player) Current() (domain.ContentBlock, bool) {
	if len(p.lesson.Content) == 0 {
		return domain.ContentBlock{}, false
	}
	return p.lesson.Content[p.state.Step], true
}

// Verdict reports the recorded result for quizID, if any.
func (p *Player) Verdict(quizID string) (correct bool, submitted bool) {
	correct, submitted = p.state.Results[quizID]
	return
}

// Answer returns the locally recorded answer for quizID.
func (p *Player) Answer(quizID string) string { return p.state.Answers[quizID] }

func (p *Player) quizPassed(b domain.ContentBlock) bool {
	if b.Type != domain.BlockQuiz || b.Quiz == nil {
		return true
	}
	return p.state.Results[b.Quiz.ID]
}

func (p *Player) findQuiz(quizID string) (*domain.Quiz, int) {
	for i, b := range p.lesson.Content {
		if b.Type == domain.BlockQuiz && b.Quiz != nil && b.Quiz.ID == quizID {
			return b.Quiz, i
		}
	}
	return nil, -1
}

// Advance moves to the next step. A quiz step must have a correct verdict
// first. On the last step it completes the lesson; when the lesson was
// already complete the completion is re-sent and OnNext follows it.
func (p *Player) Advance(ctx context.Context) error {
	const op = "player.advance"
	cur, ok := p.Current()
	if ok && !p.quizPassed(cur) {
		return domain.Validation(op, "answer the quiz correctly before moving on")
	}
	if ok && p.state.Step < p.lastStep() {
		p.state.Step++
		return nil
	}
	wasCompleted := p.state.Completed
	if err := p.CompleteLesson(ctx); err != nil || !wasCompleted {
		return err
	}
	if p.hooks.OnNext != nil {
		p.hooks.OnNext()
	}
	return nil
}

// Retreat moves back one step, or hands over to OnPrevious at step 0.
func (p *Player) Retreat() {
	if p.state.Step > 0 {
		p.state.Step--
		return
	}
	if p.hooks.OnPrevious != nil {
		p.hooks.OnPrevious()
	}
}

// currentQuiz resolves quizID and requires it to sit on the current step.
func (p *Player) currentQuiz(op, quizID string) error {
	q, idx := p.findQuiz(quizID)
	if q == nil {
		return domain.NotFound(op, "quiz "+quizID+" not found in lesson")
	}
	if idx != p.state.Step {
		return domain.Validation(op, "quiz "+quizID+" is not on the current step")
	}
	return nil
}

// AnswerQuiz records a selection for the current step's quiz without checking it.
func (p *Player) AnswerQuiz(quizID, answer string) error {
	if err := p.currentQuiz("player.answer_quiz", quizID); err != nil {
		return err
	}
	p.state.Answers[quizID] = answer
	return nil
}

// SubmitQuiz checks the recorded answer to the current step's quiz with the
// store, records the verdict and queues an audit record. A correct answer on
// the last step completes the lesson.
func (p *Player) SubmitQuiz(ctx context.Context, quizID string) (bool, error) {
	const op = "player.submit_quiz"
	if p.userID == "" {
		return false, domain.Unauthenticated(op)
	}
	if err := p.currentQuiz(op, quizID); err != nil {
		return false, err
	}
	answer, ok := p.state.Answers[quizID]
	if !ok || answer == "" {
		return false, domain.Validation(op, "select an answer first")
	}
	correct, err := p.deps.Lessons.SubmitQuizAnswer(ctx, p.lesson.ID, quizID, p.userID, answer)
	if err != nil {
		p.log.Error("Quiz submission failed", "quiz_id", quizID, "error", err)
		return false, err
	}
	p.state.Results[quizID] = correct
	p.recordAttempt(quizID, answer, correct)

	if correct && p.state.Step == p.lastStep() {
		if err := p.CompleteLesson(ctx); err != nil {
			return correct, err
		}
	}
	return correct, nil
}

func (p *Player) recordAttempt(quizID, answer string, correct bool) {
	if p.deps.Attempts == nil {
		return
	}
	attempt := domain.QuizAttempt{
		UserID:    p.userID,
		LessonID:  p.lesson.ID,
		CourseID:  p.lesson.CourseID,
		QuizID:    quizID,
		Answer:    answer,
		IsCorrect: correct,
	}
	write := func(ctx context.Context) error {
		_, err := p.deps.Attempts.Create(ctx, attempt)
		return err
	}
	if p.deps.Async == nil || !p.deps.Async.Go("quiz_attempt", write) {
		p.log.Warn("Quiz attempt not recorded", "quiz_id", quizID, "user_id", p.userID)
	}
}

// ResetQuiz clears a failed quiz so it can be attempted again.
func (p *Player) ResetQuiz(quizID string) error {
	const op = "player.reset_quiz"
	correct, submitted := p.state.Results[quizID]
	if !submitted || correct {
		return domain.Validation(op, "only an incorrect answer can be reset")
	}
	delete(p.state.Results, quizID)
	delete(p.state.Answers, quizID)
	return nil
}

// CompleteLesson marks the lesson complete in the store. On failure the
// player state is unchanged and a retryable error is returned.
func (p *Player) CompleteLesson(ctx context.Context) error {
	const op = "player.complete_lesson"
	if p.userID == "" {
		return domain.Unauthenticated(op)
	}
	if err := p.deps.Lessons.UpdateCompletion(ctx, p.lesson.ID, p.userID, true); err != nil {
		p.log.Error("Marking lesson complete failed", "user_id", p.userID, "error", err)
		return domain.NewError(domain.CodeRetryable, op, "could not mark the lesson complete, please retry", err)
	}
	p.state.Completed = true
	if p.hooks.OnComplete != nil {
		p.hooks.OnComplete()
	}
	return nil
}
