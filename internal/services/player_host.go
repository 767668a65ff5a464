package services

import (
	"context"

	"github.com/yungbote/coursehall-backend/internal/data/repos"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/modules/player"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type Navigate string

const (
	NavigateNone     Navigate = ""
	NavigateNext     Navigate = "next"
	NavigatePrevious Navigate = "previous"
)

// PlayerView is what a client needs to render the current step. Quiz blocks
// never carry the correct answer.
type PlayerView struct {
	LessonID    string               `json:"lessonId"`
	CourseID    string               `json:"courseId"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	VideoURL    string               `json:"videoUrl,omitempty"`
	Step        int                  `json:"step"`
	TotalSteps  int                  `json:"totalSteps"`
	Block       *domain.ContentBlock `json:"block,omitempty"`
	Answer      string               `json:"answer,omitempty"`
	Verdict     *bool                `json:"verdict,omitempty"`
	Completed   bool                 `json:"completed"`
	JustDone    bool                 `json:"justCompleted,omitempty"`
	Navigate    Navigate             `json:"navigate,omitempty"`
	Correct     *bool                `json:"correct,omitempty"`
}

type PlayerHostService interface {
	Open(ctx context.Context, lessonID string) (*PlayerView, error)
	Advance(ctx context.Context, lessonID string) (*PlayerView, error)
	Retreat(ctx context.Context, lessonID string) (*PlayerView, error)
	Answer(ctx context.Context, lessonID, quizID, answer string) (*PlayerView, error)
	Submit(ctx context.Context, lessonID, quizID string) (*PlayerView, error)
	Reset(ctx context.Context, lessonID, quizID string) (*PlayerView, error)
	Complete(ctx context.Context, lessonID string) (*PlayerView, error)
}

type playerHostService struct {
	log      *logger.Logger
	lessons  repos.LessonRepo
	attempts repos.QuizAttemptRepo
	sessions player.SessionStore
	async    player.Dispatcher
}

func NewPlayerHostService(
	baseLog *logger.Logger,
	lessons repos.LessonRepo,
	attempts repos.QuizAttemptRepo,
	sessions player.SessionStore,
	async player.Dispatcher,
) PlayerHostService {
	serviceLog := baseLog.With("service", "PlayerHostService")
	return &playerHostService{log: serviceLog, lessons: lessons, attempts: attempts, sessions: sessions, async: async}
}

type session struct {
	p        *player.Player
	navigate Navigate
	justDone bool
	correct  *bool
}

// with loads the lesson and the caller's snapshot, runs fn against the
// player and saves the resulting state even when fn fails.
func (s *playerHostService) with(ctx context.Context, op, lessonID string, fn func(ctx context.Context, sess *session) error) (*PlayerView, error) {
	rd, err := requireUser(ctx, op)
	if err != nil {
		return nil, err
	}
	lesson, err := s.lessons.Get(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	st, found, err := s.sessions.Load(ctx, rd.UserID, lessonID)
	if err != nil {
		s.log.Warn("Player session unavailable, starting fresh", "lesson_id", lessonID, "error", err)
		found = false
	}

	sess := &session{}
	deps := player.Deps{Lessons: s.lessons, Attempts: s.attempts, Async: s.async, Log: s.log}
	hooks := player.Hooks{
		OnComplete: func() { sess.justDone = true },
		OnNext:     func() { sess.navigate = NavigateNext },
		OnPrevious: func() { sess.navigate = NavigatePrevious },
	}
	if found {
		sess.p = player.Restore(*lesson, rd.UserID, st, deps, hooks)
	} else {
		sess.p = player.New(*lesson, rd.UserID, deps, hooks)
	}

	actionErr := fn(ctx, sess)
	if err := s.sessions.Save(ctx, sess.p.Snapshot()); err != nil {
		s.log.Warn("Saving player session failed", "lesson_id", lessonID, "error", err)
	}
	if actionErr != nil {
		return nil, actionErr
	}
	return s.view(sess), nil
}

func (s *playerHostService) view(sess *session) *PlayerView {
	p := sess.p
	lesson := p.Lesson()
	v := &PlayerView{
		LessonID:    lesson.ID,
		CourseID:    lesson.CourseID,
		Title:       lesson.Title,
		Description: lesson.Description,
		VideoURL:    domain.EmbedVideoURL(lesson.VideoURL),
		Step:        p.Step(),
		TotalSteps:  len(lesson.Content),
		Completed:   p.Completed(),
		JustDone:    sess.justDone,
		Navigate:    sess.navigate,
		Correct:     sess.correct,
	}
	if b, ok := p.Current(); ok {
		block := b
		switch {
		case b.Type == domain.BlockVideo:
			block.Content = domain.EmbedVideoURL(b.Content)
		case b.Quiz != nil:
			q := *b.Quiz
			q.CorrectAnswer = ""
			q.Options = append([]string(nil), b.Quiz.Options...)
			block.Quiz = &q
			v.Answer = p.Answer(q.ID)
			if correct, submitted := p.Verdict(q.ID); submitted {
				v.Verdict = &correct
			}
		}
		v.Block = &block
	}
	return v
}

func (s *playerHostService) Open(ctx context.Context, lessonID string) (*PlayerView, error) {
	return s.with(ctx, "player.open", lessonID, func(context.Context, *session) error { return nil })
}

func (s *playerHostService) Advance(ctx context.Context, lessonID string) (*PlayerView, error) {
	return s.with(ctx, "player.advance", lessonID, func(ctx context.Context, sess *session) error {
		return sess.p.Advance(ctx)
	})
}

func (s *playerHostService) Retreat(ctx context.Context, lessonID string) (*PlayerView, error) {
	return s.with(ctx, "player.retreat", lessonID, func(_ context.Context, sess *session) error {
		sess.p.Retreat()
		return nil
	})
}

func (s *playerHostService) Answer(ctx context.Context, lessonID, quizID, answer string) (*PlayerView, error) {
	return s.with(ctx, "player.answer", lessonID, func(_ context.Context, sess *session) error {
		return sess.p.AnswerQuiz(quizID, answer)
	})
}

func (s *playerHostService) Submit(ctx context.Context, lessonID, quizID string) (*PlayerView, error) {
	return s.with(ctx, "player.submit", lessonID, func(ctx context.Context, sess *session) error {
		correct, err := sess.p.SubmitQuiz(ctx, quizID)
		sess.correct = &correct
		return err
	})
}

func (s *playerHostService) Reset(ctx context.Context, lessonID, quizID string) (*PlayerView, error) {
	return s.with(ctx, "player.reset", lessonID, func(_ context.Context, sess *session) error {
		return sess.p.ResetQuiz(quizID)
	})
}

func (s *playerHostService) Complete(ctx context.Context, lessonID string) (*PlayerView, error) {
	return s.with(ctx, "player.complete", lessonID, func(ctx context.Context, sess *session) error {
		return sess.p.CompleteLesson(ctx)
	})
}
