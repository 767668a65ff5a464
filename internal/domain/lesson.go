package domain

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"
)

const CollectionLessons = "lessons"

type BlockType string

const (
	BlockText  BlockType = "text"
	BlockVideo BlockType = "video"
	BlockQuiz  BlockType = "quiz"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockText, BlockVideo, BlockQuiz:
		return true
	}
	return false
}

type Lesson struct {
	ID              string         `json:"id"`
	CourseID        string         `json:"courseId"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Content         []ContentBlock `json:"content"`
	Order           int            `json:"order"`
	DurationMinutes int            `json:"durationMinutes"`
	VideoURL        string         `json:"videoUrl,omitempty"`
	CompletedBy     []string       `json:"completedBy"`
	CreatedAt       Timestamp      `json:"createdAt"`
	UpdatedAt       Timestamp      `json:"updatedAt"`
}

// WithoutAnswers returns a copy of l whose quizzes carry no correct answer.
func (l Lesson) WithoutAnswers() Lesson {
	blocks := make([]ContentBlock, len(l.Content))
	for i, b := range l.Content {
		if b.Quiz != nil {
			q := *b.Quiz
			q.Options = append([]string(nil), b.Quiz.Options...)
			q.CorrectAnswer = ""
			b.Quiz = &q
		}
		blocks[i] = b
	}
	l.Content = blocks
	return l
}

// IsCompletedBy reports membership of userID in the completion set.
func (l Lesson) IsCompletedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range l.CompletedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// LessonInput is the writable subset of a lesson.
type LessonInput struct {
	CourseID        string         `json:"courseId"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Content         []ContentBlock `json:"content"`
	Order           int            `json:"order"`
	DurationMinutes int            `json:"durationMinutes"`
	VideoURL        string         `json:"videoUrl,omitempty"`
}

// ContentBlock is one step of a lesson. Quiz is only set for quiz blocks.
type ContentBlock struct {
	Type    BlockType `json:"type"`
	Content string    `json:"content"`
	Quiz    *Quiz     `json:"quiz,omitempty"`
}

type Quiz struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewQuizID returns quiz_<unix millis>_<7 base36 chars>. Collisions are
// unlikely but not impossible.
func NewQuizID() string {
	var sb strings.Builder
	for i := 0; i < 7; i++ {
		sb.WriteByte(base36[rand.IntN(len(base36))])
	}
	return fmt.Sprintf("quiz_%d_%s", time.Now().UnixMilli(), sb.String())
}

// NewQuiz returns the empty quiz used for freshly added quiz blocks.
func NewQuiz() *Quiz {
	return &Quiz{ID: NewQuizID(), Options: []string{"", ""}}
}

// EnsureQuizIDs assigns ids to quiz blocks lacking one.
func EnsureQuizIDs(blocks []ContentBlock) {
	for i := range blocks {
		b := &blocks[i]
		if b.Type == BlockQuiz && b.Quiz != nil && strings.TrimSpace(b.Quiz.ID) == "" {
			b.Quiz.ID = NewQuizID()
		}
	}
}

// IsCorrect is an exact, case-sensitive comparison.
func (q Quiz) IsCorrect(answer string) bool {
	return answer == q.CorrectAnswer
}

func (q *Quiz) AddOption(opt string) {
	q.Options = append(q.Options, opt)
}

// RemoveOption drops the option at idx. It refuses to go below two options
// and clears the correct answer when the removed option was it.
func (q *Quiz) RemoveOption(idx int) error {
	const op = "quiz.remove_option"
	if len(q.Options) <= 2 {
		return Validation(op, "a quiz needs at least two options")
	}
	if idx < 0 || idx >= len(q.Options) {
		return Validation(op, fmt.Sprintf("option index %d out of range", idx))
	}
	removed := q.Options[idx]
	q.Options = append(q.Options[:idx:idx], q.Options[idx+1:]...)
	if removed == q.CorrectAnswer {
		q.CorrectAnswer = ""
	}
	return nil
}

func (q *Quiz) SetCorrectAnswer(answer string) error {
	for _, o := range q.Options {
		if o == answer {
			q.CorrectAnswer = answer
			return nil
		}
	}
	return Validation("quiz.set_correct_answer", "correct answer must be one of the options")
}

// Validate checks a quiz before it is written.
func (q Quiz) Validate() error {
	const op = "quiz.validate"
	if strings.TrimSpace(q.Question) == "" {
		return Validation(op, "quiz question is required")
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return Validation(op, fmt.Sprintf("quiz option %d is empty", i+1))
		}
	}
	if q.CorrectAnswer == "" {
		return Validation(op, "select a correct answer")
	}
	for _, o := range q.Options {
		if o == q.CorrectAnswer {
			return nil
		}
	}
	return Validation(op, "correct answer must be one of the options")
}

// Validate applies the lesson form rules. Quiz blocks without a quiz get an
// empty default quiz, which then fails validation.
func (in *LessonInput) Validate() error {
	const op = "lesson.validate"
	if strings.TrimSpace(in.CourseID) == "" {
		return Validation(op, "course id is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return Validation(op, "lesson title is required")
	}
	for i := range in.Content {
		b := &in.Content[i]
		if !b.Type.Valid() {
			return Validation(op, fmt.Sprintf("block %d has unknown type %q", i+1, b.Type))
		}
		if b.Type != BlockQuiz {
			continue
		}
		if b.Quiz == nil {
			b.Quiz = NewQuiz()
		}
		if err := b.Quiz.Validate(); err != nil {
			return Wrap(CodeValidation, fmt.Sprintf("%s: block %d", op, i+1), err)
		}
	}
	return nil
}

// EmbedVideoURL rewrites YouTube watch and short links to the embeddable
// form. Other URLs are returned unchanged.
func EmbedVideoURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "youtube.com") && !strings.Contains(s, "youtu.be") {
		return s
	}
	if _, rest, ok := strings.Cut(s, "youtu.be/"); ok {
		id, _, _ := strings.Cut(rest, "?")
		if id != "" {
			return "https://www.youtube.com/embed/" + id
		}
	}
	if strings.Contains(s, "youtube.com/watch") {
		if _, q, ok := strings.Cut(s, "?"); ok {
			if vals, err := url.ParseQuery(q); err == nil {
				if id := vals.Get("v"); id != "" {
					return "https://www.youtube.com/embed/" + id
				}
			}
		}
	}
	return s
}
