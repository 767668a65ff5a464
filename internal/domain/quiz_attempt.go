package domain

const CollectionQuizAttempts = "quizAttempts"

// QuizAttempt is the audit record written for every authoritative quiz check.
type QuizAttempt struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	LessonID  string    `json:"lessonId"`
	CourseID  string    `json:"courseId"`
	QuizID    string    `json:"quizId"`
	Answer    string    `json:"answer"`
	IsCorrect bool      `json:"isCorrect"`
	Timestamp Timestamp `json:"timestamp"`
}
