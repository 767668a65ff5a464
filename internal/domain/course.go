package domain

import "strings"

const CollectionCourses = "courses"

type Course struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	EstimatedTime string    `json:"estimatedTime,omitempty"`
	CreatedBy     string    `json:"createdBy,omitempty"`
	CreatedAt     Timestamp `json:"createdAt"`
	UpdatedAt     Timestamp `json:"updatedAt"`
}

// CourseInput is the writable subset of a course.
type CourseInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ImageURL      string `json:"imageUrl,omitempty"`
	EstimatedTime string `json:"estimatedTime,omitempty"`
	CreatedBy     string `json:"createdBy,omitempty"`
}

// Validate applies the course form rules.
func (in CourseInput) Validate() error {
	const op = "course.validate"
	if strings.TrimSpace(in.Title) == "" {
		return Validation(op, "course title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return Validation(op, "course description is required")
	}
	img := strings.TrimSpace(in.ImageURL)
	if img != "" && !strings.HasPrefix(img, "http") && !strings.HasPrefix(img, "/") {
		return Validation(op, "image url must be absolute (http...) or start with /")
	}
	return nil
}

// CourseWithProgress is a course together with a learner's completion percentage.
type CourseWithProgress struct {
	Course
	Lessons  []Lesson `json:"lessons,omitempty"`
	Progress int      `json:"progress"`
}
