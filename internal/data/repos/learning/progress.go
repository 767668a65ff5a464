package learning

import (
	"math"
	"sort"

	"github.com/yungbote/coursehall-backend/internal/domain"
)

// CourseProgress is the rounded percentage of lessons userID has completed.
func CourseProgress(lessons []domain.Lesson, userID string) int {
	if len(lessons) == 0 {
		return 0
	}
	done := 0
	for _, l := range lessons {
		if l.IsCompletedBy(userID) {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(lessons))))
}

// SortLessonsByOrder sorts in place by Order, keeping ties stable.
func SortLessonsByOrder(lessons []domain.Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Order < lessons[j].Order })
}

// NextLessonOrder returns one past the highest order, or 1 for an empty course.
func NextLessonOrder(lessons []domain.Lesson) int {
	next := 1
	for _, l := range lessons {
		if l.Order >= next {
			next = l.Order + 1
		}
	}
	return next
}
