package services

import (
	"context"
	"testing"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos"
	"github.com/yungbote/coursehall-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursehall-backend/internal/domain"
)

func newCourseAdmin(t *testing.T, store docstore.Store) CourseAdminService {
	t.Helper()
	log := testutil.Logger(t)
	return NewCourseAdminService(log, repos.NewCourseRepo(store, log), repos.NewLessonRepo(store, log))
}

func TestCourseAdminRequiresManager(t *testing.T) {
	svc := newCourseAdmin(t, testutil.Store(t))
	in := domain.CourseInput{Title: "Go", Description: "basics"}
	if _, err := svc.CreateCourse(context.Background(), in); !domain.IsCode(err, domain.CodeUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := svc.CreateCourse(asUser("s1", domain.RoleStudent), in); !domain.IsCode(err, domain.CodePermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	c, err := svc.CreateCourse(asTeacher(), in)
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if c.CreatedBy != "teach" {
		t.Fatalf("createdBy = %q", c.CreatedBy)
	}
	if _, err := svc.CreateCourse(asTeacher(), domain.CourseInput{Title: "x"}); !domain.IsCode(err, domain.CodeValidation) {
		t.Fatalf("missing description should fail validation, got %v", err)
	}
}

func TestCourseProgressAndLessonOrder(t *testing.T) {
	ctx := context.Background()
	store := testutil.Store(t)
	svc := newCourseAdmin(t, store)
	courseID := testutil.SeedCourse(t, ctx, store, "Go")
	testutil.SeedCourse(t, ctx, store, "Empty")
	var ids []string
	for _, order := range []int{3, 1, 2} {
		ids = append(ids, testutil.SeedLesson(t, ctx, store, courseID, order, nil))
	}
	lessons := repos.NewLessonRepo(store, testutil.Logger(t))
	if err := lessons.UpdateCompletion(ctx, ids[0], "u1", true); err != nil {
		t.Fatalf("UpdateCompletion: %v", err)
	}

	me := asUser("u1", domain.RoleStudent)
	got, err := svc.GetCourse(me, courseID)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if got.Progress != 33 || len(got.Lessons) != 3 || got.Lessons[0].Order != 1 || got.Lessons[2].Order != 3 {
		t.Fatalf("unexpected course view: progress=%d lessons=%+v", got.Progress, got.Lessons)
	}
	if p, err := svc.Progress(me, courseID); err != nil || p != 33 {
		t.Fatalf("Progress = %d, %v", p, err)
	}

	all, err := svc.ListCourses(me)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListCourses: %v %d", err, len(all))
	}
	for _, c := range all {
		want := 0
		if c.ID == courseID {
			want = 33
		}
		if c.Progress != want {
			t.Fatalf("course %s progress %d, want %d", c.Title, c.Progress, want)
		}
	}

	if err := svc.DeleteCourse(asTeacher(), courseID); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}
	if _, err := svc.GetCourse(me, courseID); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
