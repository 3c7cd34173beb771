package services

import (
	"context"
	"testing"

	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
)

func TestEnrollCountsStudents(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	course, _ := h.courseWithLectures(t, owner, 1)

	const n = 4
	for i := 0; i < n; i++ {
		if _, err := h.enrollments.Enroll(asUser(h.student(t)), course.ID); err != nil {
			t.Fatalf("Enroll %d: %v", i, err)
		}
	}
	got, err := h.courseRepo.GetByID(context.Background(), nil, course.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.EnrolledStudents != n {
		t.Fatalf("enrolledStudents: want %d, got %d", n, got.EnrolledStudents)
	}
}

func TestEnrollDuplicate(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	student := h.student(t)
	course, _ := h.courseWithLectures(t, owner, 1)
	ctx := asUser(student)

	if _, err := h.enrollments.Enroll(ctx, course.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	_, err := h.enrollments.Enroll(ctx, course.ID)
	if apierr.StatusOf(err) != 400 {
		t.Fatalf("Enroll (duplicate): want 400, got %v", err)
	}
	if n := h.count(t, &types.Enrollment{}, "user_id = ? AND course_id = ?", student.ID, course.ID); n != 1 {
		t.Fatalf("expected one enrollment row, got %d", n)
	}
	c, _ := h.courseRepo.GetByID(context.Background(), nil, course.ID)
	if c.EnrolledStudents != 1 {
		t.Fatalf("enrolledStudents after duplicate: want 1, got %d", c.EnrolledStudents)
	}
}

func TestEnrollErrors(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	course, _ := h.courseWithLectures(t, owner, 1)

	if _, err := h.enrollments.Enroll(asUser(owner), course.ID); apierr.StatusOf(err) != 403 {
		t.Fatalf("Enroll (instructor): want 403, got %v", err)
	}
	if _, err := h.enrollments.Enroll(asUser(h.student(t)), owner.ID); apierr.StatusOf(err) != 404 {
		t.Fatalf("Enroll (missing course): want 404, got %v", err)
	}
}

func TestUnenrollKeepsCompletions(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	student := h.student(t)
	course, lectures := h.courseWithLectures(t, owner, 2)
	ctx := asUser(student)

	if _, err := h.enrollments.Enroll(ctx, course.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if _, err := h.completions.MarkComplete(ctx, lectures[0].ID, 0); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	if err := h.enrollments.Unenroll(ctx, course.ID); err != nil {
		t.Fatalf("Unenroll: %v", err)
	}
	if err := h.enrollments.Unenroll(ctx, course.ID); apierr.StatusOf(err) != 404 {
		t.Fatalf("Unenroll (again): want 404, got %v", err)
	}
	c, _ := h.courseRepo.GetByID(context.Background(), nil, course.ID)
	if c.EnrolledStudents != 0 {
		t.Fatalf("enrolledStudents after unenroll: want 0, got %d", c.EnrolledStudents)
	}

	// Re-enrolling resumes with the prior completion counted.
	e, err := h.enrollments.Enroll(ctx, course.ID)
	if err != nil {
		t.Fatalf("Enroll (again): %v", err)
	}
	if e.Progress != 50 {
		t.Fatalf("re-enroll progress: want 50, got %d", e.Progress)
	}
}

func TestListMyEnrollments(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	student := h.student(t)
	c1, l1 := h.courseWithLectures(t, owner, 3)
	c2, _ := h.courseWithLectures(t, owner, 0)
	ctx := asUser(student)
	bg := context.Background()

	testutil.SeedEnrollment(t, bg, h.db, student.ID, c1.ID)
	testutil.SeedEnrollment(t, bg, h.db, student.ID, c2.ID)
	testutil.SeedCompletion(t, bg, h.db, student.ID, l1[0].ID, c1.ID)

	list, err := h.enrollments.ListMyEnrollments(ctx)
	if err != nil {
		t.Fatalf("ListMyEnrollments: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListMyEnrollments: want 2, got %d", len(list))
	}
	for _, item := range list {
		if item.Course == nil || item.Course.Instructor == nil || item.Course.Instructor.ID != owner.ID {
			t.Fatalf("ListMyEnrollments: course metadata missing: %+v", item.Course)
		}
		switch item.Course.ID {
		case c1.ID:
			if item.Progress.TotalLectures != 3 || item.Progress.CompletedLectures != 1 || item.Progress.ProgressPercentage != 33 {
				t.Fatalf("c1 progress: %+v", item.Progress)
			}
		case c2.ID:
			if item.Progress.TotalLectures != 0 || item.Progress.ProgressPercentage != 0 {
				t.Fatalf("c2 progress: %+v", item.Progress)
			}
		}
	}
}
