package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/realtime"
)

func TestProgressEndToEnd(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	student := h.student(t)
	course, lectures := h.courseWithLectures(t, owner, 3)
	ctx := asUser(student)

	e, err := h.enrollments.Enroll(ctx, course.ID)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if e.Progress != 0 || e.Completed {
		t.Fatalf("Enroll: expected fresh enrollment, got %+v", e)
	}

	steps := []struct {
		name      string
		unmark    bool
		lecture   int
		progress  int
		completed bool
	}{
		{name: "complete 1", lecture: 0, progress: 33},
		{name: "complete 2", lecture: 1, progress: 67},
		{name: "complete 3", lecture: 2, progress: 100, completed: true},
		{name: "unmark 2", unmark: true, lecture: 1, progress: 67},
	}
	for _, st := range steps {
		var res *CompletionResult
		if st.unmark {
			res, err = h.completions.UnmarkComplete(ctx, lectures[st.lecture].ID)
		} else {
			res, err = h.completions.MarkComplete(ctx, lectures[st.lecture].ID, 0)
		}
		if err != nil {
			t.Fatalf("%s: %v", st.name, err)
		}
		if res.Enrollment == nil {
			t.Fatalf("%s: expected reconciled enrollment", st.name)
		}
		stored := h.enrollment(t, student, course)
		if stored.Progress != st.progress || stored.Completed != st.completed {
			t.Fatalf("%s: stored progress=%d completed=%v, want %d/%v", st.name, stored.Progress, stored.Completed, st.progress, st.completed)
		}
		if st.completed && stored.CompletedAt == nil {
			t.Fatalf("%s: completedAt not set", st.name)
		}
		if !st.completed && stored.CompletedAt != nil {
			t.Fatalf("%s: completedAt should be cleared", st.name)
		}

		// Stored and computed progress come from the same path.
		p, err := h.progress.GetMyProgress(ctx, course.ID)
		if err != nil {
			t.Fatalf("%s: GetMyProgress: %v", st.name, err)
		}
		if p.ProgressPercentage != stored.Progress || p.Completed != stored.Completed {
			t.Fatalf("%s: computed %+v disagrees with stored %+v", st.name, p, stored)
		}
	}

	if !h.events.has(realtime.EventLectureCompleted) || !h.events.has(realtime.EventProgressUpdated) {
		t.Fatalf("expected completion events, got %v", h.events.kinds())
	}
}

func TestMarkCompleteIdempotent(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	student := h.student(t)
	course, lectures := h.courseWithLectures(t, owner, 2)
	ctx := asUser(student)

	if _, err := h.enrollments.Enroll(ctx, course.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	first, err := h.completions.MarkComplete(ctx, lectures[0].ID, 30)
	if err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	second, err := h.completions.MarkComplete(ctx, lectures[0].ID, 45)
	if err != nil {
		t.Fatalf("MarkComplete (again): %v", err)
	}
	if first.Enrollment.Progress != 50 || second.Enrollment.Progress != 50 {
		t.Fatalf("progress changed on repeat: %d -> %d", first.Enrollment.Progress, second.Enrollment.Progress)
	}
	if n := h.count(t, &types.LectureCompletion{}, "user_id = ? AND lecture_id = ?", student.ID, lectures[0].ID); n != 1 {
		t.Fatalf("expected one completion row, got %d", n)
	}
}

func TestMarkCompleteWithoutEnrollment(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	student := h.student(t)
	_, lectures := h.courseWithLectures(t, owner, 1)

	res, err := h.completions.MarkComplete(asUser(student), lectures[0].ID, 0)
	if err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	if res.Enrollment != nil {
		t.Fatalf("expected no enrollment, got %+v", res.Enrollment)
	}
	if h.events.has(realtime.EventProgressUpdated) {
		t.Fatalf("progress event published without an enrollment")
	}
}

func TestCompletionErrors(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	student := h.student(t)
	_, lectures := h.courseWithLectures(t, owner, 1)
	ctx := asUser(student)

	if _, err := h.completions.UnmarkComplete(ctx, lectures[0].ID); apierr.StatusOf(err) != 404 {
		t.Fatalf("UnmarkComplete (missing): want 404, got %v", err)
	}
	if _, err := h.completions.MarkComplete(ctx, lectures[0].ID, -1); apierr.StatusOf(err) != 400 {
		t.Fatalf("MarkComplete (negative watch time): want 400, got %v", err)
	}
	if _, err := h.completions.MarkComplete(asUser(owner), lectures[0].ID, 0); apierr.StatusOf(err) != 403 {
		t.Fatalf("MarkComplete (instructor): want 403, got %v", err)
	}
	if _, err := h.completions.MarkComplete(context.Background(), lectures[0].ID, 0); !errors.Is(err, apierr.ErrUnauthorized) {
		t.Fatalf("MarkComplete (anonymous): want unauthorized, got %v", err)
	}
}

func TestGetMyProgressRequiresEnrollment(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	student := h.student(t)
	course, _ := h.courseWithLectures(t, owner, 1)

	if _, err := h.progress.GetMyProgress(asUser(student), course.ID); apierr.StatusOf(err) != 403 {
		t.Fatalf("GetMyProgress: want 403, got %v", err)
	}
}

func TestReconcileMineRepairsStaleProgress(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	student := h.student(t)
	course, lectures := h.courseWithLectures(t, owner, 2)
	bg := context.Background()

	e := testutil.SeedEnrollment(t, bg, h.db, student.ID, course.ID)
	testutil.SeedCompletion(t, bg, h.db, student.ID, lectures[0].ID, course.ID)
	testutil.SeedCompletion(t, bg, h.db, student.ID, lectures[1].ID, course.ID)
	if e.Progress != 0 {
		t.Fatalf("seed: expected stale progress 0, got %d", e.Progress)
	}

	got, err := h.progress.ReconcileMine(asUser(student), course.ID)
	if err != nil {
		t.Fatalf("ReconcileMine: %v", err)
	}
	if got.Progress != 100 || !got.Completed || got.CompletedAt == nil {
		t.Fatalf("ReconcileMine: unexpected enrollment %+v", got)
	}
}

func TestLectureCountChangeReconcilesCourse(t *testing.T) {
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
	if got := h.enrollment(t, student, course).Progress; got != 50 {
		t.Fatalf("progress before delete: want 50, got %d", got)
	}

	if err := h.lectures.DeleteLecture(asUser(owner), lectures[1].ID); err != nil {
		t.Fatalf("DeleteLecture: %v", err)
	}
	stored := h.enrollment(t, student, course)
	if stored.Progress != 100 || !stored.Completed {
		t.Fatalf("progress after delete: want 100/completed, got %+v", stored)
	}
}
