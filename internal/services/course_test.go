package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/yungbote/lms-backend/internal/data/repos"
	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/objectstorage"
	"github.com/yungbote/lms-backend/internal/realtime"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestCreateCourse(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	ctx := asUser(owner)

	view, err := h.courses.CreateCourse(ctx, CreateCourseInput{Title: "  Go 101 ", Price: 10})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	if view.Title != "Go 101" || view.ThumbnailURL != types.DefaultThumbnail {
		t.Fatalf("CreateCourse: unexpected view %+v", view)
	}
	if view.Instructor == nil || view.Instructor.ID != owner.ID {
		t.Fatalf("CreateCourse: instructor missing: %+v", view.Instructor)
	}

	withImage, err := h.courses.CreateCourse(ctx, CreateCourseInput{Title: "Images", ThumbnailImage: pngBytes(t, 64, 48)})
	if err != nil {
		t.Fatalf("CreateCourse (image): %v", err)
	}
	key := withImage.Course.StoredThumbnailKey()
	if key == "" {
		t.Fatalf("CreateCourse (image): expected stored key, got %q", withImage.Thumbnail)
	}
	attrs, err := h.bucket.GetObjectAttrs(context.Background(), objectstorage.BucketCategoryThumbnail, key)
	if err != nil || attrs.Size == 0 {
		t.Fatalf("thumbnail object: attrs=%+v err=%v", attrs, err)
	}

	cases := []struct {
		name string
		in   CreateCourseInput
	}{
		{"missing title", CreateCourseInput{Price: 1}},
		{"negative price", CreateCourseInput{Title: "x", Price: -1}},
		{"bad thumbnail url", CreateCourseInput{Title: "x", ThumbnailURL: "ftp://nope"}},
		{"bad image", CreateCourseInput{Title: "x", ThumbnailImage: []byte("not an image")}},
	}
	for _, tc := range cases {
		if _, err := h.courses.CreateCourse(ctx, tc.in); apierr.StatusOf(err) != 400 {
			t.Fatalf("%s: want 400, got %v", tc.name, err)
		}
	}

	if _, err := h.courses.CreateCourse(asUser(h.student(t)), CreateCourseInput{Title: "x"}); apierr.StatusOf(err) != 403 {
		t.Fatalf("CreateCourse (student): want 403, got %v", err)
	}
}

func TestUpdateCourseOwnership(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	other := h.instructor(t)
	course, _ := h.courseWithLectures(t, owner, 0)

	title := "Renamed"
	if _, err := h.courses.UpdateCourse(asUser(other), course.ID, UpdateCourseInput{Title: &title}); apierr.StatusOf(err) != 403 {
		t.Fatalf("UpdateCourse (other): want 403, got %v", err)
	}
	thumb := "https://cdn.example.com/t.png"
	view, err := h.courses.UpdateCourse(asUser(owner), course.ID, UpdateCourseInput{Title: &title, ThumbnailURL: &thumb})
	if err != nil {
		t.Fatalf("UpdateCourse: %v", err)
	}
	if view.Title != title || view.ThumbnailURL != thumb {
		t.Fatalf("UpdateCourse: unexpected view %+v", view)
	}
}

func TestListCourses(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	ctx := asUser(owner)
	for _, title := range []string{"Go basics", "Advanced Go", "Rust"} {
		if _, err := h.courses.CreateCourse(ctx, CreateCourseInput{Title: title}); err != nil {
			t.Fatalf("CreateCourse: %v", err)
		}
	}

	res, err := h.courses.ListCourses(context.Background(), repos.CourseListFilter{Search: "go", Limit: 1})
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	if res.Total != 2 || len(res.Courses) != 1 || res.Limit != 1 {
		t.Fatalf("ListCourses: unexpected %+v", res)
	}

	mine, err := h.courses.ListInstructorCourses(ctx)
	if err != nil {
		t.Fatalf("ListInstructorCourses: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("ListInstructorCourses: want 3, got %d", len(mine))
	}
}

func TestDeleteCourseCascade(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	bg := context.Background()

	view, err := h.courses.CreateCourse(asUser(owner), CreateCourseInput{Title: "Doomed", ThumbnailImage: pngBytes(t, 32, 32)})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	courseID := view.ID
	thumbKey := view.Course.StoredThumbnailKey()

	var videoKeys []string
	var lectures []*types.Lecture
	for i := 1; i <= 3; i++ {
		l := testutil.SeedLecture(t, bg, h.db, courseID, owner.ID, i)
		h.putObject(t, objectstorage.BucketCategoryVideo, l.Data.Path, []byte("video"))
		videoKeys = append(videoKeys, l.Data.Path)
		lectures = append(lectures, l)
	}
	for i := 0; i < 2; i++ {
		s := h.student(t)
		if _, err := h.enrollments.Enroll(asUser(s), courseID); err != nil {
			t.Fatalf("Enroll: %v", err)
		}
		if _, err := h.completions.MarkComplete(asUser(s), lectures[i].ID, 0); err != nil {
			t.Fatalf("MarkComplete: %v", err)
		}
	}
	quiz := testutil.SeedQuiz(t, bg, h.db, courseID, owner.ID, 1, 2)
	student := h.student(t)
	testutil.SeedEnrollment(t, bg, h.db, student.ID, courseID)
	if _, err := h.quizzes.SubmitAttempt(asUser(student), quiz.ID, SubmitAttemptInput{}); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	other := testutil.SeedCourse(t, bg, h.db, owner.ID)
	keep := testutil.SeedLecture(t, bg, h.db, other.ID, owner.ID, 1)

	if err := h.courses.DeleteCourse(asUser(h.instructor(t)), courseID); apierr.StatusOf(err) != 403 {
		t.Fatalf("DeleteCourse (other instructor): want 403, got %v", err)
	}
	if err := h.courses.DeleteCourse(asUser(owner), courseID); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}

	residual := []struct {
		name  string
		model any
		where string
	}{
		{"course", &types.Course{}, "id = ?"},
		{"lectures", &types.Lecture{}, "course_id = ?"},
		{"enrollments", &types.Enrollment{}, "course_id = ?"},
		{"completions", &types.LectureCompletion{}, "course_id = ?"},
		{"quizzes", &types.Quiz{}, "course_id = ?"},
		{"attempts", &types.QuizAttempt{}, "course_id = ?"},
	}
	for _, r := range residual {
		if n := h.count(t, r.model, r.where, courseID); n != 0 {
			t.Fatalf("%s: %d rows left", r.name, n)
		}
	}
	for _, key := range videoKeys {
		if _, err := h.bucket.GetObjectAttrs(bg, objectstorage.BucketCategoryVideo, key); err == nil {
			t.Fatalf("video %s not removed", key)
		}
	}
	if _, err := h.bucket.GetObjectAttrs(bg, objectstorage.BucketCategoryThumbnail, thumbKey); err == nil {
		t.Fatalf("thumbnail %s not removed", thumbKey)
	}
	if n := h.count(t, &types.Lecture{}, "id = ?", keep.ID); n != 1 {
		t.Fatalf("unrelated lecture removed")
	}
	if !h.events.has(realtime.EventCourseDeleted) {
		t.Fatalf("course.deleted not published: %v", h.events.kinds())
	}

	if err := h.courses.DeleteCourse(asUser(owner), courseID); apierr.StatusOf(err) != 404 {
		t.Fatalf("DeleteCourse (again): want 404, got %v", err)
	}
}
