package services

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/ctxutil"
	"github.com/yungbote/lms-backend/internal/platform/objectstorage"
	"github.com/yungbote/lms-backend/internal/realtime"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recordedEvents) Publish(ctx context.Context, evt realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordedEvents) kinds() []realtime.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]realtime.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordedEvents) has(t realtime.EventType) bool {
	for _, got := range r.kinds() {
		if got == t {
			return true
		}
	}
	return false
}

type harness struct {
	db     *gorm.DB
	bucket objectstorage.BucketService
	events *recordedEvents

	users       repos.UserRepo
	courseRepo  repos.CourseRepo
	lectureRepo repos.LectureRepo
	enrollRepo  repos.EnrollmentRepo
	complRepo   repos.LectureCompletionRepo
	quizRepo    repos.QuizRepo
	attemptRepo repos.QuizAttemptRepo

	progress    ProgressService
	enrollments EnrollmentService
	completions CompletionService
	courses     CourseService
	lectures    LectureService
	quizzes     QuizService
	auth        AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	bucket, err := objectstorage.NewLocalBucketService(log, t.TempDir(), "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewLocalBucketService: %v", err)
	}

	h := &harness{
		db:          db,
		bucket:      bucket,
		events:      &recordedEvents{},
		users:       repos.NewUserRepo(db, log),
		courseRepo:  repos.NewCourseRepo(db, log),
		lectureRepo: repos.NewLectureRepo(db, log),
		enrollRepo:  repos.NewEnrollmentRepo(db, log),
		complRepo:   repos.NewLectureCompletionRepo(db, log),
		quizRepo:    repos.NewQuizRepo(db, log),
		attemptRepo: repos.NewQuizAttemptRepo(db, log),
	}

	thumbnails := NewThumbnailService(log, bucket, types.DefaultThumbnail)
	views := NewCourseViewer(thumbnails)
	h.progress = NewProgressService(db, log, h.courseRepo, h.lectureRepo, h.enrollRepo, h.complRepo, h.events)
	h.enrollments = NewEnrollmentService(db, log, h.courseRepo, h.enrollRepo, h.progress, views, h.events)
	h.completions = NewCompletionService(db, log, h.lectureRepo, h.complRepo, h.progress, h.events)
	h.courses = NewCourseService(db, log, h.courseRepo, h.lectureRepo, h.enrollRepo, h.complRepo, h.quizRepo, h.attemptRepo, bucket, thumbnails, views, h.events)
	h.lectures = NewLectureService(db, log, h.courseRepo, h.lectureRepo, h.complRepo, h.progress, bucket, 1<<20)
	h.quizzes = NewQuizService(db, log, h.courseRepo, h.quizRepo, h.attemptRepo, h.enrollments, h.events)

	avatars, err := NewAvatarService(db, log, h.users, bucket, AvatarConfig{})
	if err != nil {
		t.Fatalf("NewAvatarService: %v", err)
	}
	h.auth, err = NewAuthService(db, log, h.users, avatars, AuthConfig{JWTSecret: "test-secret", BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return h
}

func asUser(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID, Role: u.Role})
}

func (h *harness) student(t *testing.T) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), h.db, types.RoleStudent)
}

func (h *harness) instructor(t *testing.T) *types.User {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), h.db, types.RoleInstructor)
}

// courseWithLectures seeds a course owned by owner with n lectures whose
// video objects exist in the bucket.
func (h *harness) courseWithLectures(t *testing.T, owner *types.User, n int) (*types.Course, []*types.Lecture) {
	t.Helper()
	ctx := context.Background()
	course := testutil.SeedCourse(t, ctx, h.db, owner.ID)
	lectures := make([]*types.Lecture, 0, n)
	for i := 1; i <= n; i++ {
		l := testutil.SeedLecture(t, ctx, h.db, course.ID, owner.ID, i)
		h.putObject(t, objectstorage.BucketCategoryVideo, l.Data.Path, []byte("video-bytes-"+l.ID.String()))
		lectures = append(lectures, l)
	}
	return course, lectures
}

func (h *harness) putObject(t *testing.T, cat objectstorage.BucketCategory, key string, data []byte) {
	t.Helper()
	if err := h.bucket.UploadFile(context.Background(), cat, key, bytes.NewReader(data)); err != nil {
		t.Fatalf("UploadFile(%s): %v", key, err)
	}
}

func (h *harness) enrollment(t *testing.T, u *types.User, c *types.Course) *types.Enrollment {
	t.Helper()
	e, err := h.enrollRepo.Get(context.Background(), nil, u.ID, c.ID)
	if err != nil {
		t.Fatalf("Get enrollment: %v", err)
	}
	return e
}

func (h *harness) count(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	q := h.db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
