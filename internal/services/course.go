package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/platform/objectstorage"
	"github.com/yungbote/lms-backend/internal/realtime"
)

// CourseView is the wire shape of a course.
type CourseView struct {
	*types.Course
	ThumbnailURL string             `json:"thumbnailUrl"`
	Instructor   *types.UserSummary `json:"instructor,omitempty"`
}

type CourseViewer interface {
	View(c *types.Course) *CourseView
}

type courseViewer struct {
	thumbnails ThumbnailService
}

func NewCourseViewer(thumbnails ThumbnailService) CourseViewer {
	return &courseViewer{thumbnails: thumbnails}
}

func (v *courseViewer) View(c *types.Course) *CourseView {
	if c == nil {
		return nil
	}
	out := &CourseView{Course: c, ThumbnailURL: v.thumbnails.URL(c.Thumbnail)}
	if c.Instructor != nil {
		out.Instructor = c.Instructor.Summary()
	}
	return out
}

type CreateCourseInput struct {
	Title          string
	Description    string
	Price          float64
	ThumbnailURL   string
	ThumbnailImage []byte
}

// UpdateCourseInput applies only the non-nil fields.
type UpdateCourseInput struct {
	Title          *string
	Description    *string
	Price          *float64
	ThumbnailURL   *string
	ThumbnailImage []byte
}

type CourseListResult struct {
	Courses []*CourseView `json:"courses"`
	Total   int64         `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
}

type CourseService interface {
	CreateCourse(ctx context.Context, in CreateCourseInput) (*CourseView, error)
	UpdateCourse(ctx context.Context, courseID uuid.UUID, in UpdateCourseInput) (*CourseView, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*CourseView, error)
	ListCourses(ctx context.Context, filter repos.CourseListFilter) (*CourseListResult, error)
	ListInstructorCourses(ctx context.Context) ([]*CourseView, error)
	DeleteCourse(ctx context.Context, courseID uuid.UUID) error
}

type courseService struct {
	db              *gorm.DB
	log             *logger.Logger
	courseRepo      repos.CourseRepo
	lectureRepo     repos.LectureRepo
	enrollmentRepo  repos.EnrollmentRepo
	completionRepo  repos.LectureCompletionRepo
	quizRepo        repos.QuizRepo
	quizAttemptRepo repos.QuizAttemptRepo
	bucketService   objectstorage.BucketService
	thumbnails      ThumbnailService
	views           CourseViewer
	events          EventService
}

func NewCourseService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	lectureRepo repos.LectureRepo,
	enrollmentRepo repos.EnrollmentRepo,
	completionRepo repos.LectureCompletionRepo,
	quizRepo repos.QuizRepo,
	quizAttemptRepo repos.QuizAttemptRepo,
	bucketService objectstorage.BucketService,
	thumbnails ThumbnailService,
	views CourseViewer,
	events EventService,
) CourseService {
	return &courseService{
		db:              db,
		log:             log.With("service", "CourseService"),
		courseRepo:      courseRepo,
		lectureRepo:     lectureRepo,
		enrollmentRepo:  enrollmentRepo,
		completionRepo:  completionRepo,
		quizRepo:        quizRepo,
		quizAttemptRepo: quizAttemptRepo,
		bucketService:   bucketService,
		thumbnails:      thumbnails,
		views:           views,
		events:          events,
	}
}

func (s *courseService) CreateCourse(ctx context.Context, in CreateCourseInput) (*CourseView, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apierr.Validation([]apierr.FieldError{{Field: "title", Message: "title is required"}})
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	thumb, err := validateThumbnailURL(in.ThumbnailURL)
	if err != nil {
		return nil, err
	}

	course := &types.Course{
		ID:          uuid.New(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		UserID:      rd.UserID,
		Thumbnail:   thumb,
	}
	if len(in.ThumbnailImage) > 0 {
		key, err := s.thumbnails.Upload(ctx, course.ID, in.ThumbnailImage)
		if err != nil {
			return nil, err
		}
		course.Thumbnail = key
	}

	if _, err := s.courseRepo.Create(ctx, nil, []*types.Course{course}); err != nil {
		s.cleanupThumbnail(ctx, course)
		return nil, fmt.Errorf("create course: %w", err)
	}
	s.log.Info("Course created", "course_id", course.ID, "user_id", rd.UserID)
	return s.GetCourse(ctx, course.ID)
}

func (s *courseService) UpdateCourse(ctx context.Context, courseID uuid.UUID, in UpdateCourseInput) (*CourseView, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, nil, rd.UserID, courseID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	var fields []apierr.FieldError
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			fields = append(fields, apierr.FieldError{Field: "title", Message: "title must not be empty"})
		}
		updates["title"] = t
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, err
		}
		updates["price"] = *in.Price
	}
	if len(fields) > 0 {
		return nil, apierr.Validation(fields)
	}

	oldKey := course.StoredThumbnailKey()
	var newKey string
	switch {
	case len(in.ThumbnailImage) > 0:
		newKey, err = s.thumbnails.Upload(ctx, course.ID, in.ThumbnailImage)
		if err != nil {
			return nil, err
		}
		updates["thumbnail"] = newKey
	case in.ThumbnailURL != nil:
		thumb, err := validateThumbnailURL(*in.ThumbnailURL)
		if err != nil {
			return nil, err
		}
		updates["thumbnail"] = thumb
	}

	if err := s.courseRepo.UpdateFields(ctx, nil, courseID, updates); err != nil {
		if newKey != "" {
			if derr := s.thumbnails.Delete(ctx, newKey); derr != nil {
				s.log.Warn("Failed to remove orphaned thumbnail", "key", newKey, "error", derr)
			}
		}
		return nil, fmt.Errorf("update course: %w", err)
	}
	if _, replaced := updates["thumbnail"]; replaced && oldKey != "" {
		if err := s.thumbnails.Delete(ctx, oldKey); err != nil && !errors.Is(err, objectstorage.ErrObjectNotFound) {
			s.log.Warn("Failed to delete old thumbnail (ignored)", "key", oldKey, "error", err)
		}
	}
	return s.GetCourse(ctx, courseID)
}

func (s *courseService) GetCourse(ctx context.Context, courseID uuid.UUID) (*CourseView, error) {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, apierr.NotFound("course_not_found", "Course not found")
	}
	return s.views.View(course), nil
}

func (s *courseService) ListCourses(ctx context.Context, filter repos.CourseListFilter) (*CourseListResult, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	courses, total, err := s.courseRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	out := &CourseListResult{Courses: make([]*CourseView, 0, len(courses)), Total: total, Limit: filter.Limit, Offset: filter.Offset}
	for _, c := range courses {
		out.Courses = append(out.Courses, s.views.View(c))
	}
	return out, nil
}

func (s *courseService) ListInstructorCourses(ctx context.Context) ([]*CourseView, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.courseRepo.ListByInstructor(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	out := make([]*CourseView, 0, len(courses))
	for _, c := range courses {
		out = append(out, s.views.View(c))
	}
	return out, nil
}

// DeleteCourse removes every row that references the course in one
// transaction, then unlinks stored objects best-effort.
func (s *courseService) DeleteCourse(ctx context.Context, courseID uuid.UUID) error {
	ctx, span := observability.StartSpan(ctx, "CourseService.DeleteCourse", attribute.String("course.id", courseID.String()))
	defer span.End()

	rd, err := requireInstructor(ctx)
	if err != nil {
		return err
	}

	var (
		videoKeys    []string
		thumbnailKey string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.ownedCourse(ctx, tx, rd.UserID, courseID)
		if err != nil {
			return err
		}
		thumbnailKey = course.StoredThumbnailKey()

		lectures, err := s.lectureRepo.ListByCourse(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("list lectures: %w", err)
		}
		for _, l := range lectures {
			if k := strings.TrimSpace(l.Data.Path); k != "" {
				videoKeys = append(videoKeys, k)
			}
		}

		steps := []struct {
			name string
			run  func() (int64, error)
		}{
			{"enrollments", func() (int64, error) { return s.enrollmentRepo.DeleteByCourse(ctx, tx, courseID) }},
			{"completions", func() (int64, error) { return s.completionRepo.DeleteByCourse(ctx, tx, courseID) }},
			{"quiz attempts", func() (int64, error) { return s.quizAttemptRepo.DeleteByCourse(ctx, tx, courseID) }},
			{"quizzes", func() (int64, error) { return s.quizRepo.DeleteByCourse(ctx, tx, courseID) }},
			{"lectures", func() (int64, error) { return s.lectureRepo.DeleteByCourse(ctx, tx, courseID) }},
			{"course", func() (int64, error) { return s.courseRepo.Delete(ctx, tx, courseID) }},
		}
		for _, step := range steps {
			n, err := step.run()
			if err != nil {
				return fmt.Errorf("delete %s: %w", step.name, err)
			}
			s.log.Debug("Cascade step", "course_id", courseID, "step", step.name, "rows", n)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeObjects(ctx, courseID, videoKeys, thumbnailKey)
	s.log.Info("Course deleted", "course_id", courseID, "user_id", rd.UserID, "videos", len(videoKeys))
	s.events.Publish(ctx, realtime.Event{Type: realtime.EventCourseDeleted, UserID: rd.UserID, CourseID: courseID})
	return nil
}

// removeObjects never fails the caller; missing objects are expected when a
// previous delete already ran.
func (s *courseService) removeObjects(ctx context.Context, courseID uuid.UUID, videoKeys []string, thumbnailKey string) {
	cleanupCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(4)
	for _, key := range videoKeys {
		g.Go(func() error {
			if err := s.bucketService.DeleteFile(cleanupCtx, objectstorage.BucketCategoryVideo, key); err != nil && !errors.Is(err, objectstorage.ErrObjectNotFound) {
				s.log.Warn("Failed to delete lecture video (ignored)", "course_id", courseID, "key", key, "error", err)
			}
			return nil
		})
	}
	if thumbnailKey != "" {
		g.Go(func() error {
			if err := s.thumbnails.Delete(cleanupCtx, thumbnailKey); err != nil && !errors.Is(err, objectstorage.ErrObjectNotFound) {
				s.log.Warn("Failed to delete thumbnail (ignored)", "course_id", courseID, "key", thumbnailKey, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *courseService) cleanupThumbnail(ctx context.Context, course *types.Course) {
	if key := course.StoredThumbnailKey(); key != "" {
		if err := s.thumbnails.Delete(ctx, key); err != nil {
			s.log.Warn("Failed to remove orphaned thumbnail", "key", key, "error", err)
		}
	}
}

// ownedCourse loads a course and checks the caller owns it.
func (s *courseService) ownedCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Course, error) {
	return loadOwnedCourse(ctx, s.courseRepo, tx, userID, courseID)
}

func loadOwnedCourse(ctx context.Context, courseRepo repos.CourseRepo, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Course, error) {
	course, err := courseRepo.GetByID(ctx, tx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, apierr.NotFound("course_not_found", "Course not found")
	}
	if course.UserID != userID {
		return nil, apierr.Forbidden("not_course_owner", "You do not own this course")
	}
	return course, nil
}

func validatePrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return apierr.Validation([]apierr.FieldError{{Field: "price", Message: "price must be a number >= 0"}})
	}
	return nil
}

// validateThumbnailURL accepts an empty value (placeholder) or an http(s) URL.
func validateThumbnailURL(raw string) (string, error) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return types.DefaultThumbnail, nil
	}
	if !types.IsExternalURL(t) {
		return "", apierr.Validation([]apierr.FieldError{{Field: "thumbnail", Message: "thumbnail must be an http(s) URL"}})
	}
	return t, nil
}
