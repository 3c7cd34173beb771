package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/realtime"
)

// ProgressService is the only place enrollment progress is derived or stored.
type ProgressService interface {
	Compute(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (types.Progress, error)
	Reconcile(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, error)
	ReconcileCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error

	GetMyProgress(ctx context.Context, courseID uuid.UUID) (types.Progress, error)
	ReconcileMine(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error)
}

type progressService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	lectureRepo    repos.LectureRepo
	enrollmentRepo repos.EnrollmentRepo
	completionRepo repos.LectureCompletionRepo
	events         EventService
	now            func() time.Time
}

func NewProgressService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	lectureRepo repos.LectureRepo,
	enrollmentRepo repos.EnrollmentRepo,
	completionRepo repos.LectureCompletionRepo,
	events EventService,
) ProgressService {
	return &progressService{
		db:             db,
		log:            log.With("service", "ProgressService"),
		courseRepo:     courseRepo,
		lectureRepo:    lectureRepo,
		enrollmentRepo: enrollmentRepo,
		completionRepo: completionRepo,
		events:         events,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *progressService) Compute(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (types.Progress, error) {
	total, err := s.lectureRepo.CountByCourse(ctx, tx, courseID)
	if err != nil {
		return types.Progress{}, fmt.Errorf("count lectures: %w", err)
	}
	completed, err := s.completionRepo.CountForCourse(ctx, tx, userID, courseID)
	if err != nil {
		return types.Progress{}, fmt.Errorf("count completions: %w", err)
	}
	return types.NewProgress(completed, total), nil
}

// Reconcile writes the computed progress onto the enrollment. A missing
// enrollment is not an error: it returns nil and logs.
func (s *progressService) Reconcile(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.Get(ctx, tx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if enrollment == nil {
		s.log.Info("Reconcile skipped, no enrollment", "user_id", userID, "course_id", courseID)
		return nil, nil
	}
	progress, err := s.Compute(ctx, tx, userID, courseID)
	if err != nil {
		return nil, err
	}
	progress.Apply(enrollment, s.now())
	if err := s.enrollmentRepo.UpdateProgress(ctx, tx, enrollment.ID, enrollment.Progress, enrollment.Completed, enrollment.CompletedAt); err != nil {
		return nil, fmt.Errorf("update enrollment progress: %w", err)
	}
	return enrollment, nil
}

func (s *progressService) ReconcileCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	ctx, span := observability.StartSpan(ctx, "ProgressService.ReconcileCourse", attribute.String("course.id", courseID.String()))
	defer span.End()

	enrollments, err := s.enrollmentRepo.ListByCourse(ctx, tx, courseID)
	if err != nil {
		return fmt.Errorf("list course enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return nil
	}
	total, err := s.lectureRepo.CountByCourse(ctx, tx, courseID)
	if err != nil {
		return fmt.Errorf("count lectures: %w", err)
	}
	now := s.now()
	for _, e := range enrollments {
		completed, err := s.completionRepo.CountForCourse(ctx, tx, e.UserID, courseID)
		if err != nil {
			return fmt.Errorf("count completions: %w", err)
		}
		types.NewProgress(completed, total).Apply(e, now)
		if err := s.enrollmentRepo.UpdateProgress(ctx, tx, e.ID, e.Progress, e.Completed, e.CompletedAt); err != nil {
			return fmt.Errorf("update enrollment progress: %w", err)
		}
	}
	return nil
}

func (s *progressService) GetMyProgress(ctx context.Context, courseID uuid.UUID) (types.Progress, error) {
	rd, err := requireStudent(ctx)
	if err != nil {
		return types.Progress{}, err
	}
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return types.Progress{}, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return types.Progress{}, apierr.NotFound("course_not_found", "Course not found")
	}
	enrolled, err := s.enrollmentRepo.Exists(ctx, nil, rd.UserID, courseID)
	if err != nil {
		return types.Progress{}, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return types.Progress{}, apierr.Forbidden("not_enrolled", "You are not enrolled in this course")
	}
	return s.Compute(ctx, nil, rd.UserID, courseID)
}

func (s *progressService) ReconcileMine(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error) {
	rd, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.Enrollment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.Reconcile(ctx, tx, rd.UserID, courseID)
		if err != nil {
			return err
		}
		if e == nil {
			return apierr.NotFound("enrollment_not_found", "Enrollment not found")
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, realtime.Event{
		Type:     realtime.EventProgressUpdated,
		UserID:   rd.UserID,
		CourseID: courseID,
		Data:     map[string]any{"progress": out.Progress, "completed": out.Completed},
	})
	return out, nil
}
