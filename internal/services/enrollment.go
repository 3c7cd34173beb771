package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/realtime"
)

// EnrolledCourse is one row of a student's dashboard.
type EnrolledCourse struct {
	Enrollment *types.Enrollment `json:"enrollment"`
	Course     *CourseView       `json:"course"`
	Progress   types.Progress    `json:"progress"`
}

type EnrollmentService interface {
	Enroll(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error)
	Unenroll(ctx context.Context, courseID uuid.UUID) error
	ListMyEnrollments(ctx context.Context) ([]EnrolledCourse, error)
	IsEnrolled(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (bool, error)
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	progress       ProgressService
	courseViews    CourseViewer
	events         EventService
}

func NewEnrollmentService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progress ProgressService,
	courseViews CourseViewer,
	events EventService,
) EnrollmentService {
	return &enrollmentService{
		db:             db,
		log:            log.With("service", "EnrollmentService"),
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		progress:       progress,
		courseViews:    courseViews,
		events:         events,
	}
}

// Enroll inserts the enrollment and bumps the course counter in one
// transaction. Prior completions for the course count toward the new
// enrollment's progress.
func (s *enrollmentService) Enroll(ctx context.Context, courseID uuid.UUID) (*types.Enrollment, error) {
	rd, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}

	var out *types.Enrollment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.courseRepo.GetByID(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("load course: %w", err)
		}
		if course == nil {
			return apierr.NotFound("course_not_found", "Course not found")
		}
		exists, err := s.enrollmentRepo.Exists(ctx, tx, rd.UserID, courseID)
		if err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if exists {
			return apierr.BadRequest("already_enrolled", "Already enrolled")
		}
		created, err := s.enrollmentRepo.Create(ctx, tx, &types.Enrollment{UserID: rd.UserID, CourseID: courseID})
		if err != nil {
			if isDuplicate(err) {
				return apierr.BadRequest("already_enrolled", "Already enrolled")
			}
			return fmt.Errorf("create enrollment: %w", err)
		}
		if err := s.courseRepo.IncrementEnrolled(ctx, tx, courseID); err != nil {
			return fmt.Errorf("increment enrolled students: %w", err)
		}
		reconciled, err := s.progress.Reconcile(ctx, tx, rd.UserID, courseID)
		if err != nil {
			return err
		}
		if reconciled != nil {
			created = reconciled
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Student enrolled", "user_id", rd.UserID, "course_id", courseID)
	s.events.Publish(ctx, realtime.Event{Type: realtime.EventEnrollmentCreated, UserID: rd.UserID, CourseID: courseID})
	return out, nil
}

func (s *enrollmentService) Unenroll(ctx context.Context, courseID uuid.UUID) error {
	rd, err := requireStudent(ctx)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.enrollmentRepo.Delete(ctx, tx, rd.UserID, courseID)
		if err != nil {
			return fmt.Errorf("delete enrollment: %w", err)
		}
		if n == 0 {
			return apierr.NotFound("enrollment_not_found", "Enrollment not found")
		}
		if err := s.courseRepo.DecrementEnrolled(ctx, tx, courseID); err != nil {
			return fmt.Errorf("decrement enrolled students: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Student unenrolled", "user_id", rd.UserID, "course_id", courseID)
	s.events.Publish(ctx, realtime.Event{Type: realtime.EventEnrollmentRemoved, UserID: rd.UserID, CourseID: courseID})
	return nil
}

// ListMyEnrollments annotates each enrollment with progress from Compute,
// the same path that writes Enrollment.progress.
func (s *enrollmentService) ListMyEnrollments(ctx context.Context) ([]EnrolledCourse, error) {
	rd, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollmentRepo.ListByUser(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	out := make([]EnrolledCourse, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Course == nil {
			s.log.Warn("Enrollment references missing course", "enrollment_id", e.ID, "course_id", e.CourseID)
			continue
		}
		p, err := s.progress.Compute(ctx, nil, rd.UserID, e.CourseID)
		if err != nil {
			return nil, err
		}
		course := e.Course
		e.Course = nil
		out = append(out, EnrolledCourse{
			Enrollment: e,
			Course:     s.courseViews.View(course),
			Progress:   p,
		})
	}
	return out, nil
}

func (s *enrollmentService) IsEnrolled(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (bool, error) {
	return s.enrollmentRepo.Exists(ctx, tx, userID, courseID)
}
