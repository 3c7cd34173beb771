package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/realtime"
)

// CompletionResult is returned by mark/unmark. Enrollment is nil when the
// student has no enrollment for the lecture's course.
type CompletionResult struct {
	LectureID  uuid.UUID         `json:"lectureId"`
	CourseID   uuid.UUID         `json:"courseId"`
	Completed  bool              `json:"completed"`
	Enrollment *types.Enrollment `json:"enrollment,omitempty"`
}

type CompletionService interface {
	MarkComplete(ctx context.Context, lectureID uuid.UUID, watchTime int64) (*CompletionResult, error)
	UnmarkComplete(ctx context.Context, lectureID uuid.UUID) (*CompletionResult, error)
	ListCompletedLectureIDs(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error)
}

type completionService struct {
	db             *gorm.DB
	log            *logger.Logger
	lectureRepo    repos.LectureRepo
	completionRepo repos.LectureCompletionRepo
	progress       ProgressService
	events         EventService
}

func NewCompletionService(
	db *gorm.DB,
	log *logger.Logger,
	lectureRepo repos.LectureRepo,
	completionRepo repos.LectureCompletionRepo,
	progress ProgressService,
	events EventService,
) CompletionService {
	return &completionService{
		db:             db,
		log:            log.With("service", "CompletionService"),
		lectureRepo:    lectureRepo,
		completionRepo: completionRepo,
		progress:       progress,
		events:         events,
	}
}

func (s *completionService) MarkComplete(ctx context.Context, lectureID uuid.UUID, watchTime int64) (*CompletionResult, error) {
	rd, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}
	if watchTime < 0 {
		return nil, apierr.BadRequest("invalid_watch_time", "watchTime must not be negative")
	}

	res := &CompletionResult{LectureID: lectureID, Completed: true}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lecture, err := s.lectureRepo.GetByID(ctx, tx, lectureID)
		if err != nil {
			return fmt.Errorf("load lecture: %w", err)
		}
		if lecture == nil {
			return apierr.NotFound("lecture_not_found", "Lecture not found")
		}
		res.CourseID = lecture.CourseID

		if err := s.completionRepo.Upsert(ctx, tx, &types.LectureCompletion{
			UserID:      rd.UserID,
			LectureID:   lectureID,
			CourseID:    lecture.CourseID,
			CompletedAt: time.Now().UTC(),
			WatchTime:   watchTime,
		}); err != nil {
			return fmt.Errorf("upsert completion: %w", err)
		}

		res.Enrollment, err = s.progress.Reconcile(ctx, tx, rd.UserID, lecture.CourseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	lid := lectureID
	s.events.Publish(ctx, realtime.Event{Type: realtime.EventLectureCompleted, UserID: rd.UserID, CourseID: res.CourseID, LectureID: &lid})
	s.publishProgress(ctx, rd.UserID, res)
	return res, nil
}

// UnmarkComplete reconciles against the course captured from the deleted
// row's lecture.
func (s *completionService) UnmarkComplete(ctx context.Context, lectureID uuid.UUID) (*CompletionResult, error) {
	rd, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}

	res := &CompletionResult{LectureID: lectureID, Completed: false}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lecture, err := s.lectureRepo.GetByID(ctx, tx, lectureID)
		if err != nil {
			return fmt.Errorf("load lecture: %w", err)
		}
		if lecture == nil {
			return apierr.NotFound("completion_not_found", "Lecture completion not found")
		}
		res.CourseID = lecture.CourseID

		n, err := s.completionRepo.Delete(ctx, tx, rd.UserID, lectureID)
		if err != nil {
			return fmt.Errorf("delete completion: %w", err)
		}
		if n == 0 {
			return apierr.NotFound("completion_not_found", "Lecture completion not found")
		}

		res.Enrollment, err = s.progress.Reconcile(ctx, tx, rd.UserID, lecture.CourseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	lid := lectureID
	s.events.Publish(ctx, realtime.Event{Type: realtime.EventLectureUncompleted, UserID: rd.UserID, CourseID: res.CourseID, LectureID: &lid})
	s.publishProgress(ctx, rd.UserID, res)
	return res, nil
}

func (s *completionService) ListCompletedLectureIDs(ctx context.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	rd, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.completionRepo.ListLectureIDs(ctx, nil, rd.UserID, courseID)
	if err != nil {
		return nil, fmt.Errorf("list completed lectures: %w", err)
	}
	return ids, nil
}

func (s *completionService) publishProgress(ctx context.Context, userID uuid.UUID, res *CompletionResult) {
	if res.Enrollment == nil {
		return
	}
	s.events.Publish(ctx, realtime.Event{
		Type:     realtime.EventProgressUpdated,
		UserID:   userID,
		CourseID: res.CourseID,
		Data:     map[string]any{"progress": res.Enrollment.Progress, "completed": res.Enrollment.Completed},
	})
}
