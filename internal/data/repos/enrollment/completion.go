package enrollment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type LectureCompletionRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, completion *types.LectureCompletion) error
	Delete(ctx context.Context, tx *gorm.DB, userID, lectureID uuid.UUID) (int64, error)
	CountForCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (int64, error)
	ListLectureIDs(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) ([]uuid.UUID, error)
	DeleteByUserCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (int64, error)
	DeleteByLecture(ctx context.Context, tx *gorm.DB, lectureID uuid.UUID) (int64, error)
	DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
}

type lectureCompletionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLectureCompletionRepo(db *gorm.DB, baseLog *logger.Logger) LectureCompletionRepo {
	repoLog := baseLog.With("repo", "LectureCompletionRepo")
	return &lectureCompletionRepo{db: db, log: repoLog}
}

// Upsert inserts a completion or refreshes completed_at on the existing
// (user_id, lecture_id) row, so repeated marks never duplicate.
func (r *lectureCompletionRepo) Upsert(ctx context.Context, tx *gorm.DB, completion *types.LectureCompletion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if completion.CompletedAt.IsZero() {
		completion.CompletedAt = time.Now().UTC()
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lecture_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed_at", "updated_at"}),
		}).
		Create(completion).Error
}

func (r *lectureCompletionRepo) Delete(ctx context.Context, tx *gorm.DB, userID, lectureID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("user_id = ? AND lecture_id = ?", userID, lectureID).
		Delete(&types.LectureCompletion{})
	return res.RowsAffected, res.Error
}

// CountForCourse counts completions of lectures that still belong to the course.
func (r *lectureCompletionRepo) CountForCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.LectureCompletion{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Where("lecture_id IN (?)", transaction.Model(&types.Lecture{}).Select("id").Where("course_id = ?", courseID)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *lectureCompletionRepo) ListLectureIDs(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.LectureCompletion{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("completed_at ASC").
		Pluck("lecture_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *lectureCompletionRepo) DeleteByUserCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&types.LectureCompletion{})
	return res.RowsAffected, res.Error
}

func (r *lectureCompletionRepo) DeleteByLecture(ctx context.Context, tx *gorm.DB, lectureID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("lecture_id = ?", lectureID).Delete(&types.LectureCompletion{})
	return res.RowsAffected, res.Error
}

func (r *lectureCompletionRepo) DeleteByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("course_id = ?", courseID).Delete(&types.LectureCompletion{})
	return res.RowsAffected, res.Error
}
