package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Enrollment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:1;column:user_id" json:"userId"`
	CourseID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course,priority:2;index;column:course_id" json:"courseId"`
	EnrolledAt  time.Time  `gorm:"not null;column:enrolled_at" json:"enrolledAt"`
	Progress    int        `gorm:"not null;default:0;column:progress" json:"progress"`
	Completed   bool       `gorm:"not null;default:false;column:completed" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completedAt"`

	Course *Course `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	return nil
}

type LectureCompletion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_user_lecture,priority:1;index:idx_completion_user_course,priority:1;column:user_id" json:"userId"`
	LectureID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_user_lecture,priority:2;index;column:lecture_id" json:"lectureId"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index:idx_completion_user_course,priority:2;index;column:course_id" json:"courseId"`
	CompletedAt time.Time `gorm:"not null;column:completed_at" json:"completedAt"`
	WatchTime   int64     `gorm:"not null;default:0;column:watch_time" json:"watchTime"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (LectureCompletion) TableName() string { return "lecture_completion" }

func (c *LectureCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
