package course

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const LectureTypeVideo = "video"

// VideoData describes the stored video object backing a lecture.
type VideoData struct {
	Path         string    `gorm:"column:path" json:"path"`
	OriginalName string    `gorm:"column:original_name" json:"originalName"`
	Mimetype     string    `gorm:"column:mimetype" json:"mimetype"`
	Size         int64     `gorm:"column:size" json:"size"`
	UploadDate   time.Time `gorm:"column:upload_date" json:"uploadDate"`
}

type Lecture struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	LectureType string    `gorm:"not null;default:video;column:lecture_type" json:"lectureType"`
	Description string    `gorm:"column:description" json:"description"`
	Data        VideoData `gorm:"embedded;embeddedPrefix:video_" json:"data"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index;column:course_id" json:"courseId"`
	Creator     uuid.UUID `gorm:"type:uuid;not null;column:creator" json:"creator"`
	Position    int       `gorm:"not null;default:0;column:position" json:"position"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Lecture) TableName() string { return "lecture" }

func (l *Lecture) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.LectureType == "" {
		l.LectureType = LectureTypeVideo
	}
	return nil
}
