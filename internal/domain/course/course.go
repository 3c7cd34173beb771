package course

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/domain/user"
)

// DefaultThumbnail is used when an instructor supplies no thumbnail.
const DefaultThumbnail = "https://placehold.co/1280x720?text=Course"

type Course struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string    `gorm:"not null;column:title" json:"title"`
	Description      string    `gorm:"column:description" json:"description"`
	Thumbnail        string    `gorm:"column:thumbnail" json:"thumbnail"`
	Price            float64   `gorm:"not null;default:0;column:price" json:"price"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"userId"`
	EnrolledStudents int64     `gorm:"not null;default:0;column:enrolled_students" json:"enrolledStudents"`

	Instructor *user.User `gorm:"foreignKey:UserID;references:ID" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if strings.TrimSpace(c.Thumbnail) == "" {
		c.Thumbnail = DefaultThumbnail
	}
	return nil
}

// IsExternalURL reports whether a thumbnail points outside our object storage.
func IsExternalURL(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "//")
}

// StoredThumbnailKey returns the object key of an uploaded thumbnail, or ""
// for the placeholder and external URLs.
func (c *Course) StoredThumbnailKey() string {
	t := strings.TrimSpace(c.Thumbnail)
	if t == "" || t == DefaultThumbnail || IsExternalURL(t) {
		return ""
	}
	return t
}
