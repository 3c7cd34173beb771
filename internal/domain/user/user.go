package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Fullname     string    `gorm:"not null;column:fullname" json:"fullname"`
	Email        string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Username     string    `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Role         string    `gorm:"not null;default:student;column:role" json:"role"`
	PasswordHash string    `gorm:"not null;column:password_hash" json:"-"`
	AvatarKey    string    `gorm:"column:avatar_key" json:"-"`
	AvatarURL    string    `gorm:"column:avatar_url" json:"avatarUrl,omitempty"`
	AvatarColor  string    `gorm:"column:avatar_color" json:"avatarColor,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleInstructor
}

// Summary is the public projection embedded in course listings.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Fullname  string    `json:"fullname"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
}

func (u *User) Summary() *Summary {
	if u == nil {
		return nil
	}
	return &Summary{ID: u.ID, Fullname: u.Fullname, Username: u.Username, AvatarURL: u.AvatarURL}
}
