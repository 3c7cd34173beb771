package quiz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultPassingScore = 60

var (
	ErrQuestionText     = errors.New("question text is required")
	ErrTooFewOptions    = errors.New("question must have at least 2 options")
	ErrNoCorrectOption  = errors.New("question must have at least one correct option")
	ErrEmptyOption      = errors.New("option text is required")
	ErrNonPositivePoint = errors.New("question points must be at least 1")
)

type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type Question struct {
	ID          uuid.UUID `json:"id"`
	Text        string    `json:"text"`
	Options     []Option  `json:"options"`
	Points      int       `json:"points"`
	Explanation string    `json:"explanation,omitempty"`
}

// Validate rejects questions a student could not answer meaningfully.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrQuestionText
	}
	if len(q.Options) < 2 {
		return ErrTooFewOptions
	}
	correct := 0
	for i, o := range q.Options {
		if strings.TrimSpace(o.Text) == "" {
			return fmt.Errorf("option %d: %w", i, ErrEmptyOption)
		}
		if o.IsCorrect {
			correct++
		}
	}
	if correct == 0 {
		return ErrNoCorrectOption
	}
	if q.Points < 1 {
		return ErrNonPositivePoint
	}
	return nil
}

func (q Question) correctSet() map[int]struct{} {
	out := make(map[int]struct{}, len(q.Options))
	for i, o := range q.Options {
		if o.IsCorrect {
			out[i] = struct{}{}
		}
	}
	return out
}

// WithoutAnswers hides which options are correct.
func (q Question) WithoutAnswers() Question {
	opts := make([]Option, len(q.Options))
	for i, o := range q.Options {
		opts[i] = Option{Text: o.Text}
	}
	q.Options = opts
	q.Explanation = ""
	return q
}

type Quiz struct {
	ID           uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID     uuid.UUID                     `gorm:"type:uuid;not null;index;column:course_id" json:"courseId"`
	InstructorID uuid.UUID                     `gorm:"type:uuid;not null;index;column:instructor_id" json:"instructorId"`
	Title        string                        `gorm:"not null;column:title" json:"title"`
	Description  string                        `gorm:"column:description" json:"description"`
	PassingScore int                           `gorm:"not null;default:60;column:passing_score" json:"passingScore"`
	TimeLimit    int                           `gorm:"not null;default:0;column:time_limit" json:"timeLimit"`
	MaxAttempts  int                           `gorm:"not null;default:0;column:max_attempts" json:"maxAttempts"`
	Questions    datatypes.JSONSlice[Question] `gorm:"column:questions" json:"questions"`
	TotalPoints  int                           `gorm:"not null;default:0;column:total_points" json:"totalPoints"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Quiz) TableName() string { return "quiz" }

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps totalPoints in step with the question list.
func (q *Quiz) BeforeSave(tx *gorm.DB) error {
	q.RecomputeTotal()
	return nil
}

func (q *Quiz) RecomputeTotal() {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	q.TotalPoints = total
}

func (q *Quiz) QuestionIndex(id uuid.UUID) int {
	for i, question := range q.Questions {
		if question.ID == id {
			return i
		}
	}
	return -1
}

// ForStudent returns a copy with correct answers hidden.
func (q Quiz) ForStudent() Quiz {
	qs := make(datatypes.JSONSlice[Question], len(q.Questions))
	for i, question := range q.Questions {
		qs[i] = question.WithoutAnswers()
	}
	q.Questions = qs
	return q
}
