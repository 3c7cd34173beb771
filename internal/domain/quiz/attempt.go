package quiz

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrUnknownQuestion = errors.New("answer references a question not in this quiz")
	ErrOptionRange     = errors.New("selected option out of range")
)

// Submission is one answer as sent by a student.
type Submission struct {
	QuestionID      uuid.UUID `json:"questionId"`
	SelectedOptions []int     `json:"selectedOptions"`
}

type Answer struct {
	QuestionID      uuid.UUID `json:"questionId"`
	SelectedOptions []int     `json:"selectedOptions"`
	IsCorrect       bool      `json:"isCorrect"`
	PointsEarned    int       `json:"pointsEarned"`
}

type QuizAttempt struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID        uuid.UUID                   `gorm:"type:uuid;not null;index:idx_attempt_quiz_student,priority:1;column:quiz_id" json:"quizId"`
	CourseID      uuid.UUID                   `gorm:"type:uuid;not null;index;column:course_id" json:"courseId"`
	StudentID     uuid.UUID                   `gorm:"type:uuid;not null;index:idx_attempt_quiz_student,priority:2;column:student_id" json:"studentId"`
	Answers       datatypes.JSONSlice[Answer] `gorm:"column:answers" json:"answers"`
	TotalPoints   int                         `gorm:"not null;default:0;column:total_points" json:"totalPoints"`
	MaxPoints     int                         `gorm:"not null;default:0;column:max_points" json:"maxPoints"`
	Percentage    float64                     `gorm:"not null;default:0;column:percentage" json:"percentage"`
	IsPassed      bool                        `gorm:"not null;default:false;column:is_passed" json:"isPassed"`
	AttemptNumber int                         `gorm:"not null;default:1;column:attempt_number" json:"attemptNumber"`
	StartedAt     time.Time                   `gorm:"not null;column:started_at" json:"startedAt"`
	SubmittedAt   time.Time                   `gorm:"not null;column:submitted_at" json:"submittedAt"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (QuizAttempt) TableName() string { return "quiz_attempt" }

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// BeforeSave recomputes the score. IsPassed is left to the caller.
func (a *QuizAttempt) BeforeSave(tx *gorm.DB) error {
	a.RecomputeScore()
	return nil
}

func (a *QuizAttempt) RecomputeScore() {
	total := 0
	for _, ans := range a.Answers {
		total += ans.PointsEarned
	}
	a.TotalPoints = total
	if a.MaxPoints > 0 {
		a.Percentage = float64(total) / float64(a.MaxPoints) * 100
	} else {
		a.Percentage = 0
	}
}

// Passed compares a percentage against a 0..100 passing score.
func Passed(percentage float64, passingScore int) bool {
	return percentage >= float64(passingScore)
}

// Grade scores submissions against the quiz. A question earns its points only
// when the selected option set equals the correct option set. Unanswered
// questions are recorded with zero points. A submission naming an unknown
// question or an option index outside the question's options fails the
// whole attempt.
func (q *Quiz) Grade(subs []Submission) ([]Answer, error) {
	optionCount := make(map[uuid.UUID]int, len(q.Questions))
	for _, question := range q.Questions {
		optionCount[question.ID] = len(question.Options)
	}
	byQuestion := make(map[uuid.UUID]Submission, len(subs))
	for _, s := range subs {
		n, ok := optionCount[s.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %s: %w", s.QuestionID, ErrUnknownQuestion)
		}
		for _, v := range s.SelectedOptions {
			if v < 0 || v >= n {
				return nil, fmt.Errorf("question %s option %d: %w", s.QuestionID, v, ErrOptionRange)
			}
		}
		byQuestion[s.QuestionID] = s
	}

	out := make([]Answer, 0, len(q.Questions))
	for _, question := range q.Questions {
		selected := dedupe(byQuestion[question.ID].SelectedOptions)
		ans := Answer{QuestionID: question.ID, SelectedOptions: selected}
		if sameSet(selected, question.correctSet()) {
			ans.IsCorrect = true
			ans.PointsEarned = question.Points
		}
		out = append(out, ans)
	}
	return out, nil
}

func dedupe(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sameSet(selected []int, correct map[int]struct{}) bool {
	if len(selected) == 0 || len(selected) != len(correct) {
		return false
	}
	for _, v := range selected {
		if _, ok := correct[v]; !ok {
			return false
		}
	}
	return true
}
