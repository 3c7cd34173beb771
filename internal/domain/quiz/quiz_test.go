package quiz

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func question(points int, correct ...int) Question {
	opts := []Option{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	for _, c := range correct {
		opts[c].IsCorrect = true
	}
	return Question{ID: uuid.New(), Text: "q", Options: opts, Points: points}
}

func TestQuestionValidate(t *testing.T) {
	cases := []struct {
		name string
		q    Question
		want error
	}{
		{"ok", question(1, 0), nil},
		{"one option", Question{Text: "q", Options: []Option{{Text: "a", IsCorrect: true}}, Points: 1}, ErrTooFewOptions},
		{"no correct", question(1), ErrNoCorrectOption},
		{"zero points", question(0, 1), ErrNonPositivePoint},
		{"blank text", Question{Options: []Option{{Text: "a", IsCorrect: true}, {Text: "b"}}, Points: 1}, ErrQuestionText},
		{"blank option", Question{Text: "q", Options: []Option{{Text: "a", IsCorrect: true}, {Text: " "}}, Points: 1}, ErrEmptyOption},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate: want=%v got=%v", tc.want, err)
			}
		})
	}
}

func TestRecomputeTotal(t *testing.T) {
	q := &Quiz{Questions: datatypes.JSONSlice[Question]{question(1, 0), question(2, 1), question(3, 2)}}
	q.RecomputeTotal()
	if q.TotalPoints != 6 {
		t.Fatalf("TotalPoints: want=6 got=%d", q.TotalPoints)
	}
}

func TestGradeAllCorrect(t *testing.T) {
	q := &Quiz{Questions: datatypes.JSONSlice[Question]{question(1, 0), question(2, 1), question(3, 0, 2)}}
	q.RecomputeTotal()

	subs := []Submission{
		{QuestionID: q.Questions[0].ID, SelectedOptions: []int{0}},
		{QuestionID: q.Questions[1].ID, SelectedOptions: []int{1}},
		{QuestionID: q.Questions[2].ID, SelectedOptions: []int{2, 0, 2}},
	}
	answers, err := q.Grade(subs)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	a := &QuizAttempt{Answers: answers, MaxPoints: q.TotalPoints}
	a.RecomputeScore()
	if a.TotalPoints != 6 {
		t.Fatalf("TotalPoints: want=6 got=%d", a.TotalPoints)
	}
	if a.Percentage != 100 {
		t.Fatalf("Percentage: want=100 got=%v", a.Percentage)
	}
	if !Passed(a.Percentage, DefaultPassingScore) {
		t.Fatalf("expected pass")
	}
}

func TestGradePartialAndUnanswered(t *testing.T) {
	q := &Quiz{Questions: datatypes.JSONSlice[Question]{question(1, 0), question(2, 1), question(3, 0, 2)}}
	subs := []Submission{
		{QuestionID: q.Questions[0].ID, SelectedOptions: []int{0}},
		{QuestionID: q.Questions[2].ID, SelectedOptions: []int{0}},
	}
	answers, err := q.Grade(subs)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if len(answers) != 3 {
		t.Fatalf("answers: want=3 got=%d", len(answers))
	}
	if !answers[0].IsCorrect || answers[1].IsCorrect || answers[2].IsCorrect {
		t.Fatalf("unexpected correctness: %+v", answers)
	}
	a := &QuizAttempt{Answers: answers, MaxPoints: 6}
	a.RecomputeScore()
	if a.TotalPoints != 1 {
		t.Fatalf("TotalPoints: want=1 got=%d", a.TotalPoints)
	}
	if Passed(a.Percentage, 60) {
		t.Fatalf("1/6 should not pass at 60")
	}
}

func TestGradeRejectsMalformedAnswers(t *testing.T) {
	q := &Quiz{Questions: datatypes.JSONSlice[Question]{question(5, 0)}}
	qid := q.Questions[0].ID
	cases := []struct {
		name string
		subs []Submission
		want error
	}{
		{"index past options", []Submission{{QuestionID: qid, SelectedOptions: []int{0, 7}}}, ErrOptionRange},
		{"negative index", []Submission{{QuestionID: qid, SelectedOptions: []int{0, -1}}}, ErrOptionRange},
		{"unknown question", []Submission{{QuestionID: uuid.New(), SelectedOptions: []int{0}}}, ErrUnknownQuestion},
	}
	for _, tc := range cases {
		answers, err := q.Grade(tc.subs)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v, got %v", tc.name, tc.want, err)
		}
		if answers != nil {
			t.Fatalf("%s: expected no answers, got %+v", tc.name, answers)
		}
	}

	answers, err := q.Grade([]Submission{{QuestionID: qid, SelectedOptions: []int{0, 0}}})
	if err != nil {
		t.Fatalf("Grade (duplicates): %v", err)
	}
	if len(answers[0].SelectedOptions) != 1 || !answers[0].IsCorrect || answers[0].PointsEarned != 5 {
		t.Fatalf("Grade (duplicates): unexpected %+v", answers[0])
	}
}

func TestRecomputeScoreZeroMax(t *testing.T) {
	a := &QuizAttempt{Answers: datatypes.JSONSlice[Answer]{{PointsEarned: 0}}}
	a.RecomputeScore()
	if a.Percentage != 0 {
		t.Fatalf("Percentage: want=0 got=%v", a.Percentage)
	}
}

func TestForStudentHidesAnswers(t *testing.T) {
	q := Quiz{Questions: datatypes.JSONSlice[Question]{question(1, 0)}}
	q.Questions[0].Explanation = "because"
	hidden := q.ForStudent()
	for _, o := range hidden.Questions[0].Options {
		if o.IsCorrect {
			t.Fatalf("correct flag leaked")
		}
	}
	if hidden.Questions[0].Explanation != "" {
		t.Fatalf("explanation leaked")
	}
	if !q.Questions[0].Options[0].IsCorrect {
		t.Fatalf("original quiz mutated")
	}
}
