package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/realtime"
)

type CreateQuizInput struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	PassingScore *int             `json:"passingScore"`
	TimeLimit    int              `json:"timeLimit"`
	MaxAttempts  int              `json:"maxAttempts"`
	Questions    []types.Question `json:"questions"`
}

type SubmitAttemptInput struct {
	Answers   []types.Submission `json:"answers"`
	StartedAt *time.Time         `json:"startedAt"`
}

type QuizService interface {
	CreateQuiz(ctx context.Context, courseID uuid.UUID, in CreateQuizInput) (*types.Quiz, error)
	AddQuestion(ctx context.Context, quizID uuid.UUID, q types.Question) (*types.Quiz, error)
	UpdateQuestion(ctx context.Context, quizID, questionID uuid.UUID, q types.Question) (*types.Quiz, error)
	DeleteQuestion(ctx context.Context, quizID, questionID uuid.UUID) (*types.Quiz, error)
	GetQuiz(ctx context.Context, quizID uuid.UUID) (*types.Quiz, error)
	ListCourseQuizzes(ctx context.Context, courseID uuid.UUID) ([]*types.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID uuid.UUID) error
	SubmitAttempt(ctx context.Context, quizID uuid.UUID, in SubmitAttemptInput) (*types.QuizAttempt, error)
	ListMyAttempts(ctx context.Context, quizID uuid.UUID) ([]*types.QuizAttempt, error)
}

type quizService struct {
	db          *gorm.DB
	log         *logger.Logger
	courseRepo  repos.CourseRepo
	quizRepo    repos.QuizRepo
	attemptRepo repos.QuizAttemptRepo
	enrollments EnrollmentService
	events      EventService
	now         func() time.Time
}

func NewQuizService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	quizRepo repos.QuizRepo,
	attemptRepo repos.QuizAttemptRepo,
	enrollments EnrollmentService,
	events EventService,
) QuizService {
	return &quizService{
		db:          db,
		log:         log.With("service", "QuizService"),
		courseRepo:  courseRepo,
		quizRepo:    quizRepo,
		attemptRepo: attemptRepo,
		enrollments: enrollments,
		events:      events,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *quizService) CreateQuiz(ctx context.Context, courseID uuid.UUID, in CreateQuizInput) (*types.Quiz, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	var fields []apierr.FieldError
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields = append(fields, apierr.FieldError{Field: "title", Message: "title is required"})
	}
	passing := types.DefaultPassingScore
	if in.PassingScore != nil {
		passing = *in.PassingScore
	}
	if passing < 0 || passing > 100 {
		fields = append(fields, apierr.FieldError{Field: "passingScore", Message: "passingScore must be between 0 and 100"})
	}
	if in.TimeLimit < 0 {
		fields = append(fields, apierr.FieldError{Field: "timeLimit", Message: "timeLimit must not be negative"})
	}
	if in.MaxAttempts < 0 {
		fields = append(fields, apierr.FieldError{Field: "maxAttempts", Message: "maxAttempts must not be negative"})
	}
	questions := make([]types.Question, 0, len(in.Questions))
	for i, q := range in.Questions {
		q, err := prepareQuestion(q)
		if err != nil {
			fields = append(fields, apierr.FieldError{Field: fmt.Sprintf("questions[%d]", i), Message: err.Error()})
			continue
		}
		questions = append(questions, q)
	}
	if len(fields) > 0 {
		return nil, apierr.Validation(fields)
	}
	if _, err := loadOwnedCourse(ctx, s.courseRepo, nil, rd.UserID, courseID); err != nil {
		return nil, err
	}

	quiz := &types.Quiz{
		CourseID:     courseID,
		InstructorID: rd.UserID,
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		PassingScore: passing,
		TimeLimit:    in.TimeLimit,
		MaxAttempts:  in.MaxAttempts,
		Questions:    questions,
	}
	created, err := s.quizRepo.Create(ctx, nil, quiz)
	if err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	s.log.Info("Quiz created", "quiz_id", created.ID, "course_id", courseID, "questions", len(questions))
	return created, nil
}

func (s *quizService) AddQuestion(ctx context.Context, quizID uuid.UUID, q types.Question) (*types.Quiz, error) {
	q, err := prepareQuestion(q)
	if err != nil {
		return nil, questionValidation(err)
	}
	return s.mutateQuiz(ctx, quizID, func(quiz *types.Quiz) error {
		quiz.Questions = append(quiz.Questions, q)
		return nil
	})
}

func (s *quizService) UpdateQuestion(ctx context.Context, quizID, questionID uuid.UUID, q types.Question) (*types.Quiz, error) {
	q.ID = questionID
	q, err := prepareQuestion(q)
	if err != nil {
		return nil, questionValidation(err)
	}
	return s.mutateQuiz(ctx, quizID, func(quiz *types.Quiz) error {
		idx := quiz.QuestionIndex(questionID)
		if idx < 0 {
			return apierr.NotFound("question_not_found", "Question not found")
		}
		quiz.Questions[idx] = q
		return nil
	})
}

func (s *quizService) DeleteQuestion(ctx context.Context, quizID, questionID uuid.UUID) (*types.Quiz, error) {
	return s.mutateQuiz(ctx, quizID, func(quiz *types.Quiz) error {
		idx := quiz.QuestionIndex(questionID)
		if idx < 0 {
			return apierr.NotFound("question_not_found", "Question not found")
		}
		quiz.Questions = append(quiz.Questions[:idx], quiz.Questions[idx+1:]...)
		return nil
	})
}

// mutateQuiz loads the quiz under lock, checks ownership, applies fn and
// saves. Totals are recomputed by the save hook.
func (s *quizService) mutateQuiz(ctx context.Context, quizID uuid.UUID, fn func(*types.Quiz) error) (*types.Quiz, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.Quiz
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quiz, err := s.ownedQuiz(ctx, tx, rd.UserID, quizID, true)
		if err != nil {
			return err
		}
		if err := fn(quiz); err != nil {
			return err
		}
		if err := s.quizRepo.Save(ctx, tx, quiz); err != nil {
			return fmt.Errorf("save quiz: %w", err)
		}
		out = quiz
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *quizService) ownedQuiz(ctx context.Context, tx *gorm.DB, userID, quizID uuid.UUID, lock bool) (*types.Quiz, error) {
	var (
		quiz *types.Quiz
		err  error
	)
	if lock {
		quiz, err = s.quizRepo.GetByIDForUpdate(ctx, tx, quizID)
	} else {
		quiz, err = s.quizRepo.GetByID(ctx, tx, quizID)
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, apierr.NotFound("quiz_not_found", "Quiz not found")
	}
	if quiz.InstructorID != userID {
		return nil, apierr.Forbidden("not_quiz_owner", "You do not own this quiz")
	}
	return quiz, nil
}

// GetQuiz hides correct answers from everyone but the owning instructor.
func (s *quizService) GetQuiz(ctx context.Context, quizID uuid.UUID) (*types.Quiz, error) {
	rd, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	quiz, err := s.quizRepo.GetByID(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, apierr.NotFound("quiz_not_found", "Quiz not found")
	}
	if quiz.InstructorID == rd.UserID {
		return quiz, nil
	}
	stripped := quiz.ForStudent()
	return &stripped, nil
}

func (s *quizService) ListCourseQuizzes(ctx context.Context, courseID uuid.UUID) ([]*types.Quiz, error) {
	rd, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, apierr.NotFound("course_not_found", "Course not found")
	}
	quizzes, err := s.quizRepo.ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	if course.UserID == rd.UserID {
		return quizzes, nil
	}
	out := make([]*types.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		stripped := q.ForStudent()
		out = append(out, &stripped)
	}
	return out, nil
}

func (s *quizService) DeleteQuiz(ctx context.Context, quizID uuid.UUID) error {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownedQuiz(ctx, tx, rd.UserID, quizID, false); err != nil {
			return err
		}
		if _, err := s.attemptRepo.DeleteByQuiz(ctx, tx, quizID); err != nil {
			return fmt.Errorf("delete quiz attempts: %w", err)
		}
		if _, err := s.quizRepo.Delete(ctx, tx, quizID); err != nil {
			return fmt.Errorf("delete quiz: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("Quiz deleted", "quiz_id", quizID, "user_id", rd.UserID)
	return nil
}

// SubmitAttempt grades one attempt. The quiz row is locked so concurrent
// submissions get distinct attempt numbers and respect maxAttempts.
func (s *quizService) SubmitAttempt(ctx context.Context, quizID uuid.UUID, in SubmitAttemptInput) (*types.QuizAttempt, error) {
	ctx, span := observability.StartSpan(ctx, "QuizService.SubmitAttempt", attribute.String("quiz.id", quizID.String()))
	defer span.End()

	rd, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var out *types.QuizAttempt
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quiz, err := s.quizRepo.GetByIDForUpdate(ctx, tx, quizID)
		if err != nil {
			return fmt.Errorf("load quiz: %w", err)
		}
		if quiz == nil {
			return apierr.NotFound("quiz_not_found", "Quiz not found")
		}
		enrolled, err := s.enrollments.IsEnrolled(ctx, tx, rd.UserID, quiz.CourseID)
		if err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if !enrolled {
			return apierr.Forbidden("not_enrolled", "You must be enrolled in this course to take the quiz")
		}
		prior, err := s.attemptRepo.CountByQuizStudent(ctx, tx, quizID, rd.UserID)
		if err != nil {
			return fmt.Errorf("count attempts: %w", err)
		}
		if quiz.MaxAttempts > 0 && prior >= int64(quiz.MaxAttempts) {
			return apierr.BadRequest("max_attempts_reached", "Maximum attempts reached")
		}

		answers, err := quiz.Grade(in.Answers)
		if err != nil {
			return apierr.BadRequest("invalid_answer", err.Error())
		}

		startedAt := now
		if in.StartedAt != nil && !in.StartedAt.IsZero() && !in.StartedAt.After(now) {
			startedAt = in.StartedAt.UTC()
		}
		attempt := &types.QuizAttempt{
			QuizID:        quiz.ID,
			CourseID:      quiz.CourseID,
			StudentID:     rd.UserID,
			Answers:       answers,
			MaxPoints:     quiz.TotalPoints,
			AttemptNumber: int(prior) + 1,
			StartedAt:     startedAt,
			SubmittedAt:   now,
		}
		attempt.RecomputeScore()
		attempt.IsPassed = types.Passed(attempt.Percentage, quiz.PassingScore)

		created, err := s.attemptRepo.Create(ctx, tx, attempt)
		if err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Quiz attempt submitted",
		"quiz_id", quizID,
		"user_id", rd.UserID,
		"attempt", out.AttemptNumber,
		"percentage", out.Percentage,
		"passed", out.IsPassed,
	)
	s.events.Publish(ctx, realtime.Event{
		Type:     realtime.EventQuizAttempted,
		UserID:   rd.UserID,
		CourseID: out.CourseID,
		Data: map[string]any{
			"quizId":     quizID,
			"attemptId":  out.ID,
			"percentage": out.Percentage,
			"isPassed":   out.IsPassed,
		},
	})
	return out, nil
}

func (s *quizService) ListMyAttempts(ctx context.Context, quizID uuid.UUID) ([]*types.QuizAttempt, error) {
	rd, err := requireStudent(ctx)
	if err != nil {
		return nil, err
	}
	quiz, err := s.quizRepo.GetByID(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	if quiz == nil {
		return nil, apierr.NotFound("quiz_not_found", "Quiz not found")
	}
	attempts, err := s.attemptRepo.ListByQuizStudent(ctx, nil, quizID, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

func prepareQuestion(q types.Question) (types.Question, error) {
	q.Text = strings.TrimSpace(q.Text)
	q.Explanation = strings.TrimSpace(q.Explanation)
	opts := make([]types.Option, len(q.Options))
	for i, o := range q.Options {
		opts[i] = types.Option{Text: strings.TrimSpace(o.Text), IsCorrect: o.IsCorrect}
	}
	q.Options = opts
	if q.Points == 0 {
		q.Points = 1
	}
	if err := q.Validate(); err != nil {
		return q, err
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return q, nil
}

func questionValidation(err error) error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apierr.Validation([]apierr.FieldError{{Field: "question", Message: err.Error()}})
}
