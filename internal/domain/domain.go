package domain

import (
	"github.com/yungbote/lms-backend/internal/domain/course"
	"github.com/yungbote/lms-backend/internal/domain/quiz"
	"github.com/yungbote/lms-backend/internal/domain/user"
)

const (
	RoleStudent    = user.RoleStudent
	RoleInstructor = user.RoleInstructor

	LectureTypeVideo = course.LectureTypeVideo
	DefaultThumbnail = course.DefaultThumbnail

	DefaultPassingScore = quiz.DefaultPassingScore
)

type (
	User        = user.User
	UserSummary = user.Summary

	Course            = course.Course
	Lecture           = course.Lecture
	VideoData         = course.VideoData
	Enrollment        = course.Enrollment
	LectureCompletion = course.LectureCompletion
	Progress          = course.Progress

	Quiz        = quiz.Quiz
	Question    = quiz.Question
	Option      = quiz.Option
	QuizAttempt = quiz.QuizAttempt
	Answer      = quiz.Answer
	Submission  = quiz.Submission
)

// Models lists every persisted entity in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Lecture{},
		&Enrollment{},
		&LectureCompletion{},
		&Quiz{},
		&QuizAttempt{},
	}
}

var (
	NewProgress = course.NewProgress
	Passed      = quiz.Passed

	IsExternalURL = course.IsExternalURL
)
