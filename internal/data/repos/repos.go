package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos/course"
	"github.com/yungbote/lms-backend/internal/data/repos/enrollment"
	"github.com/yungbote/lms-backend/internal/data/repos/quiz"
	"github.com/yungbote/lms-backend/internal/data/repos/user"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type CourseRepo = course.CourseRepo
type CourseListFilter = course.ListFilter
type LectureRepo = course.LectureRepo

type EnrollmentRepo = enrollment.EnrollmentRepo
type LectureCompletionRepo = enrollment.LectureCompletionRepo

type QuizRepo = quiz.QuizRepo
type QuizAttemptRepo = quiz.QuizAttemptRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return course.NewCourseRepo(db, baseLog)
}
func NewLectureRepo(db *gorm.DB, baseLog *logger.Logger) LectureRepo {
	return course.NewLectureRepo(db, baseLog)
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return enrollment.NewEnrollmentRepo(db, baseLog)
}
func NewLectureCompletionRepo(db *gorm.DB, baseLog *logger.Logger) LectureCompletionRepo {
	return enrollment.NewLectureCompletionRepo(db, baseLog)
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo { return quiz.NewQuizRepo(db, baseLog) }
func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	return quiz.NewQuizAttemptRepo(db, baseLog)
}

func NormalizeEmail(email string) string { return user.NormalizeEmail(email) }
