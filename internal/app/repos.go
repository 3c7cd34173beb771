package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type Repos struct {
	User       repos.UserRepo
	Course     repos.CourseRepo
	Lecture    repos.LectureRepo
	Enrollment repos.EnrollmentRepo
	Completion repos.LectureCompletionRepo
	Quiz       repos.QuizRepo
	Attempt    repos.QuizAttemptRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:       repos.NewUserRepo(db, log),
		Course:     repos.NewCourseRepo(db, log),
		Lecture:    repos.NewLectureRepo(db, log),
		Enrollment: repos.NewEnrollmentRepo(db, log),
		Completion: repos.NewLectureCompletionRepo(db, log),
		Quiz:       repos.NewQuizRepo(db, log),
		Attempt:    repos.NewQuizAttemptRepo(db, log),
	}
}
