package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/platform/objectstorage"
	"github.com/yungbote/lms-backend/internal/realtime/bus"
	"github.com/yungbote/lms-backend/internal/services"
)

type Services struct {
	Events     services.EventService
	Avatar     services.AvatarService
	Thumbnail  services.ThumbnailService
	Auth       services.AuthService
	Progress   services.ProgressService
	Enrollment services.EnrollmentService
	Completion services.CompletionService
	Course     services.CourseService
	Lecture    services.LectureService
	Quiz       services.QuizService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, bucket objectstorage.BucketService, eventBus bus.Bus) (Services, error) {
	log.Info("Wiring services...")

	events := services.NewEventService(log, eventBus)
	thumbnails := services.NewThumbnailService(log, bucket, cfg.DefaultThumbnailURL)
	views := services.NewCourseViewer(thumbnails)

	avatars, err := services.NewAvatarService(db, log, r.User, bucket, services.AvatarConfig{
		FontPath:       cfg.AvatarFont,
		ColorsJSONPath: cfg.AvatarColorsPath,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init avatar service: %w", err)
	}
	auth, err := services.NewAuthService(db, log, r.User, avatars, services.AuthConfig{
		JWTSecret:  cfg.JWTSecretKey,
		AccessTTL:  cfg.AccessTokenTTL,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	progress := services.NewProgressService(db, log, r.Course, r.Lecture, r.Enrollment, r.Completion, events)
	enrollments := services.NewEnrollmentService(db, log, r.Course, r.Enrollment, progress, views, events)

	return Services{
		Events:     events,
		Avatar:     avatars,
		Thumbnail:  thumbnails,
		Auth:       auth,
		Progress:   progress,
		Enrollment: enrollments,
		Completion: services.NewCompletionService(db, log, r.Lecture, r.Completion, progress, events),
		Course: services.NewCourseService(
			db, log, r.Course, r.Lecture, r.Enrollment, r.Completion, r.Quiz, r.Attempt,
			bucket, thumbnails, views, events,
		),
		Lecture: services.NewLectureService(db, log, r.Course, r.Lecture, r.Completion, progress, bucket, cfg.MaxVideoUploadBytes),
		Quiz:    services.NewQuizService(db, log, r.Course, r.Quiz, r.Attempt, enrollments, events),
	}, nil
}
