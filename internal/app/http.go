package app

import (
	"path"

	"gorm.io/gorm"

	apphttp "github.com/yungbote/lms-backend/internal/http"
	httpH "github.com/yungbote/lms-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lms-backend/internal/http/middleware"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/platform/objectstorage"
)

const serviceName = "lms-backend"

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	Course     *httpH.CourseHandler
	Lecture    *httpH.LectureHandler
	Enrollment *httpH.EnrollmentHandler
	Progress   *httpH.ProgressHandler
	Quiz       *httpH.QuizHandler
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, services.Auth)}
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Auth:       httpH.NewAuthHandler(log, services.Auth, cfg.CookieSecure),
		Course:     httpH.NewCourseHandler(log, services.Course),
		Lecture:    httpH.NewLectureHandler(log, services.Lecture),
		Enrollment: httpH.NewEnrollmentHandler(log, services.Enrollment),
		Progress:   httpH.NewProgressHandler(log, services.Completion, services.Progress),
		Quiz:       httpH.NewQuizHandler(log, services.Quiz),
	}
}

// staticDirs exposes thumbnails and avatars from local storage. Videos are
// only reachable through the authenticated stream route.
func staticDirs(cfg Config) map[string]string {
	storageCfg := storageConfig(cfg)
	if storageCfg.Mode != objectstorage.ObjectStorageModeLocal {
		return nil
	}
	out := map[string]string{}
	for _, c := range []objectstorage.BucketCategory{objectstorage.BucketCategoryThumbnail, objectstorage.BucketCategoryAvatar} {
		out[path.Join(objectstorage.LocalPublicPrefix, string(c))] = objectstorage.LocalCategoryDir(storageCfg.LocalDir, c)
	}
	return out
}

func wireServer(log *logger.Logger, cfg Config, m *observability.Metrics, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(log, apphttp.RouterConfig{
		Log:               log,
		Metrics:           m,
		ServiceName:       serviceName,
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		StaticDirs:        staticDirs(cfg),
		AuthMiddleware:    middleware.Auth,
		AuthHandler:       handlers.Auth,
		CourseHandler:     handlers.Course,
		LectureHandler:    handlers.Lecture,
		EnrollmentHandler: handlers.Enrollment,
		ProgressHandler:   handlers.Progress,
		QuizHandler:       handlers.Quiz,
		HealthHandler:     handlers.Health,
	})
}
