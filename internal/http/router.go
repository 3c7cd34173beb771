package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/yungbote/lms-backend/internal/domain"
	httpH "github.com/yungbote/lms-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lms-backend/internal/http/middleware"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string
	// StaticDirs maps URL prefixes to directories served as-is (local
	// storage mode only).
	StaticDirs map[string]string

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler       *httpH.AuthHandler
	CourseHandler     *httpH.CourseHandler
	LectureHandler    *httpH.LectureHandler
	EnrollmentHandler *httpH.EnrollmentHandler
	ProgressHandler   *httpH.ProgressHandler
	QuizHandler       *httpH.QuizHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	for prefix, dir := range cfg.StaticDirs {
		r.Static(prefix, dir)
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Public
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
		if cfg.CourseHandler != nil {
			api.GET("/courses", cfg.CourseHandler.ListCourses)
			api.GET("/course/:courseId", cfg.CourseHandler.GetCourse)
		}
		if cfg.LectureHandler != nil {
			api.GET("/course/:courseId/lectures", cfg.LectureHandler.ListLectures)
		}
	}

	if cfg.AuthMiddleware == nil {
		return r
	}
	am := cfg.AuthMiddleware
	protected := api.Group("/", am.RequireAuth())
	student := protected.Group("/", am.RequireRole(types.RoleStudent))
	instructor := protected.Group("/instructor", am.RequireRole(types.RoleInstructor))

	if cfg.AuthHandler != nil {
		protected.POST("/logout", cfg.AuthHandler.Logout)
		protected.GET("/me", cfg.AuthHandler.Me)
	}

	// Enrollment
	if cfg.EnrollmentHandler != nil {
		student.POST("/course/enrollment/:courseId", cfg.EnrollmentHandler.Enroll)
		student.DELETE("/enrollment/:courseId", cfg.EnrollmentHandler.Unenroll)
		student.GET("/course/enrolled-courses", cfg.EnrollmentHandler.ListEnrolledCourses)
	}

	// Completion and progress
	if cfg.ProgressHandler != nil {
		student.POST("/lecture/:lectureId/complete", cfg.ProgressHandler.MarkComplete)
		student.DELETE("/lecture/:lectureId/complete", cfg.ProgressHandler.UnmarkComplete)
		student.GET("/course/:courseId/progress", cfg.ProgressHandler.GetProgress)
		student.POST("/course/:courseId/progress/reconcile", cfg.ProgressHandler.Reconcile)
	}

	// Courses and lectures (instructor)
	if cfg.CourseHandler != nil {
		instructor.POST("/course", cfg.CourseHandler.CreateCourse)
		instructor.PUT("/course/:courseId", cfg.CourseHandler.UpdateCourse)
		instructor.GET("/courses", cfg.CourseHandler.ListInstructorCourses)
		instructor.DELETE("/delete/course/:courseId", cfg.CourseHandler.DeleteCourse)
	}
	if cfg.LectureHandler != nil {
		instructor.POST("/course/:courseId/lecture", cfg.LectureHandler.UploadLecture)
		instructor.DELETE("/lecture/:lectureId", cfg.LectureHandler.DeleteLecture)
		protected.GET("/lectures/stream/:lectureId", cfg.LectureHandler.StreamLecture)
	}

	// Quizzes
	if cfg.QuizHandler != nil {
		instructor.POST("/course/:courseId/quiz", cfg.QuizHandler.CreateQuiz)
		instructor.POST("/quiz/:quizId/question", cfg.QuizHandler.AddQuestion)
		instructor.PUT("/quiz/:quizId/question/:questionId", cfg.QuizHandler.UpdateQuestion)
		instructor.DELETE("/quiz/:quizId/question/:questionId", cfg.QuizHandler.DeleteQuestion)
		instructor.DELETE("/quiz/:quizId", cfg.QuizHandler.DeleteQuiz)
		protected.GET("/course/:courseId/quizzes", cfg.QuizHandler.ListCourseQuizzes)
		protected.GET("/quiz/:quizId", cfg.QuizHandler.GetQuiz)
		student.POST("/quiz/:quizId/attempt", cfg.QuizHandler.SubmitAttempt)
		student.GET("/quiz/:quizId/attempts", cfg.QuizHandler.ListMyAttempts)
	}

	return r
}
