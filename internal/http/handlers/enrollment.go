package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/services"
)

type EnrollmentHandler struct {
	log         *logger.Logger
	enrollments services.EnrollmentService
}

func NewEnrollmentHandler(log *logger.Logger, enrollments services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{log: log.With("handler", "EnrollmentHandler"), enrollments: enrollments}
}

// POST /api/course/enrollment/:courseId
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"enrollment": enrollment}, "Enrolled successfully")
}

// DELETE /api/enrollment/:courseId
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	if err := h.enrollments.Unenroll(c.Request.Context(), courseID); err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courseId": courseID})
}

// GET /api/course/enrolled-courses
func (h *EnrollmentHandler) ListEnrolledCourses(c *gin.Context) {
	courses, err := h.enrollments.ListMyEnrollments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}
