package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/services"
)

type QuizHandler struct {
	log     *logger.Logger
	quizzes services.QuizService
}

func NewQuizHandler(log *logger.Logger, quizzes services.QuizService) *QuizHandler {
	return &QuizHandler{log: log.With("handler", "QuizHandler"), quizzes: quizzes}
}

// POST /api/instructor/course/:courseId/quiz
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	var req services.CreateQuizInput
	if !bindJSON(c, &req, false) {
		return
	}
	quiz, err := h.quizzes.CreateQuiz(c.Request.Context(), courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"quiz": quiz}, "Quiz created successfully")
}

// POST /api/instructor/quiz/:quizId/question
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	var q types.Question
	if !bindJSON(c, &q, false) {
		return
	}
	quiz, err := h.quizzes.AddQuestion(c.Request.Context(), quizID, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"quiz": quiz}, "Question added successfully")
}

// PUT /api/instructor/quiz/:quizId/question/:questionId
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	questionID, ok := uuidParam(c, "questionId")
	if !ok {
		return
	}
	var q types.Question
	if !bindJSON(c, &q, false) {
		return
	}
	quiz, err := h.quizzes.UpdateQuestion(c.Request.Context(), quizID, questionID, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Respond(c, http.StatusOK, gin.H{"quiz": quiz}, "Question updated successfully")
}

// DELETE /api/instructor/quiz/:quizId/question/:questionId
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	questionID, ok := uuidParam(c, "questionId")
	if !ok {
		return
	}
	quiz, err := h.quizzes.DeleteQuestion(c.Request.Context(), quizID, questionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Respond(c, http.StatusOK, gin.H{"quiz": quiz}, "Question deleted successfully")
}

// DELETE /api/instructor/quiz/:quizId
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	if err := h.quizzes.DeleteQuiz(c.Request.Context(), quizID); err != nil {
		response.Error(c, err)
		return
	}
	response.Respond(c, http.StatusOK, gin.H{"quizId": quizID}, "Quiz deleted successfully")
}

// GET /api/course/:courseId/quizzes
func (h *QuizHandler) ListCourseQuizzes(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	quizzes, err := h.quizzes.ListCourseQuizzes(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"quizzes": quizzes})
}

// GET /api/quiz/:quizId
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	quiz, err := h.quizzes.GetQuiz(c.Request.Context(), quizID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"quiz": quiz})
}

// POST /api/quiz/:quizId/attempt
func (h *QuizHandler) SubmitAttempt(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	var req services.SubmitAttemptInput
	if !bindJSON(c, &req, false) {
		return
	}
	attempt, err := h.quizzes.SubmitAttempt(c.Request.Context(), quizID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"attempt": attempt}, "Quiz submitted successfully")
}

// GET /api/quiz/:quizId/attempts
func (h *QuizHandler) ListMyAttempts(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	attempts, err := h.quizzes.ListMyAttempts(c.Request.Context(), quizID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attempts": attempts})
}
