package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/services"
)

type ProgressHandler struct {
	log         *logger.Logger
	completions services.CompletionService
	progress    services.ProgressService
}

func NewProgressHandler(log *logger.Logger, completions services.CompletionService, progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{log: log.With("handler", "ProgressHandler"), completions: completions, progress: progress}
}

// POST /api/lecture/:lectureId/complete
func (h *ProgressHandler) MarkComplete(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lectureId")
	if !ok {
		return
	}
	var req struct {
		WatchTime int64 `json:"watchTime"`
	}
	if !bindJSON(c, &req, true) {
		return
	}
	res, err := h.completions.MarkComplete(c.Request.Context(), lectureID, req.WatchTime)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, res)
}

// DELETE /api/lecture/:lectureId/complete
func (h *ProgressHandler) UnmarkComplete(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lectureId")
	if !ok {
		return
	}
	res, err := h.completions.UnmarkComplete(c.Request.Context(), lectureID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/course/:courseId/progress
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	progress, err := h.progress.GetMyProgress(ctx, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	completed, err := h.completions.ListCompletedLectureIDs(ctx, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": progress, "completedLectures": completed})
}

// POST /api/course/:courseId/progress/reconcile
func (h *ProgressHandler) Reconcile(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	enrollment, err := h.progress.ReconcileMine(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollment": enrollment})
}
