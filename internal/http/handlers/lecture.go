package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/observability"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/services"
)

type LectureHandler struct {
	log      *logger.Logger
	lectures services.LectureService
}

func NewLectureHandler(log *logger.Logger, lectures services.LectureService) *LectureHandler {
	return &LectureHandler{log: log.With("handler", "LectureHandler"), lectures: lectures}
}

// POST /api/instructor/course/:courseId/lecture (multipart: video, title, description)
func (h *LectureHandler) UploadLecture(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	fh, err := c.FormFile("video")
	if err != nil {
		response.Error(c, apierr.BadRequest("missing_video", "Video file is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.log.Error("cannot open uploaded video", "error", err)
		response.RespondError(c, http.StatusBadRequest, "could_not_read_file", err)
		return
	}
	defer f.Close()

	lecture, err := h.lectures.UploadLecture(c.Request.Context(), courseID, services.UploadLectureInput{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		OriginalName: fh.Filename,
		Size:         fh.Size,
		File:         f,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	observability.Current().AddUploadBytes("video", fh.Size)
	response.RespondCreated(c, gin.H{"lecture": lecture}, "Lecture uploaded successfully")
}

// GET /api/course/:courseId/lectures
func (h *LectureHandler) ListLectures(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	lectures, err := h.lectures.ListLectures(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lectures": lectures})
}

// DELETE /api/instructor/lecture/:lectureId
func (h *LectureHandler) DeleteLecture(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lectureId")
	if !ok {
		return
	}
	if err := h.lectures.DeleteLecture(c.Request.Context(), lectureID); err != nil {
		response.Error(c, err)
		return
	}
	response.Respond(c, http.StatusOK, gin.H{"lectureId": lectureID}, "Lecture deleted successfully")
}

// GET /api/lectures/stream/:lectureId
func (h *LectureHandler) StreamLecture(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lectureId")
	if !ok {
		return
	}
	stream, err := h.lectures.OpenStream(c.Request.Context(), lectureID, c.GetHeader("Range"))
	if err != nil {
		var rangeErr *services.RangeNotSatisfiableError
		if errors.As(err, &rangeErr) {
			c.Header("Content-Range", fmt.Sprintf("bytes */%d", rangeErr.Size))
			response.RespondError(c, http.StatusRequestedRangeNotSatisfiable, "invalid_range", rangeErr.Cause)
			return
		}
		response.Error(c, err)
		return
	}
	defer stream.Body.Close()

	headers := map[string]string{
		"Accept-Ranges":       "bytes",
		"Content-Disposition": buildContentDisposition(stream.Filename, c.Query("download") != ""),
	}
	status := http.StatusOK
	if stream.Partial {
		status = http.StatusPartialContent
		headers["Content-Range"] = stream.ContentRange()
	}
	c.DataFromReader(status, stream.ContentLength, stream.ContentType, stream.Body, headers)
}

func buildContentDisposition(filename string, download bool) string {
	disposition := "inline"
	if download {
		disposition = "attachment"
	}
	name := strings.Map(func(r rune) rune {
		if r < 0x20 || r == '"' || r == '\\' || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(filename))
	if name == "" {
		return disposition
	}
	return fmt.Sprintf("%s; filename=\"%s\"", disposition, name)
}
