package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lms-backend/internal/data/repos"
	"github.com/yungbote/lms-backend/internal/http/response"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/services"
)

const maxThumbnailBytes = 5 << 20

type CourseHandler struct {
	log     *logger.Logger
	courses services.CourseService
}

func NewCourseHandler(log *logger.Logger, courses services.CourseService) *CourseHandler {
	return &CourseHandler{log: log.With("handler", "CourseHandler"), courses: courses}
}

// courseForm accepts either a JSON body or a multipart form with an optional
// "thumbnail" image part.
type courseForm struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price"`
	ThumbnailURL *string  `json:"thumbnailUrl"`
	thumbnail    []byte
}

func (h *CourseHandler) bindCourseForm(c *gin.Context) (*courseForm, bool) {
	form := &courseForm{}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return form, bindJSON(c, form, false)
	}
	if err := c.Request.ParseMultipartForm(maxThumbnailBytes * 2); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return nil, false
	}
	str := func(key string) *string {
		if vals, ok := c.Request.MultipartForm.Value[key]; ok && len(vals) > 0 {
			v := vals[0]
			return &v
		}
		return nil
	}
	form.Title = str("title")
	form.Description = str("description")
	form.ThumbnailURL = str("thumbnailUrl")
	if raw := str("price"); raw != nil && strings.TrimSpace(*raw) != "" {
		price, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_price", err)
			return nil, false
		}
		form.Price = &price
	}
	if fh, err := c.FormFile("thumbnail"); err == nil {
		data, err := readPart(fh, maxThumbnailBytes)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_thumbnail", err)
			return nil, false
		}
		form.thumbnail = data
	}
	return form, true
}

func readPart(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if fh.Size > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// POST /api/instructor/course
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	form, ok := h.bindCourseForm(c)
	if !ok {
		return
	}
	course, err := h.courses.CreateCourse(c.Request.Context(), services.CreateCourseInput{
		Title:          deref(form.Title),
		Description:    deref(form.Description),
		Price:          deref(form.Price),
		ThumbnailURL:   deref(form.ThumbnailURL),
		ThumbnailImage: form.thumbnail,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"course": course}, "Course created successfully")
}

// PUT /api/instructor/course/:courseId
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	form, ok := h.bindCourseForm(c)
	if !ok {
		return
	}
	course, err := h.courses.UpdateCourse(c.Request.Context(), courseID, services.UpdateCourseInput{
		Title:          form.Title,
		Description:    form.Description,
		Price:          form.Price,
		ThumbnailURL:   form.ThumbnailURL,
		ThumbnailImage: form.thumbnail,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Respond(c, http.StatusOK, gin.H{"course": course}, "Course updated successfully")
}

// GET /api/courses?search=&limit=&offset=
func (h *CourseHandler) ListCourses(c *gin.Context) {
	res, err := h.courses.ListCourses(c.Request.Context(), repos.CourseListFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  queryInt(c, "limit", 0),
		Offset: queryInt(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/course/:courseId
func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	course, err := h.courses.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// GET /api/instructor/courses
func (h *CourseHandler) ListInstructorCourses(c *gin.Context) {
	courses, err := h.courses.ListInstructorCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// DELETE /api/instructor/delete/course/:courseId
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	if err := h.courses.DeleteCourse(c.Request.Context(), courseID); err != nil {
		response.Error(c, err)
		return
	}
	response.Respond(c, http.StatusOK, gin.H{"courseId": courseID}, "Course deleted successfully")
}
