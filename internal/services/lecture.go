package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/platform/objectstorage"
)

// sniffLen covers the container headers mimetype needs for video formats.
const sniffLen = 3072

type UploadLectureInput struct {
	Title        string
	Description  string
	OriginalName string
	Size         int64
	File         io.Reader
}

type LectureService interface {
	UploadLecture(ctx context.Context, courseID uuid.UUID, in UploadLectureInput) (*types.Lecture, error)
	ListLectures(ctx context.Context, courseID uuid.UUID) ([]*types.Lecture, error)
	GetLecture(ctx context.Context, lectureID uuid.UUID) (*types.Lecture, error)
	DeleteLecture(ctx context.Context, lectureID uuid.UUID) error
	OpenStream(ctx context.Context, lectureID uuid.UUID, rangeHeader string) (*LectureStream, error)
}

type lectureService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	lectureRepo    repos.LectureRepo
	completionRepo repos.LectureCompletionRepo
	progress       ProgressService
	bucketService  objectstorage.BucketService
	maxUploadBytes int64
}

func NewLectureService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	lectureRepo repos.LectureRepo,
	completionRepo repos.LectureCompletionRepo,
	progress ProgressService,
	bucketService objectstorage.BucketService,
	maxUploadBytes int64,
) LectureService {
	return &lectureService{
		db:             db,
		log:            log.With("service", "LectureService"),
		courseRepo:     courseRepo,
		lectureRepo:    lectureRepo,
		completionRepo: completionRepo,
		progress:       progress,
		bucketService:  bucketService,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadLecture writes the video object first and the row second. If the
// row cannot be written the object is removed again.
func (s *lectureService) UploadLecture(ctx context.Context, courseID uuid.UUID, in UploadLectureInput) (*types.Lecture, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apierr.Validation([]apierr.FieldError{{Field: "title", Message: "title is required"}})
	}
	if in.File == nil {
		return nil, apierr.Validation([]apierr.FieldError{{Field: "video", Message: "video file is required"}})
	}
	if s.maxUploadBytes > 0 && in.Size > s.maxUploadBytes {
		return nil, apierr.New(413, "video_too_large", fmt.Errorf("video exceeds %d bytes", s.maxUploadBytes))
	}
	if _, err := loadOwnedCourse(ctx, s.courseRepo, nil, rd.UserID, courseID); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.File, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, apierr.Validation([]apierr.FieldError{{Field: "video", Message: "video file is empty"}})
	}
	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "video/") {
		return nil, apierr.BadRequest("invalid_video_type", "Only video files are allowed")
	}

	lectureID := uuid.New()
	key := fmt.Sprintf("lectures/%s/%s%s", courseID, lectureID, mt.Extension())
	counter := &countingReader{r: io.MultiReader(bytes.NewReader(head), in.File)}
	var body io.Reader = counter
	if s.maxUploadBytes > 0 {
		body = io.LimitReader(counter, s.maxUploadBytes+1)
	}
	if err := s.bucketService.UploadFile(ctx, objectstorage.BucketCategoryVideo, key, body); err != nil {
		s.removeVideo(ctx, key)
		return nil, fmt.Errorf("upload video: %w", err)
	}
	if s.maxUploadBytes > 0 && counter.n > s.maxUploadBytes {
		s.removeVideo(ctx, key)
		return nil, apierr.New(413, "video_too_large", fmt.Errorf("video exceeds %d bytes", s.maxUploadBytes))
	}

	lecture := &types.Lecture{
		ID:          lectureID,
		Title:       title,
		LectureType: types.LectureTypeVideo,
		Description: strings.TrimSpace(in.Description),
		CourseID:    courseID,
		Creator:     rd.UserID,
		Data: types.VideoData{
			Path:         key,
			OriginalName: sanitizeFilename(in.OriginalName),
			Mimetype:     mt.String(),
			Size:         counter.n,
			UploadDate:   time.Now().UTC(),
		},
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos, err := s.lectureRepo.NextPosition(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("next position: %w", err)
		}
		lecture.Position = pos
		if _, err := s.lectureRepo.Create(ctx, tx, []*types.Lecture{lecture}); err != nil {
			return fmt.Errorf("create lecture: %w", err)
		}
		return s.progress.ReconcileCourse(ctx, tx, courseID)
	})
	if err != nil {
		s.removeVideo(ctx, key)
		return nil, err
	}

	s.log.Info("Lecture uploaded", "lecture_id", lecture.ID, "course_id", courseID, "bytes", counter.n, "mimetype", mt.String())
	return lecture, nil
}

func (s *lectureService) ListLectures(ctx context.Context, courseID uuid.UUID) ([]*types.Lecture, error) {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, apierr.NotFound("course_not_found", "Course not found")
	}
	lectures, err := s.lectureRepo.ListByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}
	return lectures, nil
}

func (s *lectureService) GetLecture(ctx context.Context, lectureID uuid.UUID) (*types.Lecture, error) {
	lecture, err := s.lectureRepo.GetByID(ctx, nil, lectureID)
	if err != nil {
		return nil, fmt.Errorf("load lecture: %w", err)
	}
	if lecture == nil {
		return nil, apierr.NotFound("lecture_not_found", "Lecture not found")
	}
	return lecture, nil
}

func (s *lectureService) DeleteLecture(ctx context.Context, lectureID uuid.UUID) error {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return err
	}
	var key string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lecture, err := s.lectureRepo.GetByID(ctx, tx, lectureID)
		if err != nil {
			return fmt.Errorf("load lecture: %w", err)
		}
		if lecture == nil {
			return apierr.NotFound("lecture_not_found", "Lecture not found")
		}
		if _, err := loadOwnedCourse(ctx, s.courseRepo, tx, rd.UserID, lecture.CourseID); err != nil {
			return err
		}
		key = lecture.Data.Path
		if _, err := s.completionRepo.DeleteByLecture(ctx, tx, lectureID); err != nil {
			return fmt.Errorf("delete lecture completions: %w", err)
		}
		if _, err := s.lectureRepo.Delete(ctx, tx, lectureID); err != nil {
			return fmt.Errorf("delete lecture: %w", err)
		}
		return s.progress.ReconcileCourse(ctx, tx, lecture.CourseID)
	})
	if err != nil {
		return err
	}
	s.removeVideo(ctx, key)
	s.log.Info("Lecture deleted", "lecture_id", lectureID, "user_id", rd.UserID)
	return nil
}

func (s *lectureService) removeVideo(ctx context.Context, key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	if err := s.bucketService.DeleteFile(context.WithoutCancel(ctx), objectstorage.BucketCategoryVideo, key); err != nil && !errors.Is(err, objectstorage.ErrObjectNotFound) {
		s.log.Warn("Failed to delete lecture video (ignored)", "key", key, "error", err)
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" {
		return ""
	}
	base = strings.ReplaceAll(base, "\"", "")
	base = strings.ReplaceAll(base, "\\", "")
	return strings.TrimSpace(base)
}
