package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/platform/objectstorage"
)

const (
	thumbnailWidth  = 1280
	thumbnailHeight = 720
)

// ThumbnailService normalizes uploaded course thumbnails and resolves the
// stored value to a URL clients can load.
type ThumbnailService interface {
	Upload(ctx context.Context, courseID uuid.UUID, raw []byte) (string, error)
	Delete(ctx context.Context, key string) error
	URL(thumbnail string) string
}

type thumbnailService struct {
	log              *logger.Logger
	bucketService    objectstorage.BucketService
	defaultThumbnail string
}

func NewThumbnailService(log *logger.Logger, bucketService objectstorage.BucketService, defaultThumbnail string) ThumbnailService {
	if strings.TrimSpace(defaultThumbnail) == "" {
		defaultThumbnail = types.DefaultThumbnail
	}
	return &thumbnailService{
		log:              log.With("service", "ThumbnailService"),
		bucketService:    bucketService,
		defaultThumbnail: defaultThumbnail,
	}
}

// Upload stores a 1280x720 PNG and returns its object key.
func (s *thumbnailService) Upload(ctx context.Context, courseID uuid.UUID, raw []byte) (string, error) {
	if mt := mimetype.Detect(raw); !strings.HasPrefix(mt.String(), "image/") {
		return "", apierr.BadRequest("invalid_thumbnail", "Thumbnail must be an image")
	}
	processed, err := processThumbnail(raw)
	if err != nil {
		return "", apierr.BadRequest("invalid_thumbnail", "Thumbnail must be a valid image")
	}
	key := fmt.Sprintf("course_thumbnail/%s/%d.png", courseID.String(), time.Now().UnixNano())
	if err := s.bucketService.UploadFile(ctx, objectstorage.BucketCategoryThumbnail, key, bytes.NewReader(processed.Bytes())); err != nil {
		return "", fmt.Errorf("upload thumbnail: %w", err)
	}
	return key, nil
}

func (s *thumbnailService) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	return s.bucketService.DeleteFile(ctx, objectstorage.BucketCategoryThumbnail, key)
}

func (s *thumbnailService) URL(thumbnail string) string {
	t := strings.TrimSpace(thumbnail)
	switch {
	case t == "" || t == types.DefaultThumbnail:
		return s.defaultThumbnail
	case types.IsExternalURL(t):
		return t
	default:
		return s.bucketService.GetPublicURL(objectstorage.BucketCategoryThumbnail, t)
	}
}

func processThumbnail(raw []byte) (bytes.Buffer, error) {
	var out bytes.Buffer
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}
	dc := gg.NewContextForRGBA(fitImage(img, thumbnailWidth, thumbnailHeight))
	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}
