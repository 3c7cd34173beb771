package objectstorage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"
	"time"
)

type BucketCategory string

const (
	BucketCategoryVideo     BucketCategory = "video"
	BucketCategoryThumbnail BucketCategory = "thumbnail"
	BucketCategoryAvatar    BucketCategory = "avatar"
)

var ErrObjectNotFound = errors.New("object not found")

// BucketService stores lecture videos, course thumbnails and avatars.
type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error
	DeleteFile(ctx context.Context, category BucketCategory, key string) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	OpenRangeReader(ctx context.Context, category BucketCategory, key string, offset, length int64) (io.ReadCloser, error)
	GetObjectAttrs(ctx context.Context, category BucketCategory, key string) (*ObjectAttrs, error)
	GetPublicURL(category BucketCategory, key string) string
}

type ObjectAttrs struct {
	Size        int64
	ContentType string
	Updated     time.Time
	ETag        string
}

// The cancel func must outlive the returned reader, so it runs on Close.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch ext := path.Ext(s); ext {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mkv":
		return "video/x-matroska"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case "":
		return ""
	default:
		return mime.TypeByExtension(ext)
	}
}

func validKey(key string) bool {
	k := strings.TrimSpace(key)
	if k == "" || strings.HasPrefix(k, "/") {
		return false
	}
	for _, part := range strings.Split(k, "/") {
		if part == ".." || part == "." || part == "" {
			return false
		}
	}
	return true
}
