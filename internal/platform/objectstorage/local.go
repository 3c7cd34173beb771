package objectstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/lms-backend/internal/platform/logger"
)

// LocalPublicPrefix is the URL prefix the router serves public categories under.
const LocalPublicPrefix = "/uploads"

type localBucketService struct {
	log           *logger.Logger
	root          string
	publicBaseURL string
}

// NewLocalBucketService keeps objects under root/<category>/<key>.
func NewLocalBucketService(log *logger.Logger, root, publicBaseURL string) (BucketService, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingLocalDir, Mode: string(ObjectStorageModeLocal)}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve local storage dir: %w", err)
	}
	for _, c := range []BucketCategory{BucketCategoryVideo, BucketCategoryThumbnail, BucketCategoryAvatar} {
		if err := os.MkdirAll(filepath.Join(abs, string(c)), 0o755); err != nil {
			return nil, fmt.Errorf("create local storage dir: %w", err)
		}
	}
	serviceLog := log.With("service", "LocalBucketService")
	serviceLog.Info("Object storage initialized", "mode", ObjectStorageModeLocal, "root", abs)
	return &localBucketService{
		log:           serviceLog,
		root:          abs,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}, nil
}

// LocalCategoryDir is the directory backing a category for a given root.
func LocalCategoryDir(root string, category BucketCategory) string {
	return filepath.Join(root, string(category))
}

func (s *localBucketService) pathFor(category BucketCategory, key string) (string, error) {
	switch category {
	case BucketCategoryVideo, BucketCategoryThumbnail, BucketCategoryAvatar:
	default:
		return "", fmt.Errorf("unknown bucket category: %s", category)
	}
	if !validKey(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, string(category), filepath.FromSlash(key)), nil
}

// UploadFile writes through a temp file and renames it into place, so a
// failed copy never leaves a partial object behind.
func (s *localBucketService) UploadFile(ctx context.Context, category BucketCategory, key string, file io.Reader) error {
	p, err := s.pathFor(category, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: file}); err != nil {
		cleanup()
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit object: %w", err)
	}
	return nil
}

func (s *localBucketService) DeleteFile(ctx context.Context, category BucketCategory, key string) error {
	p, err := s.pathFor(category, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (s *localBucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	return s.OpenRangeReader(ctx, category, key, 0, -1)
}

func (s *localBucketService) OpenRangeReader(ctx context.Context, category BucketCategory, key string, offset, length int64) (io.ReadCloser, error) {
	p, err := s.pathFor(category, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("seek object: %w", err)
		}
	}
	if length < 0 {
		return f, nil
	}
	return &limitedFile{Reader: io.LimitReader(f, length), f: f}, nil
}

func (s *localBucketService) GetObjectAttrs(ctx context.Context, category BucketCategory, key string) (*ObjectAttrs, error) {
	p, err := s.pathFor(category, key)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return &ObjectAttrs{
		Size:        info.Size(),
		ContentType: contentTypeForKey(key),
		Updated:     info.ModTime().UTC(),
		ETag:        fmt.Sprintf("%x-%x", info.ModTime().UnixNano(), info.Size()),
	}, nil
}

func (s *localBucketService) GetPublicURL(category BucketCategory, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return fmt.Sprintf("%s%s/%s/%s", s.publicBaseURL, LocalPublicPrefix, category, strings.Join(escaped, "/"))
}

type limitedFile struct {
	io.Reader
	f *os.File
}

func (l *limitedFile) Close() error { return l.f.Close() }

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
