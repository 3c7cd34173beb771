package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/objectstorage"
)

// LectureStream is an open video body. Partial streams carry the served range.
type LectureStream struct {
	Body          io.ReadCloser
	Size          int64
	Start         int64
	End           int64
	Partial       bool
	ContentType   string
	Filename      string
	ContentLength int64
}

func (s *LectureStream) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", s.Start, s.End, s.Size)
}

// RangeNotSatisfiableError carries the object size for the 416 response.
type RangeNotSatisfiableError struct {
	Size  int64
	Cause error
}

func (e *RangeNotSatisfiableError) Error() string {
	return fmt.Sprintf("range not satisfiable: %v", e.Cause)
}

func (e *RangeNotSatisfiableError) Unwrap() error { return e.Cause }

func (s *lectureService) OpenStream(ctx context.Context, lectureID uuid.UUID, rangeHeader string) (*LectureStream, error) {
	if _, err := currentUser(ctx); err != nil {
		return nil, err
	}
	lecture, err := s.GetLecture(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	key := strings.TrimSpace(lecture.Data.Path)
	if key == "" {
		return nil, apierr.NotFound("video_not_found", "Video not found")
	}

	attrs, err := s.bucketService.GetObjectAttrs(ctx, objectstorage.BucketCategoryVideo, key)
	if err != nil {
		if errors.Is(err, objectstorage.ErrObjectNotFound) {
			return nil, apierr.NotFound("video_not_found", "Video not found")
		}
		return nil, fmt.Errorf("stat video: %w", err)
	}

	out := &LectureStream{
		Size:        attrs.Size,
		ContentType: resolveContentType(lecture.Data.Mimetype, attrs.ContentType, lecture.Data.OriginalName, key),
		Filename:    lecture.Data.OriginalName,
	}

	if strings.TrimSpace(rangeHeader) != "" && attrs.Size > 0 {
		rng, ok, rErr := parseByteRangeHeader(rangeHeader, attrs.Size)
		if rErr != nil {
			return nil, &RangeNotSatisfiableError{Size: attrs.Size, Cause: rErr}
		}
		if ok {
			body, err := s.bucketService.OpenRangeReader(ctx, objectstorage.BucketCategoryVideo, key, rng.start, rng.end-rng.start+1)
			if err != nil {
				return nil, fmt.Errorf("open video range: %w", err)
			}
			out.Body = body
			out.Partial = true
			out.Start, out.End = rng.start, rng.end
			out.ContentLength = rng.end - rng.start + 1
			return out, nil
		}
	}

	body, err := s.bucketService.DownloadFile(ctx, objectstorage.BucketCategoryVideo, key)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	out.Body = body
	out.ContentLength = attrs.Size
	if out.ContentLength <= 0 {
		out.ContentLength = -1
	}
	return out, nil
}

type byteRange struct {
	start int64
	end   int64
}

// parseByteRangeHeader supports a single "bytes=" range, including suffix
// ranges. ok is false when no range was requested.
func parseByteRangeHeader(rangeHeader string, size int64) (byteRange, bool, error) {
	rh := strings.TrimSpace(rangeHeader)
	if rh == "" {
		return byteRange{}, false, nil
	}
	if size <= 0 {
		return byteRange{}, false, fmt.Errorf("unknown object size")
	}
	if !strings.HasPrefix(rh, "bytes=") {
		return byteRange{}, false, fmt.Errorf("unsupported range unit")
	}
	parts := strings.Split(strings.TrimPrefix(rh, "bytes="), ",")
	if len(parts) != 1 {
		return byteRange{}, false, fmt.Errorf("multiple ranges not supported")
	}
	part := strings.TrimSpace(parts[0])
	if part == "" {
		return byteRange{}, false, fmt.Errorf("empty range")
	}
	if strings.HasPrefix(part, "-") {
		n, err := strconv.ParseInt(strings.TrimPrefix(part, "-"), 10, 64)
		if err != nil || n <= 0 {
			return byteRange{}, false, fmt.Errorf("invalid suffix range")
		}
		if n > size {
			n = size
		}
		return byteRange{start: size - n, end: size - 1}, true, nil
	}

	bounds := strings.SplitN(part, "-", 2)
	if len(bounds) != 2 {
		return byteRange{}, false, fmt.Errorf("invalid range format")
	}
	start, err := strconv.ParseInt(bounds[0], 10, 64)
	if err != nil || start < 0 {
		return byteRange{}, false, fmt.Errorf("invalid range start")
	}
	end := size - 1
	if bounds[1] != "" {
		end, err = strconv.ParseInt(bounds[1], 10, 64)
		if err != nil || end < 0 {
			return byteRange{}, false, fmt.Errorf("invalid range end")
		}
	}
	if start >= size || end < start {
		return byteRange{}, false, fmt.Errorf("range out of bounds")
	}
	if end >= size {
		end = size - 1
	}
	return byteRange{start: start, end: end}, true, nil
}

func resolveContentType(primary, bucketType, filename, storageKey string) string {
	for _, v := range []string{
		strings.TrimSpace(primary),
		strings.TrimSpace(bucketType),
		strings.TrimSpace(mime.TypeByExtension(filepath.Ext(filename))),
		strings.TrimSpace(mime.TypeByExtension(filepath.Ext(storageKey))),
	} {
		if v != "" {
			return v
		}
	}
	return "application/octet-stream"
}
