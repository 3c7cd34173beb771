package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/objectstorage"
)

// mp4Bytes builds a minimal ISO BMFF header followed by padding.
func mp4Bytes(size int) []byte {
	head := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00, 'm', 'p', '4', '2', 'i', 's', 'o', 'm'}
	if size < len(head) {
		size = len(head)
	}
	out := make([]byte, size)
	copy(out, head)
	for i := len(head); i < size; i++ {
		out[i] = byte(i % 251)
	}
	return out
}

func TestUploadLecture(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	student := h.student(t)
	course, _ := h.courseWithLectures(t, owner, 1)
	ctx := asUser(owner)

	if _, err := h.enrollments.Enroll(asUser(student), course.ID); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	lectures, _ := h.lectures.ListLectures(ctx, course.ID)
	if _, err := h.completions.MarkComplete(asUser(student), lectures[0].ID, 0); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	if got := h.enrollment(t, student, course); !got.Completed {
		t.Fatalf("expected completed enrollment before upload, got %+v", got)
	}

	data := mp4Bytes(8192)
	lecture, err := h.lectures.UploadLecture(ctx, course.ID, UploadLectureInput{
		Title:        "Intro",
		OriginalName: "../intro.mp4",
		Size:         int64(len(data)),
		File:         bytes.NewReader(data),
	})
	if err != nil {
		t.Fatalf("UploadLecture: %v", err)
	}
	if lecture.Position != 2 || lecture.Data.Size != int64(len(data)) || lecture.Data.OriginalName != "intro.mp4" {
		t.Fatalf("UploadLecture: unexpected lecture %+v", lecture)
	}
	if !strings.HasPrefix(lecture.Data.Mimetype, "video/") || !strings.HasPrefix(lecture.Data.Path, "lectures/"+course.ID.String()+"/") {
		t.Fatalf("UploadLecture: unexpected video data %+v", lecture.Data)
	}
	attrs, err := h.bucket.GetObjectAttrs(context.Background(), objectstorage.BucketCategoryVideo, lecture.Data.Path)
	if err != nil || attrs.Size != int64(len(data)) {
		t.Fatalf("video object: attrs=%+v err=%v", attrs, err)
	}

	// A new lecture lowers progress for students already enrolled.
	got := h.enrollment(t, student, course)
	if got.Progress != 50 || got.Completed {
		t.Fatalf("progress after upload: want 50/incomplete, got %+v", got)
	}
}

func TestUploadLectureRejects(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	course, _ := h.courseWithLectures(t, owner, 0)
	ctx := asUser(owner)

	_, err := h.lectures.UploadLecture(ctx, course.ID, UploadLectureInput{
		Title: "text",
		File:  strings.NewReader("just some text, definitely not a video"),
	})
	if apierr.StatusOf(err) != 400 {
		t.Fatalf("UploadLecture (text): want 400, got %v", err)
	}

	big := mp4Bytes(2 << 20)
	_, err = h.lectures.UploadLecture(ctx, course.ID, UploadLectureInput{
		Title: "big",
		File:  bytes.NewReader(big),
	})
	if apierr.StatusOf(err) != 413 {
		t.Fatalf("UploadLecture (oversize): want 413, got %v", err)
	}
	if n, _ := h.lectureRepo.CountByCourse(context.Background(), nil, course.ID); n != 0 {
		t.Fatalf("rejected uploads left %d lectures", n)
	}

	other := h.instructor(t)
	_, err = h.lectures.UploadLecture(asUser(other), course.ID, UploadLectureInput{Title: "x", File: bytes.NewReader(mp4Bytes(64))})
	if apierr.StatusOf(err) != 403 {
		t.Fatalf("UploadLecture (not owner): want 403, got %v", err)
	}
}

func TestOpenStream(t *testing.T) {
	h := newHarness(t)
	owner := h.instructor(t)
	_, lectures := h.courseWithLectures(t, owner, 1)
	lecture := lectures[0]
	payload := []byte("0123456789")
	h.putObject(t, objectstorage.BucketCategoryVideo, lecture.Data.Path, payload)
	ctx := asUser(h.student(t))

	read := func(s *LectureStream) string {
		t.Helper()
		defer s.Body.Close()
		b, err := io.ReadAll(s.Body)
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		return string(b)
	}

	full, err := h.lectures.OpenStream(ctx, lecture.ID, "")
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	if full.Partial || full.ContentLength != 10 || full.ContentType != "video/mp4" || read(full) != "0123456789" {
		t.Fatalf("OpenStream (full): unexpected %+v", full)
	}

	part, err := h.lectures.OpenStream(ctx, lecture.ID, "bytes=2-5")
	if err != nil {
		t.Fatalf("OpenStream (range): %v", err)
	}
	if !part.Partial || part.ContentRange() != "bytes 2-5/10" || read(part) != "2345" {
		t.Fatalf("OpenStream (range): unexpected %+v", part)
	}

	_, err = h.lectures.OpenStream(ctx, lecture.ID, "bytes=20-")
	var rangeErr *RangeNotSatisfiableError
	if !errors.As(err, &rangeErr) || rangeErr.Size != 10 {
		t.Fatalf("OpenStream (unsatisfiable): got %v", err)
	}

	if _, err := h.lectures.OpenStream(context.Background(), lecture.ID, ""); apierr.StatusOf(err) != 401 {
		t.Fatalf("OpenStream (anonymous): want 401, got %v", err)
	}
}

func TestParseByteRangeHeader(t *testing.T) {
	cases := []struct {
		header     string
		start, end int64
		ok         bool
		wantErr    bool
	}{
		{header: "", ok: false},
		{header: "bytes=0-99", start: 0, end: 99, ok: true},
		{header: "bytes=100-", start: 100, end: 999, ok: true},
		{header: "bytes=-100", start: 900, end: 999, ok: true},
		{header: "bytes=-5000", start: 0, end: 999, ok: true},
		{header: "bytes=900-5000", start: 900, end: 999, ok: true},
		{header: "bytes=1000-", wantErr: true},
		{header: "bytes=5-1", wantErr: true},
		{header: "bytes=0-1,5-6", wantErr: true},
		{header: "items=0-1", wantErr: true},
		{header: "bytes=abc", wantErr: true},
	}
	for _, tc := range cases {
		rng, ok, err := parseByteRangeHeader(tc.header, 1000)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.header)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.header, err)
		}
		if ok != tc.ok || (ok && (rng.start != tc.start || rng.end != tc.end)) {
			t.Fatalf("%q: got %+v ok=%v", tc.header, rng, ok)
		}
	}
}
