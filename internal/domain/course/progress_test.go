package course

import (
	"testing"
	"time"
)

func TestProgressPercentRoundsHalfUp(t *testing.T) {
	cases := []struct {
		completed, total int64
		want             int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{1, 8, 13},
		{1, 200, 1},
		{1, 201, 0},
		{5, 3, 100},
	}
	for _, tc := range cases {
		if got := ProgressPercent(tc.completed, tc.total); got != tc.want {
			t.Fatalf("ProgressPercent(%d,%d): want=%d got=%d", tc.completed, tc.total, tc.want, got)
		}
	}
}

func TestProgressApply(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e := &Enrollment{}

	NewProgress(3, 3).Apply(e, now)
	if e.Progress != 100 || !e.Completed || e.CompletedAt == nil || !e.CompletedAt.Equal(now) {
		t.Fatalf("complete: unexpected %+v", e)
	}

	later := now.Add(time.Hour)
	NewProgress(3, 3).Apply(e, later)
	if !e.CompletedAt.Equal(now) {
		t.Fatalf("completedAt should be preserved, got=%v", e.CompletedAt)
	}

	NewProgress(2, 3).Apply(e, later)
	if e.Progress != 67 || e.Completed || e.CompletedAt != nil {
		t.Fatalf("incomplete: unexpected %+v", e)
	}
}

func TestStoredThumbnailKey(t *testing.T) {
	cases := map[string]string{
		"":                               "",
		DefaultThumbnail:                 "",
		"https://cdn.example.com/x.png":  "",
		"//cdn.example.com/x.png":        "",
		"course/abc/thumbnail.png":       "course/abc/thumbnail.png",
	}
	for in, want := range cases {
		c := &Course{Thumbnail: in}
		if got := c.StoredThumbnailKey(); got != want {
			t.Fatalf("StoredThumbnailKey(%q): want=%q got=%q", in, want, got)
		}
	}
}
