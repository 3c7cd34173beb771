package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorsCarryStatusAndSentinel(t *testing.T) {
	cases := []struct {
		name     string
		err      *Error
		status   int
		sentinel error
		msg      string
	}{
		{"not found", NotFound("course_not_found", "Course not found"), http.StatusNotFound, ErrNotFound, "Course not found"},
		{"forbidden", Forbidden("not_student", "Only students can enroll"), http.StatusForbidden, ErrForbidden, "Only students can enroll"},
		{"bad request", BadRequest("already_enrolled", "Already enrolled"), http.StatusBadRequest, ErrInvalidArgument, "Already enrolled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Status != tc.status {
				t.Fatalf("status: want=%d got=%d", tc.status, tc.err.Status)
			}
			if !errors.Is(tc.err, tc.sentinel) {
				t.Fatalf("expected errors.Is(%v)", tc.sentinel)
			}
			if got := tc.err.Message(); got != tc.msg {
				t.Fatalf("message: want=%q got=%q", tc.msg, got)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("enroll: %w", Conflict("dup", "dup"))
	if got := StatusOf(wrapped); got != http.StatusConflict {
		t.Fatalf("wrapped: want=%d got=%d", http.StatusConflict, got)
	}
	if got := StatusOf(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("plain: want=500 got=%d", got)
	}
}
