package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	in := []interface{}{
		"password", "hunter2",
		"access_token", "abc",
		"email", "a@b.c",
		"course_id", "c-1",
	}
	out := sanitizeKVs(in)
	if len(out) != len(in) {
		t.Fatalf("len: want=%d got=%d", len(in), len(out))
	}
	for i := 0; i < 6; i += 2 {
		if out[i+1] != "[REDACTED]" {
			t.Fatalf("%v: want redacted got=%v", out[i], out[i+1])
		}
	}
	if out[7] != "c-1" {
		t.Fatalf("course_id: want passthrough got=%v", out[7])
	}
}

func TestSanitizeKVsHashesUserIDs(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", "7a1f"})
	got, ok := out[1].(string)
	if !ok || !strings.HasPrefix(got, "hash:") {
		t.Fatalf("user_id: want hashed value got=%v", out[1])
	}
	again := sanitizeKVs([]interface{}{"user_id", "7a1f"})
	if again[1] != got {
		t.Fatalf("hash not stable: %v vs %v", again[1], got)
	}
}

func TestSanitizeKVsRedactsJWTLookingStrings(t *testing.T) {
	jwtish := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NSJ9.sig"
	out := sanitizeKVs([]interface{}{"header", jwtish})
	if out[1] != "[REDACTED]" {
		t.Fatalf("want redacted got=%v", out[1])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"k", "v", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected: %v", out)
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production", "test"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.With("component", "test").Debug("hello")
	}
}
