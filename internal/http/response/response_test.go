package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/lms-backend/internal/platform/apierr"
)

func run(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return rec, body
}

func TestRespondOK(t *testing.T) {
	rec, body := run(t, func(c *gin.Context) { RespondOK(c, gin.H{"id": 1}) })
	if rec.Code != http.StatusOK || body["success"] != true || body["statusCode"] != float64(200) {
		t.Fatalf("unexpected envelope: code=%d body=%v", rec.Code, body)
	}
	if data, ok := body["data"].(map[string]any); !ok || data["id"] != float64(1) {
		t.Fatalf("data: got=%v", body["data"])
	}
}

func TestErrorMapsAPIError(t *testing.T) {
	err := fmt.Errorf("enroll: %w", apierr.Forbidden("not_student", "Only students can enroll"))
	rec, body := run(t, func(c *gin.Context) { Error(c, err) })
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: want=403 got=%d", rec.Code)
	}
	if body["message"] != "Only students can enroll" || body["code"] != "not_student" || body["success"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["errors"]; ok {
		t.Fatalf("errors should be omitted: %v", body)
	}
}

func TestErrorIncludesFieldErrors(t *testing.T) {
	err := apierr.Validation([]apierr.FieldError{{Field: "email", Message: "email is required"}})
	rec, body := run(t, func(c *gin.Context) { Error(c, err) })
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	fields, ok := body["errors"].([]any)
	if !ok || len(fields) != 1 {
		t.Fatalf("errors: got=%v", body["errors"])
	}
}

func TestErrorHidesInternalsInReleaseMode(t *testing.T) {
	rec, body := run(t, func(c *gin.Context) {
		gin.SetMode(gin.ReleaseMode)
		defer gin.SetMode(gin.TestMode)
		Error(c, errors.New("pq: connection refused"))
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", rec.Code)
	}
	if body["message"] != "Internal server error" {
		t.Fatalf("message leaked: %v", body["message"])
	}
}
