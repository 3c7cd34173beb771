package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/ctxutil"
	"github.com/yungbote/lms-backend/internal/platform/logger"
	"github.com/yungbote/lms-backend/internal/services"
)

type fakeAuth struct {
	services.AuthService
	tokens map[string]*ctxutil.RequestData
	seen   string
}

func (f *fakeAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	f.seen = token
	rd, ok := f.tokens[token]
	if !ok {
		return nil, apierr.Unauthorized("invalid_token", "Invalid token")
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (f *fakeAuth) AccessTTL() time.Duration { return time.Hour }

func newAuthRouter(t *testing.T, roles ...string) (*gin.Engine, *fakeAuth) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fa := &fakeAuth{tokens: map[string]*ctxutil.RequestData{
		"student-token":    {UserID: uuid.New(), Role: types.RoleStudent},
		"instructor-token": {UserID: uuid.New(), Role: types.RoleInstructor},
	}}
	am := NewAuthMiddleware(logger.NewNop(), fa)
	r := gin.New()
	chain := []gin.HandlerFunc{am.RequireAuth()}
	if len(roles) > 0 {
		chain = append(chain, am.RequireRole(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, rd.Role)
	})
	r.GET("/p", chain...)
	return r, fa
}

func TestRequireAuthTokenSources(t *testing.T) {
	r, fa := newAuthRouter(t)
	cases := []struct {
		name  string
		setup func(req *http.Request)
	}{
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer student-token") }},
		{"cookie", func(req *http.Request) { req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "student-token"}) }},
		{"query", func(req *http.Request) { req.URL.RawQuery = "token=student-token" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK || rec.Body.String() != types.RoleStudent {
				t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
			}
			if fa.seen != "student-token" {
				t.Fatalf("token: got=%q", fa.seen)
			}
		})
	}
}

func TestRequireAuthRejects(t *testing.T) {
	r, _ := newAuthRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/p", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: want=401 got=%d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: want=401 got=%d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	r, _ := newAuthRouter(t, types.RoleInstructor)

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer student-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student: want=403 got=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer instructor-token")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("instructor: want=200 got=%d", rec.Code)
	}
}

func TestAttachTraceContextEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/t", func(c *gin.Context) {
		td := ctxutil.GetTraceData(c.Request.Context())
		c.String(http.StatusOK, td.RequestID)
	})
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Body.String() != "req-123" || rec.Header().Get("X-Request-Id") != "req-123" {
		t.Fatalf("request id not propagated: body=%q header=%q", rec.Body.String(), rec.Header().Get("X-Request-Id"))
	}
	if rec.Header().Get("X-Trace-Id") == "" {
		t.Fatalf("expected generated trace id")
	}
}
