package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/ctxutil"
)

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	user, err := h.auth.Register(ctx, RegisterInput{
		Fullname: "Grace Hopper",
		Email:    " Grace@Example.com ",
		Username: "GHopper",
		Password: "s3cret-pw",
		Role:     "instructor",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "grace@example.com" || user.Username != "ghopper" || user.Role != types.RoleInstructor {
		t.Fatalf("Register: unexpected user %+v", user)
	}
	if user.PasswordHash == "" || user.PasswordHash == "s3cret-pw" {
		t.Fatalf("Register: password not hashed")
	}
	if user.AvatarURL == "" {
		t.Fatalf("Register: avatar not generated")
	}

	for _, ident := range []string{"grace@example.com", "GHOPPER"} {
		res, err := h.auth.Login(ctx, LoginInput{Identifier: ident, Password: "s3cret-pw"})
		if err != nil {
			t.Fatalf("Login(%s): %v", ident, err)
		}
		if res.Token == "" || res.User.ID != user.ID || !res.ExpiresAt.After(time.Now()) {
			t.Fatalf("Login(%s): unexpected %+v", ident, res)
		}

		authed, err := h.auth.SetContextFromToken(ctx, res.Token)
		if err != nil {
			t.Fatalf("SetContextFromToken: %v", err)
		}
		rd := ctxutil.GetRequestData(authed)
		if rd == nil || rd.UserID != user.ID || rd.Role != types.RoleInstructor {
			t.Fatalf("SetContextFromToken: unexpected %+v", rd)
		}
		me, err := h.auth.Me(authed)
		if err != nil || me.ID != user.ID {
			t.Fatalf("Me: user=%+v err=%v", me, err)
		}
	}

	if _, err := h.auth.Login(ctx, LoginInput{Identifier: "ghopper", Password: "wrong"}); apierr.StatusOf(err) != 401 {
		t.Fatalf("Login (wrong password): want 401, got %v", err)
	}
	if _, err := h.auth.Login(ctx, LoginInput{Identifier: "nobody", Password: "x"}); apierr.StatusOf(err) != 401 {
		t.Fatalf("Login (unknown user): want 401, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	valid := RegisterInput{Fullname: "Student One", Email: "one@example.com", Username: "one", Password: "password"}

	if _, err := h.auth.Register(ctx, valid); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		status int
	}{
		{"duplicate email", func(in *RegisterInput) { in.Username = "other" }, 409},
		{"duplicate username", func(in *RegisterInput) { in.Email = "other@example.com"; in.Username = "ONE" }, 409},
		{"bad email", func(in *RegisterInput) { in.Email = "nope"; in.Username = "fresh" }, 400},
		{"short password", func(in *RegisterInput) { in.Email = "x@example.com"; in.Username = "fresh"; in.Password = "123" }, 400},
		{"bad role", func(in *RegisterInput) { in.Email = "y@example.com"; in.Username = "fresh"; in.Role = "admin" }, 400},
	}
	for _, tc := range cases {
		in := valid
		tc.mutate(&in)
		_, err := h.auth.Register(ctx, in)
		if apierr.StatusOf(err) != tc.status {
			t.Fatalf("%s: want %d, got %v", tc.name, tc.status, err)
		}
	}
}

func TestSetContextFromTokenRejects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.student(t)

	if _, err := h.auth.SetContextFromToken(ctx, ""); apierr.StatusOf(err) != 401 {
		t.Fatalf("empty token: want 401, got %v", err)
	}
	if _, err := h.auth.SetContextFromToken(ctx, "not-a-jwt"); apierr.StatusOf(err) != 401 {
		t.Fatalf("garbage token: want 401, got %v", err)
	}

	sign := func(secret string, exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
			Role: types.RoleInstructor,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   user.ID.String(),
				ExpiresAt: jwt.NewNumericDate(exp),
			},
		})
		s, err := tok.SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("SignedString: %v", err)
		}
		return s
	}
	if _, err := h.auth.SetContextFromToken(ctx, sign("wrong-secret", time.Now().Add(time.Hour))); apierr.StatusOf(err) != 401 {
		t.Fatalf("wrong secret: want 401, got %v", err)
	}
	if _, err := h.auth.SetContextFromToken(ctx, sign("test-secret", time.Now().Add(-time.Hour))); apierr.StatusOf(err) != 401 {
		t.Fatalf("expired: want 401, got %v", err)
	}

	// The role comes from the stored user, not the claim.
	authed, err := h.auth.SetContextFromToken(ctx, sign("test-secret", time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if rd := ctxutil.GetRequestData(authed); rd.Role != types.RoleStudent {
		t.Fatalf("role from claim leaked: %+v", rd)
	}
}
