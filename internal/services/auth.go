package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/ctxutil"
	"github.com/yungbote/lms-backend/internal/platform/logger"
)

type RegisterInput struct {
	Fullname string `json:"fullname" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,lmsrole"`
}

type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// AuthResult is returned by Login. The handler mirrors Token into the
// accessToken cookie.
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *types.User `json:"user"`
}

type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	BcryptCost int
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*types.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	avatarService AvatarService
	validate      *validator.Validate
	jwtSecretKey  []byte
	accessTTL     time.Duration
	bcryptCost    int
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	avatarService AvatarService,
	cfg AuthConfig,
) (AuthService, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		avatarService: avatarService,
		validate:      NewValidator(),
		jwtSecretKey:  []byte(cfg.JWTSecret),
		accessTTL:     cfg.AccessTTL,
		bcryptCost:    cfg.BcryptCost,
		now:           time.Now,
	}, nil
}

// NewValidator reports fields by their json names and knows the lmsrole tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("lmsrole", func(fl validator.FieldLevel) bool {
		r := fl.Field().String()
		return r == types.RoleStudent || r == types.RoleInstructor
	})
	return v
}

// ValidationError converts validator output to a 400 with per-field messages.
func ValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierr.BadRequest("invalid_request", err.Error())
	}
	fields := make([]apierr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierr.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return apierr.Validation(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "lmsrole":
		return "role must be student or instructor"
	default:
		return "is invalid"
	}
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	in.Fullname = strings.TrimSpace(in.Fullname)
	in.Email = repos.NormalizeEmail(in.Email)
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := as.validate.StructCtx(ctx, in); err != nil {
		return nil, ValidationError(err)
	}
	if in.Role == "" {
		in.Role = types.RoleStudent
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), as.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		ID:           uuid.New(),
		Fullname:     in.Fullname,
		Email:        in.Email,
		Username:     in.Username,
		Role:         in.Role,
		PasswordHash: string(hash),
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := as.userRepo.EmailExists(ctx, tx, in.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return apierr.Conflict("email_taken", "Email is already registered")
		}
		taken, err = as.userRepo.UsernameExists(ctx, tx, in.Username)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			return apierr.Conflict("username_taken", "Username is already taken")
		}
		if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
			if isDuplicate(err) {
				return apierr.Conflict("user_exists", "User already exists")
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if as.avatarService != nil {
		if err := as.avatarService.CreateAndUploadUserAvatar(ctx, nil, user); err != nil {
			as.log.Warn("Avatar generation failed (ignored)", "user_id", user.ID, "error", err)
		}
	}
	as.log.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (as *authService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := as.validate.StructCtx(ctx, in); err != nil {
		return nil, ValidationError(err)
	}
	ident := strings.TrimSpace(in.Identifier)

	var (
		user *types.User
		err  error
	)
	if strings.Contains(ident, "@") {
		user, err = as.userRepo.GetByEmail(ctx, nil, ident)
	} else {
		user, err = as.userRepo.GetByUsername(ctx, nil, ident)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apierr.Unauthorized("invalid_credentials", "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apierr.Unauthorized("invalid_credentials", "Invalid credentials")
	}

	token, expiresAt, err := as.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	as.log.Info("User logged in", "user_id", user.ID)
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout is stateless; the handler clears the cookie.
func (as *authService) Logout(ctx context.Context) error {
	rd, err := currentUser(ctx)
	if err != nil {
		return err
	}
	as.log.Info("User logged out", "user_id", rd.UserID)
	return nil
}

func (as *authService) Me(ctx context.Context) (*types.User, error) {
	rd, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	user, err := as.userRepo.GetByID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apierr.NotFound("user_not_found", "User not found")
	}
	return user, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, time.Time, error) {
	now := as.now()
	expiresAt := now.Add(as.accessTTL)
	claims := JWTClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.jwtSecretKey)
	return signed, expiresAt, err
}

// SetContextFromToken verifies the token and attaches the caller. The role is
// read from the user row so a stale claim cannot widen access.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing_token", "Authentication required")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		as.log.Debug("Token rejected", "error", err)
		return ctx, apierr.Unauthorized("invalid_token", "Invalid or expired token")
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Unauthorized("invalid_token", "Invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", "Invalid user id in token")
	}
	user, err := as.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return ctx, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return ctx, apierr.Unauthorized("invalid_token", "User no longer exists")
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      user.ID,
		Role:        user.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) AccessTTL() time.Duration {
	return as.accessTTL
}
