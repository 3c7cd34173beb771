package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/platform/apierr"
	"github.com/yungbote/lms-backend/internal/platform/ctxutil"
)

// currentUser returns the authenticated caller or a 401.
func currentUser(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthenticated", "Authentication required")
	}
	return rd, nil
}

// requireRole returns the caller if they hold role, a 403 otherwise.
func requireRole(ctx context.Context, role string) (*ctxutil.RequestData, error) {
	rd, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if rd.Role != role {
		return nil, apierr.Forbidden("role_forbidden", "Only "+role+"s can perform this action")
	}
	return rd, nil
}

func requireStudent(ctx context.Context) (*ctxutil.RequestData, error) {
	return requireRole(ctx, types.RoleStudent)
}

func requireInstructor(ctx context.Context) (*ctxutil.RequestData, error) {
	return requireRole(ctx, types.RoleInstructor)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
