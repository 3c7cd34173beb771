package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lms-backend/internal/data/repos"
	types "github.com/yungbote/lms-backend/internal/domain"
	"github.com/yungbote/lms-backend/internal/services"
)

const defaultPageSize = 100

type reconciler struct {
	db          *gorm.DB
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
	progress    services.ProgressService
	pageSize    int
}

// loadCourses resolves explicit ids, or pages through every course until
// limit (0 = no limit) is reached.
func (r *reconciler) loadCourses(ctx context.Context, ids []string, limit int) ([]*types.Course, error) {
	if len(ids) > 0 {
		parsed := make([]uuid.UUID, 0, len(ids))
		for _, s := range ids {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("invalid course id %q: %w", s, err)
			}
			parsed = append(parsed, id)
		}
		return r.courses.GetByIDs(ctx, nil, parsed)
	}

	page := r.pageSize
	if page <= 0 {
		page = defaultPageSize
	}
	var out []*types.Course
	for offset := 0; ; offset += page {
		batch, _, err := r.courses.List(ctx, nil, repos.CourseListFilter{Limit: page, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < page || (limit > 0 && len(out) >= limit) {
			break
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// countStale reports enrollments whose stored progress disagrees with their
// completion rows.
func (r *reconciler) countStale(ctx context.Context, courseID uuid.UUID) (int, error) {
	enrollments, err := r.enrollments.ListByCourse(ctx, nil, courseID)
	if err != nil {
		return 0, err
	}
	stale := 0
	for _, e := range enrollments {
		p, err := r.progress.Compute(ctx, nil, e.UserID, courseID)
		if err != nil {
			return 0, err
		}
		if p.ProgressPercentage != e.Progress || p.Completed != e.Completed {
			stale++
		}
	}
	return stale, nil
}

func (r *reconciler) reconcile(ctx context.Context, courseID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.progress.ReconcileCourse(ctx, tx, courseID)
	})
}
