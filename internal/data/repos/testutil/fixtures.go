package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/lms-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, role string) *types.User {
	tb.Helper()
	id := uuid.New()
	short := id.String()[:8]
	u := &types.User{
		ID:           id,
		Fullname:     "Test " + role,
		Email:        fmt.Sprintf("%s-%s@example.com", role, short),
		Username:     fmt.Sprintf("%s_%s", role, short),
		Role:         role,
		PasswordHash: "pw",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID uuid.UUID) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:          uuid.New(),
		Title:       "course",
		Description: "description",
		UserID:      instructorID,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedLecture(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, creator uuid.UUID, position int) *types.Lecture {
	tb.Helper()
	id := uuid.New()
	l := &types.Lecture{
		ID:          id,
		Title:       fmt.Sprintf("lecture %d", position),
		LectureType: types.LectureTypeVideo,
		CourseID:    courseID,
		Creator:     creator,
		Position:    position,
		Data: types.VideoData{
			Path:         fmt.Sprintf("lectures/%s/%s.mp4", courseID, id),
			OriginalName: "video.mp4",
			Mimetype:     "video/mp4",
			Size:         1024,
			UploadDate:   time.Now().UTC(),
		},
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lecture: %v", err)
	}
	return l
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{UserID: userID, CourseID: courseID}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedCompletion(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, lectureID, courseID uuid.UUID) *types.LectureCompletion {
	tb.Helper()
	c := &types.LectureCompletion{UserID: userID, LectureID: lectureID, CourseID: courseID, CompletedAt: time.Now().UTC()}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed completion: %v", err)
	}
	return c
}

// SeedQuiz creates a quiz with one single-answer question per points value.
func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, instructorID uuid.UUID, points ...int) *types.Quiz {
	tb.Helper()
	qs := make(datatypes.JSONSlice[types.Question], 0, len(points))
	for i, p := range points {
		qs = append(qs, types.Question{
			ID:      uuid.New(),
			Text:    fmt.Sprintf("question %d", i+1),
			Options: []types.Option{{Text: "right", IsCorrect: true}, {Text: "wrong"}},
			Points:  p,
		})
	}
	q := &types.Quiz{
		CourseID:     courseID,
		InstructorID: instructorID,
		Title:        "quiz",
		PassingScore: types.DefaultPassingScore,
		Questions:    qs,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	return q
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
