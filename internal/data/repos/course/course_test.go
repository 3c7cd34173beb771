package course

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/lms-backend/internal/data/repos/testutil"
	types "github.com/yungbote/lms-backend/internal/domain"
)

func TestCourseRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewCourseRepo(db, testutil.Logger(t))
	ctx := context.Background()

	inst := testutil.SeedUser(t, ctx, tx, types.RoleInstructor)
	created, err := repo.Create(ctx, tx, []*types.Course{
		{Title: "Go Basics", Description: "learn go", UserID: inst.ID},
		{Title: "Rust", Description: "systems", UserID: inst.ID, Thumbnail: "https://img.example.com/r.png"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created[0].Thumbnail != types.DefaultThumbnail {
		t.Fatalf("Create: expected default thumbnail, got %q", created[0].Thumbnail)
	}

	got, err := repo.GetByID(ctx, tx, created[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Instructor == nil || got.Instructor.ID != inst.ID {
		t.Fatalf("GetByID: expected instructor preload, got %+v", got)
	}

	list, total, err := repo.List(ctx, tx, ListFilter{Search: "GO"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != created[0].ID {
		t.Fatalf("List: unexpected result total=%d list=%+v", total, list)
	}

	mine, err := repo.ListByInstructor(ctx, tx, inst.ID)
	if err != nil || len(mine) != 2 {
		t.Fatalf("ListByInstructor: got=%d err=%v", len(mine), err)
	}

	if err := repo.UpdateFields(ctx, tx, created[0].ID, map[string]any{"title": "Go Advanced"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, _ = repo.GetByID(ctx, tx, created[0].ID)
	if got.Title != "Go Advanced" {
		t.Fatalf("UpdateFields: title not updated: %q", got.Title)
	}

	n, err := repo.Delete(ctx, tx, created[1].ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	gone, err := repo.GetByID(ctx, tx, created[1].ID)
	if err != nil || gone != nil {
		t.Fatalf("GetByID after delete: got=%v err=%v", gone, err)
	}
}

func TestCourseRepoEnrolledCounterFloor(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewCourseRepo(db, testutil.Logger(t))
	ctx := context.Background()

	inst := testutil.SeedUser(t, ctx, tx, types.RoleInstructor)
	c := testutil.SeedCourse(t, ctx, tx, inst.ID)

	if err := repo.IncrementEnrolled(ctx, tx, c.ID); err != nil {
		t.Fatalf("IncrementEnrolled: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := repo.DecrementEnrolled(ctx, tx, c.ID); err != nil {
			t.Fatalf("DecrementEnrolled: %v", err)
		}
	}
	got, _ := repo.GetByID(ctx, tx, c.ID)
	if got.EnrolledStudents != 0 {
		t.Fatalf("EnrolledStudents: want=0 got=%d", got.EnrolledStudents)
	}
}

func TestLectureRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewLectureRepo(db, testutil.Logger(t))
	ctx := context.Background()

	inst := testutil.SeedUser(t, ctx, tx, types.RoleInstructor)
	c := testutil.SeedCourse(t, ctx, tx, inst.ID)

	pos, err := repo.NextPosition(ctx, tx, c.ID)
	if err != nil || pos != 1 {
		t.Fatalf("NextPosition (empty): pos=%d err=%v", pos, err)
	}

	second := testutil.SeedLecture(t, ctx, tx, c.ID, inst.ID, 2)
	first := testutil.SeedLecture(t, ctx, tx, c.ID, inst.ID, 1)

	pos, err = repo.NextPosition(ctx, tx, c.ID)
	if err != nil || pos != 3 {
		t.Fatalf("NextPosition: pos=%d err=%v", pos, err)
	}

	list, err := repo.ListByCourse(ctx, tx, c.ID)
	if err != nil {
		t.Fatalf("ListByCourse: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("ListByCourse: unexpected order: %+v", list)
	}

	got, err := repo.GetByID(ctx, tx, first.ID)
	if err != nil || got == nil || got.Data.Mimetype != "video/mp4" {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}

	n, err := repo.DeleteByCourse(ctx, tx, c.ID)
	if err != nil || n != 2 {
		t.Fatalf("DeleteByCourse: n=%d err=%v", n, err)
	}
	count, err := repo.CountByCourse(ctx, tx, c.ID)
	if err != nil || count != 0 {
		t.Fatalf("CountByCourse: count=%d err=%v", count, err)
	}
	missing, err := repo.GetByID(ctx, tx, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID (missing): got=%v err=%v", missing, err)
	}
}
