package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/lms-backend/internal/app"
)

type idList []string

func (l *idList) String() string { return strings.Join(*l, ",") }
func (l *idList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

// reconcile_progress recomputes stored enrollment progress from completion
// rows, for all courses or the ones passed with -course.
func main() {
	var courses idList
	var dryRun bool
	var limit int
	flag.Var(&courses, "course", "course id to reconcile (repeatable)")
	flag.BoolVar(&dryRun, "dry-run", false, "report stale enrollments without writing")
	flag.IntVar(&limit, "limit", 0, "limit number of courses processed")
	flag.Parse()

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	r := &reconciler{
		db:          application.DB,
		courses:     application.Repos.Course,
		enrollments: application.Repos.Enrollment,
		progress:    application.Services.Progress,
	}
	rows, err := r.loadCourses(ctx, courses, limit)
	if err != nil {
		fmt.Printf("load courses: %v\n", err)
		os.Exit(1)
	}

	reconciled := 0
	for _, c := range rows {
		if c == nil || c.ID == uuid.Nil {
			continue
		}
		if dryRun {
			stale, err := r.countStale(ctx, c.ID)
			if err != nil {
				fmt.Printf("inspect course %s: %v\n", c.ID, err)
				continue
			}
			fmt.Printf("[dry-run] course_id=%s stale_enrollments=%d\n", c.ID, stale)
			continue
		}
		if err := r.reconcile(ctx, c.ID); err != nil {
			fmt.Printf("reconcile course %s: %v\n", c.ID, err)
			continue
		}
		reconciled++
		fmt.Printf("reconciled course_id=%s\n", c.ID)
	}
	fmt.Printf("done; reconciled=%d\n", reconciled)
}
