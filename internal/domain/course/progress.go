package course

import "time"

// Progress is the derived state of one (user, course) pair.
type Progress struct {
	TotalLectures      int64 `json:"totalLectures"`
	CompletedLectures  int64 `json:"completedLectures"`
	ProgressPercentage int   `json:"progressPercentage"`
	Completed          bool  `json:"completed"`
}

// ProgressPercent rounds completed/total*100 half up; zero lectures is 0%.
func ProgressPercent(completed, total int64) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return int((completed*200 + total) / (2 * total))
}

func NewProgress(completed, total int64) Progress {
	if completed > total {
		completed = total
	}
	if completed < 0 {
		completed = 0
	}
	pct := ProgressPercent(completed, total)
	return Progress{
		TotalLectures:      total,
		CompletedLectures:  completed,
		ProgressPercentage: pct,
		Completed:          pct == 100,
	}
}

// Apply writes the derived fields onto an enrollment. completedAt is not
// restamped on every reconcile at 100%: it keeps the moment the enrollment
// first became complete and is cleared only when progress drops below 100.
func (p Progress) Apply(e *Enrollment, now time.Time) {
	e.Progress = p.ProgressPercentage
	if p.Completed {
		if !e.Completed || e.CompletedAt == nil {
			t := now
			e.CompletedAt = &t
		}
		e.Completed = true
		return
	}
	e.Completed = false
	e.CompletedAt = nil
}
