package realtime

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventEnrollmentCreated  EventType = "enrollment.created"
	EventEnrollmentRemoved  EventType = "enrollment.removed"
	EventLectureCompleted   EventType = "lecture.completed"
	EventLectureUncompleted EventType = "lecture.uncompleted"
	EventProgressUpdated    EventType = "progress.updated"
	EventCourseDeleted      EventType = "course.deleted"
	EventQuizAttempted      EventType = "quiz.attempted"
)

// Event is what services publish after a committed change.
type Event struct {
	Type      EventType  `json:"type"`
	UserID    uuid.UUID  `json:"userId,omitempty"`
	CourseID  uuid.UUID  `json:"courseId,omitempty"`
	LectureID *uuid.UUID `json:"lectureId,omitempty"`
	Data      any        `json:"data,omitempty"`
	At        time.Time  `json:"at"`
}
