// Package assignment holds the completion state machine for generated
// assignments.
package assignment

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusOverdue:
		return true
	}
	return false
}

// CanTransition reports whether an assignment may move from one status to
// another. Pending becomes completed (marked done) or overdue (date passed);
// an overdue assignment can still be completed late. Nothing leaves completed.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusCompleted || to == StatusOverdue
	case StatusOverdue:
		return to == StatusCompleted
	}
	return false
}

// IsOverdue reports whether a still-pending assignment due on dueDate should
// be flipped to overdue as of today. Both times are compared by UTC day.
func IsOverdue(dueDate, today time.Time) bool {
	return startOfDay(dueDate).Before(startOfDay(today))
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
