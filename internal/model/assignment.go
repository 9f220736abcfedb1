package model

import "time"

// Assignment is one occurrence of a task on one date, bound to one child.
// Rows are created only by the generator; (TaskID, DueDate) is unique.
type Assignment struct {
	ID          int64      `json:"id"`
	HouseholdID int64      `json:"household_id"`
	TaskID      int64      `json:"task_id"`
	ChildID     int64      `json:"child_id"`
	DueDate     time.Time  `json:"due_date"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy *int64     `json:"completed_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
