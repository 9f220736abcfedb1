package model

import "time"

// Rule kinds for task definitions.
const (
	RuleDaily          = "daily"
	RuleRepeating      = "repeating"
	RuleWeeklyRotation = "weekly_rotation"
)

// Rotation sub-kinds for weekly_rotation tasks.
const (
	RotationOddEvenWeek = "odd_even_week"
	RotationAlternating = "alternating"
)

// Task is a recurring chore template. ChildIDs is the ordered list of eligible
// assignees the rule rotates through. Tasks are soft-deleted via Active so
// historical assignments keep a valid reference.
type Task struct {
	ID           int64     `json:"id"`
	HouseholdID  int64     `json:"household_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	RuleKind     string    `json:"rule_kind"`
	RepeatDays   []int     `json:"repeat_days"`   // 0=Sunday..6=Saturday, repeating only
	RotationType string    `json:"rotation_type"` // weekly_rotation only
	Points       int       `json:"points"`
	Active       bool      `json:"active"`
	ChildIDs     []int64   `json:"child_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
