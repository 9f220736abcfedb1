// Package rule evaluates task assignment rules. Every rule is a pure function
// of (task configuration, date): re-evaluating the same date always yields the
// same child, with no dependency on previously generated assignments or on
// generation order. The generator relies on this for idempotency.
package rule

import (
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/diddit/internal/model"
)

// InvalidError reports a task whose rule parameters are structurally invalid
// for its kind. The generator records it and moves on to the next task.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return "invalid rule configuration: " + e.Reason
}

// Rule is the evaluatable form of a task's rule fields.
type Rule struct {
	Kind       string
	RepeatDays []time.Weekday // repeating only
	Rotation   string         // weekly_rotation only
}

// FromTask builds a Rule from a task's stored rule fields. Weekday numbers
// outside 0..6 are preserved so Validate can reject them.
func FromTask(t model.Task) Rule {
	r := Rule{Kind: t.RuleKind, Rotation: t.RotationType}
	for _, d := range t.RepeatDays {
		r.RepeatDays = append(r.RepeatDays, time.Weekday(d))
	}
	return r
}

// Validate checks the rule's parameters against its kind for the given number
// of eligible children. All failures are *InvalidError.
func (r Rule) Validate(childCount int) error {
	if childCount < 1 {
		return &InvalidError{Reason: "at least one eligible child is required"}
	}

	switch r.Kind {
	case model.RuleDaily:
		return nil

	case model.RuleRepeating:
		if len(r.RepeatDays) == 0 {
			return &InvalidError{Reason: "repeating rule has no weekdays selected"}
		}
		seen := [7]bool{}
		for _, d := range r.RepeatDays {
			if d < time.Sunday || d > time.Saturday {
				return &InvalidError{Reason: fmt.Sprintf("weekday %d out of range", d)}
			}
			if seen[d] {
				return &InvalidError{Reason: fmt.Sprintf("weekday %s listed twice", d)}
			}
			seen[d] = true
		}
		return nil

	case model.RuleWeeklyRotation:
		switch r.Rotation {
		case model.RotationOddEvenWeek:
			// Odd/even parity only picks between two children; rotation across
			// more is undefined and rejected rather than guessed.
			if childCount != 2 {
				return &InvalidError{Reason: fmt.Sprintf("odd_even_week requires exactly 2 children, got %d", childCount)}
			}
			return nil
		case model.RotationAlternating:
			return nil
		default:
			return &InvalidError{Reason: fmt.Sprintf("unknown rotation type %q", r.Rotation)}
		}

	default:
		return &InvalidError{Reason: fmt.Sprintf("unknown rule kind %q", r.Kind)}
	}
}

// AssigneeOn returns the child assigned on the given date, or occurs=false if
// the task has no occurrence that day. children is the task's ordered eligible
// list; createdAt anchors the rotation for repeating and alternating rules.
// The date is normalized to its UTC day before any arithmetic.
func (r Rule) AssigneeOn(children []int64, createdAt, date time.Time) (childID int64, occurs bool, err error) {
	if err := r.Validate(len(children)); err != nil {
		return 0, false, err
	}

	day := startOfDay(date)

	switch r.Kind {
	case model.RuleDaily:
		idx := floorMod(unixDay(day), len(children))
		return children[idx], true, nil

	case model.RuleRepeating:
		if !containsWeekday(r.RepeatDays, day.Weekday()) {
			return 0, false, nil
		}
		// Occurrence counter anchored on the task's creation day: the first
		// configured weekday on or after creation is occurrence 0, so
		// consecutive occurrences (not calendar days) rotate through the list.
		idx := occurrenceIndex(r.RepeatDays, startOfDay(createdAt), day)
		return children[floorMod(idx, len(children))], true, nil

	case model.RuleWeeklyRotation:
		switch r.Rotation {
		case model.RotationOddEvenWeek:
			_, week := day.ISOWeek()
			if week%2 == 1 {
				return children[0], true, nil
			}
			return children[1], true, nil
		case model.RotationAlternating:
			weeks := isoWeeksBetween(startOfDay(createdAt), day)
			return children[floorMod(weeks, len(children))], true, nil
		}
	}

	// Validate above rejects everything that could reach here.
	return 0, false, &InvalidError{Reason: fmt.Sprintf("unknown rule kind %q", r.Kind)}
}

// Describe returns a human-readable description of the rule.
func (r Rule) Describe() string {
	switch r.Kind {
	case model.RuleDaily:
		return "Every day"
	case model.RuleRepeating:
		if len(r.RepeatDays) == 0 {
			return "Repeats"
		}
		var names []string
		for _, d := range r.RepeatDays {
			names = append(names, d.String()[:3])
		}
		return "Repeats on " + strings.Join(names, ", ")
	case model.RuleWeeklyRotation:
		if r.Rotation == model.RotationOddEvenWeek {
			return "Rotates by odd/even week"
		}
		return "Alternates weekly"
	}
	return ""
}

func containsWeekday(days []time.Weekday, d time.Weekday) bool {
	for _, wd := range days {
		if wd == d {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// unixDay returns the number of whole days between the Unix epoch and t
// (t must be a UTC midnight).
func unixDay(t time.Time) int {
	return int(t.Unix() / 86400)
}

// firstWeekdayOffset is the unix-day index of the first occurrence of w at or
// after day 0 (1970-01-01, a Thursday).
func firstWeekdayOffset(w time.Weekday) int {
	return floorMod(int(w)-int(time.Thursday), 7)
}

// weekdaysThrough counts occurrences of w in unix days (-inf, day], shifted by
// a constant so that differences count occurrences in half-open day ranges.
// It is linear in day, so it works for days before the epoch too.
func weekdaysThrough(w time.Weekday, day int) int {
	return floorDiv(day-firstWeekdayOffset(w), 7) + 1
}

// occurrenceIndex returns the zero-based occurrence number of date among the
// configured weekdays, counted from the epoch day. The first configured
// weekday on or after epoch is index 0; dates before the epoch continue the
// sequence into negative indices so floorMod keeps rotation consistent.
func occurrenceIndex(days []time.Weekday, epoch, date time.Time) int {
	e, d := unixDay(epoch), unixDay(date)
	n := 0
	for _, w := range days {
		n += weekdaysThrough(w, d) - weekdaysThrough(w, e-1)
	}
	return n - 1
}

// isoWeeksBetween returns the number of ISO weeks (Monday-start) from a to b,
// negative when b falls in an earlier week than a.
func isoWeeksBetween(a, b time.Time) int {
	return (unixDay(mondayOf(b)) - unixDay(mondayOf(a))) / 7
}

func mondayOf(t time.Time) time.Time {
	return t.AddDate(0, 0, -floorMod(int(t.Weekday())-int(time.Monday), 7))
}

func floorMod(a, n int) int {
	return ((a % n) + n) % n
}

func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}
