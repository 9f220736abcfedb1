// Package generate turns active task definitions into assignment rows for a
// date window. Generation is idempotent: re-running the same window creates
// nothing new, because every rule is a pure function of (task, date) and the
// assignments table enforces uniqueness on (task_id, due_date).
package generate

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/diddit/internal/assignment"
	"github.com/dukerupert/diddit/internal/model"
	"github.com/dukerupert/diddit/internal/rule"
	"github.com/dukerupert/diddit/internal/store"
)

// MaxWindowDays bounds a single generation window so one request stays a
// small batch.
const MaxWindowDays = 92

var (
	ErrInvalidWindow  = errors.New("end date is before start date")
	ErrWindowTooLarge = fmt.Errorf("date window exceeds %d days", MaxWindowDays)
)

// TaskError reports one task that could not be generated. The rest of the
// batch is unaffected.
type TaskError struct {
	TaskID  int64  `json:"task_id"`
	Message string `json:"message"`
}

// Result summarizes one generation run.
type Result struct {
	Created int         `json:"created"`
	Skipped int         `json:"skipped"`
	Errors  []TaskError `json:"errors"`
}

type Generator struct {
	tasks       *store.TaskStore
	assignments *store.AssignmentStore
	logger      *slog.Logger
}

func New(tasks *store.TaskStore, assignments *store.AssignmentStore, logger *slog.Logger) *Generator {
	return &Generator{tasks: tasks, assignments: assignments, logger: logger}
}

// Generate ensures an assignment row exists for every (active task, date)
// occurrence in the inclusive window. Tasks with invalid rules are reported in
// Result.Errors and skipped; occurrences that already exist count as skips.
// Only store failures abort the run.
func (g *Generator) Generate(householdID int64, start, end time.Time) (Result, error) {
	result := Result{Errors: []TaskError{}}

	start = startOfDay(start)
	end = startOfDay(end)
	if end.Before(start) {
		return result, ErrInvalidWindow
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days > MaxWindowDays {
		return result, ErrWindowTooLarge
	}

	tasks, err := g.tasks.ListActive(householdID)
	if err != nil {
		return result, fmt.Errorf("load active tasks: %w", err)
	}

	existing, err := g.assignments.ExistingKeys(householdID, start, end)
	if err != nil {
		return result, fmt.Errorf("load existing assignments: %w", err)
	}

	// Validate each rule once up front so a malformed task produces exactly
	// one error entry, not one per date.
	rules := make(map[int64]rule.Rule, len(tasks))
	valid := tasks[:0]
	for _, t := range tasks {
		r := rule.FromTask(t)
		if err := r.Validate(len(t.ChildIDs)); err != nil {
			result.Errors = append(result.Errors, TaskError{TaskID: t.ID, Message: err.Error()})
			g.logger.Warn("skipping task with invalid rule", "household_id", householdID, "task_id", t.ID, "error", err)
			continue
		}
		rules[t.ID] = r
		valid = append(valid, t)
	}

	// Dates ascending, then tasks in id order (ListActive returns them
	// sorted), so runs are reproducible.
	var staged []model.Assignment
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, t := range valid {
			childID, occurs, err := rules[t.ID].AssigneeOn(t.ChildIDs, t.CreatedAt, day)
			if err != nil {
				// Validate passed, so this is unexpected; isolate it the same way.
				result.Errors = append(result.Errors, TaskError{TaskID: t.ID, Message: err.Error()})
				continue
			}
			if !occurs {
				continue
			}
			if _, ok := existing[store.Key(t.ID, day)]; ok {
				result.Skipped++
				continue
			}
			staged = append(staged, model.Assignment{
				HouseholdID: householdID,
				TaskID:      t.ID,
				ChildID:     childID,
				DueDate:     day,
				Status:      string(assignment.StatusPending),
			})
		}
	}

	inserted, err := g.assignments.BatchInsert(staged)
	if err != nil {
		return result, fmt.Errorf("insert assignments: %w", err)
	}
	result.Created = inserted
	// Rows staged but not inserted lost the (task_id, due_date) race to a
	// concurrent run; they already exist, which is a skip, not an error.
	result.Skipped += len(staged) - inserted

	g.logger.Info("generation complete",
		"household_id", householdID,
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"),
		"created", result.Created,
		"skipped", result.Skipped,
		"task_errors", len(result.Errors),
	)
	return result, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
