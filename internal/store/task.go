package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/dukerupert/diddit/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, household_id, title, description, rule_kind, repeat_days, rotation_type, points, active, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var repeatDays string
	var active int

	err := scanner.Scan(
		&t.ID, &t.HouseholdID, &t.Title, &t.Description, &t.RuleKind,
		&repeatDays, &t.RotationType, &t.Points, &active,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Active = active != 0
	t.RepeatDays, err = parseRepeatDays(repeatDays)
	if err != nil {
		return nil, fmt.Errorf("task %d: %w", t.ID, err)
	}
	return &t, nil
}

func parseRepeatDays(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parse repeat_days %q: %w", s, err)
		}
		days = append(days, n)
	}
	return days, nil
}

func joinRepeatDays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func (s *TaskStore) Create(householdID int64, title, description, ruleKind string, repeatDays []int, rotationType string, points int, childIDs []int64) (*model.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO tasks (household_id, title, description, rule_kind, repeat_days, rotation_type, points) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		householdID, title, description, ruleKind, joinRepeatDays(repeatDays), rotationType, points,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := replaceChildren(tx, id, childIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(householdID, id)
}

func (s *TaskStore) Update(householdID, id int64, title, description, ruleKind string, repeatDays []int, rotationType string, points int, childIDs []int64) (*model.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE tasks SET title = ?, description = ?, rule_kind = ?, repeat_days = ?, rotation_type = ?, points = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND household_id = ?`,
		title, description, ruleKind, joinRepeatDays(repeatDays), rotationType, points, id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if err := replaceChildren(tx, id, childIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(householdID, id)
}

func replaceChildren(tx *sql.Tx, taskID int64, childIDs []int64) error {
	if _, err := tx.Exec(`DELETE FROM task_children WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clear task children: %w", err)
	}
	for i, childID := range childIDs {
		if _, err := tx.Exec(
			`INSERT INTO task_children (task_id, child_id, position) VALUES (?, ?, ?)`,
			taskID, childID, i,
		); err != nil {
			return fmt.Errorf("insert task child: %w", err)
		}
	}
	return nil
}

func (s *TaskStore) GetByID(householdID, id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ? AND household_id = ?`, id, householdID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if err := s.loadChildren([]*model.Task{t}); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskStore) List(householdID int64) ([]model.Task, error) {
	return s.list(`SELECT `+taskCols+` FROM tasks WHERE household_id = ? ORDER BY id ASC`, householdID)
}

// ListActive returns the household's active tasks in id order, each with its
// ordered eligible-child list populated.
func (s *TaskStore) ListActive(householdID int64) ([]model.Task, error) {
	return s.list(`SELECT `+taskCols+` FROM tasks WHERE household_id = ? AND active = 1 ORDER BY id ASC`, householdID)
}

func (s *TaskStore) list(query string, args ...any) ([]model.Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadChildren(tasks); err != nil {
		return nil, err
	}
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = *t
	}
	return out, nil
}

// loadChildren fills ChildIDs for each task with one query, preserving the
// per-task position order.
func (s *TaskStore) loadChildren(tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Task, len(tasks))
	placeholders := make([]string, len(tasks))
	args := make([]any, len(tasks))
	for i, t := range tasks {
		byID[t.ID] = t
		placeholders[i] = "?"
		args[i] = t.ID
	}

	rows, err := s.db.Query(
		`SELECT task_id, child_id FROM task_children WHERE task_id IN (`+strings.Join(placeholders, ",")+`) ORDER BY task_id, position ASC`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("load task children: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID, childID int64
		if err := rows.Scan(&taskID, &childID); err != nil {
			return fmt.Errorf("scan task child: %w", err)
		}
		if t, ok := byID[taskID]; ok {
			t.ChildIDs = append(t.ChildIDs, childID)
		}
	}
	return rows.Err()
}

// Deactivate soft-deletes a task. Rows are never hard-deleted so historical
// assignments keep a valid task reference.
func (s *TaskStore) Deactivate(householdID, id int64) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND household_id = ?`,
		id, householdID,
	)
	if err != nil {
		return fmt.Errorf("deactivate task: %w", err)
	}
	return nil
}
