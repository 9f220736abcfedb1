package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/diddit/internal/model"
)

// dateFormat is how due dates are stored: a plain calendar day, no clock or
// zone. Parsed back as UTC midnight.
const dateFormat = "2006-01-02"

// AssignmentKey identifies one occurrence; (TaskID, DueDate) carries the
// unique constraint the generator's idempotency rests on.
type AssignmentKey struct {
	TaskID  int64
	DueDate string // dateFormat
}

// Key returns the lookup key for an assignment on the given day.
func Key(taskID int64, dueDate time.Time) AssignmentKey {
	return AssignmentKey{TaskID: taskID, DueDate: dueDate.UTC().Format(dateFormat)}
}

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

const assignmentCols = `id, household_id, task_id, child_id, due_date, status, completed_at, completed_by, created_at, updated_at`

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	var dueDate string
	var completedAt sql.NullTime
	var completedBy sql.NullInt64

	err := scanner.Scan(
		&a.ID, &a.HouseholdID, &a.TaskID, &a.ChildID, &dueDate, &a.Status,
		&completedAt, &completedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.DueDate, err = time.ParseInLocation(dateFormat, dueDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse due_date %q: %w", dueDate, err)
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	if completedBy.Valid {
		a.CompletedBy = &completedBy.Int64
	}
	return &a, nil
}

// ExistingKeys returns the (task, date) pairs already recorded for the
// household in the inclusive date range, as a lookup set. One batch query.
func (s *AssignmentStore) ExistingKeys(householdID int64, start, end time.Time) (map[AssignmentKey]struct{}, error) {
	rows, err := s.db.Query(
		`SELECT task_id, due_date FROM assignments WHERE household_id = ? AND due_date >= ? AND due_date <= ?`,
		householdID, start.UTC().Format(dateFormat), end.UTC().Format(dateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("load existing assignments: %w", err)
	}
	defer rows.Close()

	keys := make(map[AssignmentKey]struct{})
	for rows.Next() {
		var k AssignmentKey
		if err := rows.Scan(&k.TaskID, &k.DueDate); err != nil {
			return nil, fmt.Errorf("scan assignment key: %w", err)
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

// BatchInsert inserts staged assignments in a single transaction and returns
// how many rows were actually written. Rows that collide with the
// (task_id, due_date) unique index are silently dropped, so a concurrent
// generation run that got there first shows up as skips, not an error.
func (s *AssignmentStore) BatchInsert(assignments []model.Assignment) (int, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO assignments (household_id, task_id, child_id, due_date, status)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (task_id, due_date) DO NOTHING`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, a := range assignments {
		result, err := stmt.Exec(a.HouseholdID, a.TaskID, a.ChildID, a.DueDate.UTC().Format(dateFormat), a.Status)
		if err != nil {
			return 0, fmt.Errorf("insert assignment: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (s *AssignmentStore) GetByID(householdID, id int64) (*model.Assignment, error) {
	row := s.db.QueryRow(`SELECT `+assignmentCols+` FROM assignments WHERE id = ? AND household_id = ?`, id, householdID)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// List returns the household's assignments in the inclusive date range,
// optionally filtered to one child, ordered by date then task id.
func (s *AssignmentStore) List(householdID int64, start, end time.Time, childID *int64) ([]model.Assignment, error) {
	query := `SELECT ` + assignmentCols + ` FROM assignments WHERE household_id = ? AND due_date >= ? AND due_date <= ?`
	args := []any{householdID, start.UTC().Format(dateFormat), end.UTC().Format(dateFormat)}
	if childID != nil {
		query += ` AND child_id = ?`
		args = append(args, *childID)
	}
	query += ` ORDER BY due_date ASC, task_id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// SetStatus updates an assignment's status. completedAt/completedBy are
// written for completions and cleared otherwise.
func (s *AssignmentStore) SetStatus(householdID, id int64, status string, completedAt *time.Time, completedBy *int64) (*model.Assignment, error) {
	var cAt sql.NullTime
	if completedAt != nil {
		cAt = sql.NullTime{Time: completedAt.UTC(), Valid: true}
	}
	var cBy sql.NullInt64
	if completedBy != nil {
		cBy = sql.NullInt64{Int64: *completedBy, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE assignments SET status = ?, completed_at = ?, completed_by = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND household_id = ?`,
		status, cAt, cBy, id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("set assignment status: %w", err)
	}
	return s.GetByID(householdID, id)
}

// SweepOverdue flips pending assignments dated before today to overdue and
// returns the number flipped per household.
func (s *AssignmentStore) SweepOverdue(today time.Time) (map[int64]int, error) {
	cutoff := today.UTC().Format(dateFormat)

	rows, err := s.db.Query(
		`SELECT household_id, COUNT(*) FROM assignments WHERE status = 'pending' AND due_date < ? GROUP BY household_id`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("count overdue: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var householdID int64
		var n int
		if err := rows.Scan(&householdID, &n); err != nil {
			return nil, fmt.Errorf("scan overdue count: %w", err)
		}
		counts[householdID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return counts, nil
	}

	if _, err := s.db.Exec(
		`UPDATE assignments SET status = 'overdue', updated_at = CURRENT_TIMESTAMP WHERE status = 'pending' AND due_date < ?`,
		cutoff,
	); err != nil {
		return nil, fmt.Errorf("mark overdue: %w", err)
	}
	return counts, nil
}

// LeaderboardEntry is one child's completed-points total for a date range.
type LeaderboardEntry struct {
	ChildID        int64 `json:"child_id"`
	Points         int   `json:"points"`
	CompletedCount int   `json:"completed_count"`
}

// Leaderboard sums completed assignment points per child over the inclusive
// date range, highest total first.
func (s *AssignmentStore) Leaderboard(householdID int64, start, end time.Time) ([]LeaderboardEntry, error) {
	rows, err := s.db.Query(
		`SELECT a.child_id, COALESCE(SUM(t.points), 0), COUNT(*)
		 FROM assignments a
		 JOIN tasks t ON t.id = a.task_id
		 WHERE a.household_id = ? AND a.status = 'completed' AND a.due_date >= ? AND a.due_date <= ?
		 GROUP BY a.child_id
		 ORDER BY SUM(t.points) DESC, a.child_id ASC`,
		householdID, start.UTC().Format(dateFormat), end.UTC().Format(dateFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.ChildID, &e.Points, &e.CompletedCount); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
