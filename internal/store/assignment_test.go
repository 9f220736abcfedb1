package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/diddit/internal/model"
)

func seedTask(t *testing.T, db *sql.DB, householdID int64, title string, points int, childIDs []int64) int64 {
	t.Helper()
	task, err := NewTaskStore(db).Create(householdID, title, "", model.RuleDaily, nil, "", points, childIDs)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task.ID
}

func pending(householdID, taskID, childID int64, due time.Time) model.Assignment {
	return model.Assignment{
		HouseholdID: householdID,
		TaskID:      taskID,
		ChildID:     childID,
		DueDate:     due,
		Status:      "pending",
	}
}

func TestBatchInsertConflictReturnsReducedCount(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	cid := seedChild(t, db, hid, "Ada")
	tid := seedTask(t, db, hid, "Dishes", 5, []int64{cid})
	assignments := NewAssignmentStore(db)

	mon := testDate(2026, time.January, 5)
	tue := testDate(2026, time.January, 6)

	n, err := assignments.BatchInsert([]model.Assignment{pending(hid, tid, cid, mon)})
	if err != nil {
		t.Fatalf("first BatchInsert: %v", err)
	}
	if n != 1 {
		t.Fatalf("first insert = %d rows, want 1", n)
	}

	// Monday collides with the unique index; only Tuesday lands.
	n, err = assignments.BatchInsert([]model.Assignment{
		pending(hid, tid, cid, mon),
		pending(hid, tid, cid, tue),
	})
	if err != nil {
		t.Fatalf("second BatchInsert: %v", err)
	}
	if n != 1 {
		t.Errorf("second insert = %d rows, want 1", n)
	}

	all, err := assignments.List(hid, mon, tue, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("row count = %d, want 2", len(all))
	}
}

func TestExistingKeys(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	cid := seedChild(t, db, hid, "Ada")
	tid := seedTask(t, db, hid, "Dishes", 5, []int64{cid})
	assignments := NewAssignmentStore(db)

	mon := testDate(2026, time.January, 5)
	wed := testDate(2026, time.January, 7)
	if _, err := assignments.BatchInsert([]model.Assignment{
		pending(hid, tid, cid, mon),
		pending(hid, tid, cid, wed),
	}); err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}

	// Range covering only Monday.
	keys, err := assignments.ExistingKeys(hid, mon, testDate(2026, time.January, 6))
	if err != nil {
		t.Fatalf("ExistingKeys: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("keys = %v, want 1 entry", keys)
	}
	if _, ok := keys[Key(tid, mon)]; !ok {
		t.Errorf("missing key for task %d on %v", tid, mon)
	}
}

func TestListFiltersByChild(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	c1 := seedChild(t, db, hid, "Ada")
	c2 := seedChild(t, db, hid, "Ben")
	t1 := seedTask(t, db, hid, "Dishes", 5, []int64{c1})
	t2 := seedTask(t, db, hid, "Trash", 5, []int64{c2})
	assignments := NewAssignmentStore(db)

	mon := testDate(2026, time.January, 5)
	if _, err := assignments.BatchInsert([]model.Assignment{
		pending(hid, t1, c1, mon),
		pending(hid, t2, c2, mon),
	}); err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}

	got, err := assignments.List(hid, mon, mon, &c2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ChildID != c2 {
		t.Errorf("filtered list = %+v, want one row for child %d", got, c2)
	}
}

func TestSetStatusCompletion(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	cid := seedChild(t, db, hid, "Ada")
	tid := seedTask(t, db, hid, "Dishes", 5, []int64{cid})
	assignments := NewAssignmentStore(db)

	mon := testDate(2026, time.January, 5)
	if _, err := assignments.BatchInsert([]model.Assignment{pending(hid, tid, cid, mon)}); err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}
	rows, err := assignments.List(hid, mon, mon, nil)
	if err != nil || len(rows) != 1 {
		t.Fatalf("List: %v (%d rows)", err, len(rows))
	}

	now := time.Now().UTC()
	updated, err := assignments.SetStatus(hid, rows[0].ID, "completed", &now, &cid)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if updated.Status != "completed" {
		t.Errorf("status = %q, want completed", updated.Status)
	}
	if updated.CompletedAt == nil || updated.CompletedBy == nil || *updated.CompletedBy != cid {
		t.Errorf("completion fields = %v %v", updated.CompletedAt, updated.CompletedBy)
	}
}

func TestSweepOverdue(t *testing.T) {
	db := newTestDB(t)
	h1 := seedHousehold(t, db, "One")
	h2 := seedHousehold(t, db, "Two")
	c1 := seedChild(t, db, h1, "Ada")
	c2 := seedChild(t, db, h2, "Ben")
	t1 := seedTask(t, db, h1, "Dishes", 5, []int64{c1})
	t2 := seedTask(t, db, h2, "Trash", 5, []int64{c2})
	assignments := NewAssignmentStore(db)

	past := testDate(2026, time.January, 5)
	today := testDate(2026, time.January, 8)
	if _, err := assignments.BatchInsert([]model.Assignment{
		pending(h1, t1, c1, past),
		pending(h1, t1, c1, past.AddDate(0, 0, 1)),
		pending(h2, t2, c2, past),
		pending(h2, t2, c2, today), // due today, not overdue
	}); err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}

	counts, err := assignments.SweepOverdue(today)
	if err != nil {
		t.Fatalf("SweepOverdue: %v", err)
	}
	if counts[h1] != 2 || counts[h2] != 1 {
		t.Errorf("counts = %v, want {%d:2 %d:1}", counts, h1, h2)
	}

	// Second sweep finds nothing new.
	counts, err = assignments.SweepOverdue(today)
	if err != nil {
		t.Fatalf("second SweepOverdue: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("second sweep counts = %v, want none", counts)
	}

	rows, err := assignments.List(h2, past, today, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, a := range rows {
		want := "overdue"
		if a.DueDate.Equal(today) {
			want = "pending"
		}
		if a.Status != want {
			t.Errorf("assignment on %v status = %q, want %q", a.DueDate, a.Status, want)
		}
	}
}

func TestLeaderboard(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	c1 := seedChild(t, db, hid, "Ada")
	c2 := seedChild(t, db, hid, "Ben")
	cheap := seedTask(t, db, hid, "Dishes", 5, []int64{c1, c2})
	rich := seedTask(t, db, hid, "Mow lawn", 20, []int64{c1, c2})
	assignments := NewAssignmentStore(db)

	mon := testDate(2026, time.January, 5)
	if _, err := assignments.BatchInsert([]model.Assignment{
		pending(hid, cheap, c1, mon),
		pending(hid, cheap, c2, mon.AddDate(0, 0, 1)),
		pending(hid, rich, c2, mon.AddDate(0, 0, 2)),
	}); err != nil {
		t.Fatalf("BatchInsert: %v", err)
	}

	rows, err := assignments.List(hid, mon, mon.AddDate(0, 0, 6), nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	now := time.Now().UTC()
	for _, a := range rows {
		// c1's cheap row stays pending; only completed work scores.
		if a.ChildID == c1 {
			continue
		}
		if _, err := assignments.SetStatus(hid, a.ID, "completed", &now, &a.ChildID); err != nil {
			t.Fatalf("SetStatus: %v", err)
		}
	}

	entries, err := assignments.Leaderboard(hid, mon, mon.AddDate(0, 0, 6))
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %+v, want 1", entries)
	}
	if entries[0].ChildID != c2 || entries[0].Points != 25 || entries[0].CompletedCount != 2 {
		t.Errorf("entry = %+v, want child %d with 25 points over 2 completions", entries[0], c2)
	}
}
