package store

import (
	"testing"

	"github.com/dukerupert/diddit/internal/model"
)

func TestTaskCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	c1 := seedChild(t, db, hid, "Ada")
	c2 := seedChild(t, db, hid, "Ben")
	tasks := NewTaskStore(db)

	created, err := tasks.Create(hid, "Dishes", "after dinner", model.RuleRepeating, []int{1, 3, 5}, "", 10, []int64{c2, c1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Title != "Dishes" || created.Points != 10 {
		t.Errorf("created = %+v", created)
	}
	if !created.Active {
		t.Error("new task should be active")
	}
	if len(created.RepeatDays) != 3 || created.RepeatDays[0] != 1 || created.RepeatDays[2] != 5 {
		t.Errorf("RepeatDays = %v, want [1 3 5]", created.RepeatDays)
	}
	// Rotation order is the order children were given, not id order.
	if len(created.ChildIDs) != 2 || created.ChildIDs[0] != c2 || created.ChildIDs[1] != c1 {
		t.Errorf("ChildIDs = %v, want [%d %d]", created.ChildIDs, c2, c1)
	}

	got, err := tasks.GetByID(hid, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("GetByID = %+v", got)
	}
}

func TestTaskGetScopedToHousehold(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	other := seedHousehold(t, db, "Other")
	tasks := NewTaskStore(db)

	created, err := tasks.Create(hid, "Dishes", "", model.RuleDaily, nil, "", 5, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := tasks.GetByID(other, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Error("task visible from another household")
	}
}

func TestTaskUpdateReplacesChildren(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	c1 := seedChild(t, db, hid, "Ada")
	c2 := seedChild(t, db, hid, "Ben")
	c3 := seedChild(t, db, hid, "Cal")
	tasks := NewTaskStore(db)

	created, err := tasks.Create(hid, "Trash", "", model.RuleDaily, nil, "", 5, []int64{c1, c2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := tasks.Update(hid, created.ID, "Trash & recycling", "", model.RuleWeeklyRotation, nil, model.RotationAlternating, 8, []int64{c3, c1})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Trash & recycling" || updated.RuleKind != model.RuleWeeklyRotation || updated.Points != 8 {
		t.Errorf("updated = %+v", updated)
	}
	if len(updated.ChildIDs) != 2 || updated.ChildIDs[0] != c3 || updated.ChildIDs[1] != c1 {
		t.Errorf("ChildIDs = %v, want [%d %d]", updated.ChildIDs, c3, c1)
	}
}

func TestTaskDeactivate(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	c1 := seedChild(t, db, hid, "Ada")
	tasks := NewTaskStore(db)

	keep, err := tasks.Create(hid, "Keep", "", model.RuleDaily, nil, "", 5, []int64{c1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	drop, err := tasks.Create(hid, "Drop", "", model.RuleDaily, nil, "", 5, []int64{c1})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := tasks.Deactivate(hid, drop.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	active, err := tasks.ListActive(hid)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != keep.ID {
		t.Errorf("ListActive = %+v, want only task %d", active, keep.ID)
	}

	all, err := tasks.List(hid)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List = %d tasks, want 2 (soft delete keeps the row)", len(all))
	}
}

func TestRepeatDaysRoundTrip(t *testing.T) {
	tests := []struct {
		days []int
		csv  string
	}{
		{nil, ""},
		{[]int{0}, "0"},
		{[]int{1, 3, 5}, "1,3,5"},
		{[]int{6, 0}, "6,0"},
	}
	for _, tt := range tests {
		if got := joinRepeatDays(tt.days); got != tt.csv {
			t.Errorf("joinRepeatDays(%v) = %q, want %q", tt.days, got, tt.csv)
		}
		parsed, err := parseRepeatDays(tt.csv)
		if err != nil {
			t.Errorf("parseRepeatDays(%q): %v", tt.csv, err)
			continue
		}
		if len(parsed) != len(tt.days) {
			t.Errorf("parseRepeatDays(%q) = %v, want %v", tt.csv, parsed, tt.days)
			continue
		}
		for i := range parsed {
			if parsed[i] != tt.days[i] {
				t.Errorf("parseRepeatDays(%q) = %v, want %v", tt.csv, parsed, tt.days)
				break
			}
		}
	}

	if _, err := parseRepeatDays("1,x"); err == nil {
		t.Error("parseRepeatDays(\"1,x\") should fail")
	}
}
