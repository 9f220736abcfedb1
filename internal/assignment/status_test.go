package assignment

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusOverdue, true},
		{StatusOverdue, StatusCompleted, true},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusOverdue, false},
		{StatusOverdue, StatusPending, false},
		{StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsOverdue(t *testing.T) {
	today := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

	if !IsOverdue(time.Date(2026, time.January, 9, 0, 0, 0, 0, time.UTC), today) {
		t.Error("yesterday should be overdue")
	}
	if IsOverdue(today, today) {
		t.Error("today should not be overdue")
	}
	if IsOverdue(time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC), today) {
		t.Error("tomorrow should not be overdue")
	}
	// Time-of-day on "today" must not matter.
	if IsOverdue(time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC), today.Add(23*time.Hour)) {
		t.Error("same day with later clock time should not be overdue")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusCompleted, StatusOverdue} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("snoozed").Valid() {
		t.Error("unknown status should be invalid")
	}
}
