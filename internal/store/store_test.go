package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/diddit/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedHousehold(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	h, err := NewHouseholdStore(db).Create(name)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return h.ID
}

func seedChild(t *testing.T, db *sql.DB, householdID int64, name string) int64 {
	t.Helper()
	c, err := NewChildStore(db).Create(householdID, name, "", "", 0)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	return c.ID
}

func testDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
