package store

import (
	"testing"
	"time"

	"github.com/dukerupert/diddit/internal/model"
)

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	users := NewUserStore(db)
	sessions := NewSessionStore(db)

	u, err := users.Create("parent@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	sess, err := sessions.Create(u.ID, hid, time.Hour)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("session has empty token")
	}

	got, err := sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got == nil || got.UserID != u.ID || got.HouseholdID != hid {
		t.Fatalf("GetByToken = %+v", got)
	}

	if err := sessions.Delete(sess.Token); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = sessions.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("GetByToken after delete: %v", err)
	}
	if got != nil {
		t.Error("deleted session still resolves")
	}
}

func TestSessionExpiry(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	users := NewUserStore(db)
	sessions := NewSessionStore(db)

	u, err := users.Create("parent@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	expired, err := sessions.Create(u.ID, hid, -time.Minute)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	live, err := sessions.Create(u.ID, hid, time.Hour)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := sessions.GetByToken(expired.Token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got != nil {
		t.Error("expired session resolves")
	}

	n, err := sessions.DeleteExpired()
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpired = %d, want 1", n)
	}

	got, err = sessions.GetByToken(live.Token)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got == nil {
		t.Error("live session was deleted")
	}
}

func TestUserEmailNormalized(t *testing.T) {
	db := newTestDB(t)
	users := NewUserStore(db)

	u, err := users.Create("  Parent@Example.COM ", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Email != "parent@example.com" {
		t.Errorf("Email = %q, want lowercase trimmed", u.Email)
	}

	got, err := users.GetByEmail("PARENT@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Errorf("GetByEmail = %+v, want user %d", got, u.ID)
	}

	if _, err := users.Create("parent@example.com", "other"); err == nil {
		t.Error("duplicate email should fail")
	}
}

func TestHouseholdMemberships(t *testing.T) {
	db := newTestDB(t)
	households := NewHouseholdStore(db)
	users := NewUserStore(db)

	h1, err := households.Create("First")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	h2, err := households.Create("Second")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	u, err := users.Create("parent@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := households.AddMember(h1.ID, u.ID, model.RoleAdmin); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if _, err := households.AddMember(h2.ID, u.ID, model.RoleMember); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	m, err := households.GetMember(h1.ID, u.ID)
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if m == nil || m.Role != model.RoleAdmin {
		t.Errorf("GetMember = %+v, want admin", m)
	}

	memberships, err := households.ListMembershipsForUser(u.ID)
	if err != nil {
		t.Fatalf("ListMembershipsForUser: %v", err)
	}
	if len(memberships) != 2 || memberships[0].HouseholdID != h1.ID {
		t.Errorf("memberships = %+v, want first household first", memberships)
	}

	ids, err := households.ListIDs()
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ListIDs = %v, want 2 ids", ids)
	}

	// Same user twice in one household violates the unique pair.
	if _, err := households.AddMember(h1.ID, u.ID, model.RoleMember); err == nil {
		t.Error("duplicate membership should fail")
	}
}
