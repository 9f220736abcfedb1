package store

import "testing"

func TestPushSubscriptionUpsert(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	push := NewPushStore(db)

	first, err := push.Create(hid, "https://push.example/ep1", "key-a", "auth-a")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Same endpoint again replaces the keys, no duplicate row.
	second, err := push.Create(hid, "https://push.example/ep1", "key-b", "auth-b")
	if err != nil {
		t.Fatalf("re-Create: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created new row %d, want %d", second.ID, first.ID)
	}
	if second.P256dhKey != "key-b" || second.AuthKey != "auth-b" {
		t.Errorf("keys not replaced: %+v", second)
	}

	subs, err := push.ListByHousehold(hid)
	if err != nil {
		t.Fatalf("ListByHousehold: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("subscriptions = %d, want 1", len(subs))
	}
}

func TestPushSubscriptionDeleteByEndpoint(t *testing.T) {
	db := newTestDB(t)
	hid := seedHousehold(t, db, "Home")
	push := NewPushStore(db)

	if _, err := push.Create(hid, "https://push.example/gone", "k", "a"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := push.DeleteByEndpoint("https://push.example/gone"); err != nil {
		t.Fatalf("DeleteByEndpoint: %v", err)
	}

	subs, err := push.ListByHousehold(hid)
	if err != nil {
		t.Fatalf("ListByHousehold: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("subscriptions = %d, want 0", len(subs))
	}
}
