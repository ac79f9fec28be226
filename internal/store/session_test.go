package store

import (
	"testing"
	"time"

	"github.com/mghoffman/perkhive/internal/database"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *AccountStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionStore(db), NewAccountStore(db)
}

func TestSessionCreateAndGet(t *testing.T) {
	ss, as := setupSessionTestDB(t)

	acct, _ := as.Create("alice@example.com", "Alice", "secret", "member", nil)
	sess, err := ss.Create(acct.ID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got == nil {
		t.Fatal("expected session")
	}
	if got.AccountID != acct.ID {
		t.Errorf("account_id = %d, want %d", got.AccountID, acct.ID)
	}
}

func TestSessionExpired(t *testing.T) {
	ss, as := setupSessionTestDB(t)

	acct, _ := as.Create("bob@example.com", "Bob", "secret", "member", nil)
	sess, _ := ss.Create(acct.ID, -time.Minute)

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got != nil {
		t.Error("expected nil for expired session")
	}
}

func TestSessionDelete(t *testing.T) {
	ss, as := setupSessionTestDB(t)

	acct, _ := as.Create("carol@example.com", "Carol", "secret", "member", nil)
	sess, _ := ss.Create(acct.ID, time.Hour)

	if err := ss.Delete(sess.Token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	got, _ := ss.GetByToken(sess.Token)
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	ss, as := setupSessionTestDB(t)

	acct, _ := as.Create("dave@example.com", "Dave", "secret", "member", nil)
	ss.Create(acct.ID, -time.Minute)
	ss.Create(acct.ID, -time.Minute)
	keep, _ := ss.Create(acct.ID, time.Hour)

	count, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if count != 2 {
		t.Errorf("deleted = %d, want 2", count)
	}
	got, _ := ss.GetByToken(keep.Token)
	if got == nil {
		t.Error("live session should survive cleanup")
	}
}

func TestSessionUnknownToken(t *testing.T) {
	ss, _ := setupSessionTestDB(t)

	got, err := ss.GetByToken("nope")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown token")
	}
}
