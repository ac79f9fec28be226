package store

import (
	"errors"
	"testing"

	"github.com/mghoffman/perkhive/internal/database"
	"github.com/mghoffman/perkhive/internal/model"
)

func setupModerationTestDB(t *testing.T) (*ModerationStore, *AccountStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewModerationStore(db), NewAccountStore(db)
}

func TestCreateCase(t *testing.T) {
	ms, as := setupModerationTestDB(t)

	subject, _ := as.Create("subject@example.com", "Subject", "secret", "member", nil)
	reporter, _ := as.Create("reporter@example.com", "Reporter", "secret", "member", nil)

	c, err := ms.Create(subject.ID, "post:42", model.SeverityMedium, &reporter.ID)
	if err != nil {
		t.Fatalf("create case: %v", err)
	}
	if c.Status != model.CasePending {
		t.Errorf("status = %q, want pending", c.Status)
	}
	if c.Ref == "" {
		t.Error("expected non-empty ref")
	}
	if c.ReporterAccountID == nil || *c.ReporterAccountID != reporter.ID {
		t.Errorf("reporter = %v, want %d", c.ReporterAccountID, reporter.ID)
	}

	got, err := ms.GetByRef(c.Ref)
	if err != nil {
		t.Fatalf("get by ref: %v", err)
	}
	if got == nil || got.ID != c.ID {
		t.Errorf("get by ref = %+v, want case %d", got, c.ID)
	}
}

func TestCreateCaseInvalidSeverity(t *testing.T) {
	ms, as := setupModerationTestDB(t)

	subject, _ := as.Create("subject@example.com", "Subject", "secret", "member", nil)
	_, err := ms.Create(subject.ID, "", model.CaseSeverity("catastrophic"), nil)
	if err == nil {
		t.Fatal("expected error for invalid severity")
	}
}

func TestResolveDismiss(t *testing.T) {
	ms, as := setupModerationTestDB(t)

	subject, _ := as.Create("subject@example.com", "Subject", "secret", "member", nil)
	c, _ := ms.Create(subject.ID, "post:42", model.SeverityLow, nil)

	resolved, err := ms.Resolve(c.ID, model.ActionDismiss, "duplicate report")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != model.CaseDismissed {
		t.Errorf("status = %q, want dismissed", resolved.Status)
	}
	if resolved.ResolutionNotes != "duplicate report" {
		t.Errorf("notes = %q, want %q", resolved.ResolutionNotes, "duplicate report")
	}
	if resolved.ResolvedAt == nil {
		t.Error("resolved_at should be set")
	}

	// Dismiss must not touch the account.
	acct, _ := as.GetByID(subject.ID)
	if acct.WarningCount != 0 || acct.Status != model.AccountActive {
		t.Errorf("account = warnings %d status %q, want untouched", acct.WarningCount, acct.Status)
	}
}

func TestResolveWarn(t *testing.T) {
	ms, as := setupModerationTestDB(t)

	subject, _ := as.Create("subject@example.com", "Subject", "secret", "member", nil)
	c, _ := ms.Create(subject.ID, "comment:7", model.SeverityMedium, nil)

	resolved, err := ms.Resolve(c.ID, model.ActionWarn, "first strike")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != model.CaseResolved {
		t.Errorf("status = %q, want resolved", resolved.Status)
	}

	acct, _ := as.GetByID(subject.ID)
	if acct.WarningCount != 1 {
		t.Errorf("warning_count = %d, want 1", acct.WarningCount)
	}
	if acct.Status != model.AccountActive {
		t.Errorf("account status = %q, want active", acct.Status)
	}
}

func TestResolveSuspend(t *testing.T) {
	ms, as := setupModerationTestDB(t)

	subject, _ := as.Create("subject@example.com", "Subject", "secret", "member", nil)
	c, _ := ms.Create(subject.ID, "post:42", model.SeverityHigh, nil)

	resolved, err := ms.Resolve(c.ID, model.ActionSuspend, "repeat fraud")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != model.CaseResolved {
		t.Errorf("status = %q, want resolved", resolved.Status)
	}

	// Case resolution and suspension land in the same commit.
	acct, _ := as.GetByID(subject.ID)
	if acct.Status != model.AccountSuspended {
		t.Errorf("account status = %q, want suspended", acct.Status)
	}
}

func TestResolveEscalate(t *testing.T) {
	ms, as := setupModerationTestDB(t)

	subject, _ := as.Create("subject@example.com", "Subject", "secret", "member", nil)
	c, _ := ms.Create(subject.ID, "post:42", model.SeverityHigh, nil)

	escalated, err := ms.Resolve(c.ID, model.ActionEscalate, "needs review")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if escalated.Status != model.CaseInvestigating {
		t.Errorf("status = %q, want investigating", escalated.Status)
	}
	if escalated.ResolvedAt != nil {
		t.Error("escalated case should not have resolved_at")
	}

	// No account mutation on escalate.
	acct, _ := as.GetByID(subject.ID)
	if acct.WarningCount != 0 || acct.Status != model.AccountActive {
		t.Errorf("account mutated on escalate: warnings %d status %q", acct.WarningCount, acct.Status)
	}

	// Escalating twice is not a valid transition.
	if _, err := ms.Resolve(c.ID, model.ActionEscalate, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double escalate err = %v, want ErrInvalidTransition", err)
	}

	// An investigating case can still be resolved.
	resolved, err := ms.Resolve(c.ID, model.ActionSuspend, "confirmed")
	if err != nil {
		t.Fatalf("resolve after escalate: %v", err)
	}
	if resolved.Status != model.CaseResolved {
		t.Errorf("status = %q, want resolved", resolved.Status)
	}
}

func TestResolveTerminalCase(t *testing.T) {
	ms, as := setupModerationTestDB(t)

	subject, _ := as.Create("subject@example.com", "Subject", "secret", "member", nil)
	c, _ := ms.Create(subject.ID, "", model.SeverityLow, nil)
	ms.Resolve(c.ID, model.ActionDismiss, "")

	for _, action := range []model.CaseAction{model.ActionDismiss, model.ActionWarn, model.ActionSuspend, model.ActionEscalate} {
		if _, err := ms.Resolve(c.ID, action, ""); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("action %q on terminal case err = %v, want ErrInvalidTransition", action, err)
		}
	}

	acct, _ := as.GetByID(subject.ID)
	if acct.WarningCount != 0 {
		t.Errorf("warning_count = %d, want 0 after rejected actions", acct.WarningCount)
	}
}

func TestResolveUnknownCase(t *testing.T) {
	ms, _ := setupModerationTestDB(t)

	_, err := ms.Resolve(999, model.ActionDismiss, "")
	if !errors.Is(err, ErrCaseNotFound) {
		t.Fatalf("err = %v, want ErrCaseNotFound", err)
	}
}

func TestResolveInvalidAction(t *testing.T) {
	ms, as := setupModerationTestDB(t)

	subject, _ := as.Create("subject@example.com", "Subject", "secret", "member", nil)
	c, _ := ms.Create(subject.ID, "", model.SeverityLow, nil)

	_, err := ms.Resolve(c.ID, model.CaseAction("delete-everything"), "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestListCasesByStatus(t *testing.T) {
	ms, as := setupModerationTestDB(t)

	subject, _ := as.Create("subject@example.com", "Subject", "secret", "member", nil)
	c1, _ := ms.Create(subject.ID, "post:1", model.SeverityLow, nil)
	ms.Create(subject.ID, "post:2", model.SeverityLow, nil)
	ms.Resolve(c1.ID, model.ActionDismiss, "")

	pending, err := ms.List(model.CasePending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d, want 1", len(pending))
	}

	all, err := ms.List("")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d, want 2", len(all))
	}
}
