package auth

import (
	"context"
	"testing"

	"github.com/mghoffman/perkhive/internal/model"
)

func TestWithAuthAndFromContext(t *testing.T) {
	venueID := int64(7)
	ac := AuthContext{
		AccountID: 1,
		Role:      model.RoleStaff,
		VenueID:   &venueID,
		SessionID: 3,
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.AccountID != 1 {
		t.Errorf("AccountID = %d, want 1", got.AccountID)
	}
	if got.Role != model.RoleStaff {
		t.Errorf("Role = %q, want %q", got.Role, model.RoleStaff)
	}
	if got.VenueID == nil || *got.VenueID != 7 {
		t.Errorf("VenueID = %v, want 7", got.VenueID)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestRoleHelpers(t *testing.T) {
	if IsAdmin(context.Background()) {
		t.Error("empty context should not be admin")
	}
	if IsStaff(context.Background()) {
		t.Error("empty context should not be staff")
	}

	adminCtx := WithAuth(context.Background(), AuthContext{AccountID: 1, Role: model.RoleAdmin})
	if !IsAdmin(adminCtx) {
		t.Error("admin context should be admin")
	}
	if !IsStaff(adminCtx) {
		t.Error("admins can do everything staff can")
	}

	memberCtx := WithAuth(context.Background(), AuthContext{AccountID: 2, Role: model.RoleMember})
	if IsStaff(memberCtx) {
		t.Error("member context should not be staff")
	}
	if VenueID(memberCtx) != 0 {
		t.Errorf("VenueID = %d, want 0 for member", VenueID(memberCtx))
	}
}
