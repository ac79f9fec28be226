package auth

import (
	"context"

	"github.com/mghoffman/perkhive/internal/model"
)

type contextKey struct{}

// AuthContext carries the authenticated identity for a request. Mutating
// operations take their account id from here, never from the request body.
type AuthContext struct {
	AccountID int64
	Role      string
	VenueID   *int64
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func AccountID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.AccountID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleAdmin
}

// IsStaff reports whether the request comes from venue staff (or an admin).
func IsStaff(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleStaff || ac.Role == model.RoleAdmin
}

// VenueID returns the staff member's venue, or 0 when the caller has none.
func VenueID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok || ac.VenueID == nil {
		return 0
	}
	return *ac.VenueID
}
