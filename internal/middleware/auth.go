package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mghoffman/perkhive/internal/auth"
	"github.com/mghoffman/perkhive/internal/model"
	"github.com/mghoffman/perkhive/internal/store"
)

const sessionCookieName = "perkhive_session"

// sessionToken pulls the token from the Authorization header or the session
// cookie. API clients use Bearer tokens; the web frontend uses the cookie.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth validates the session and populates AuthContext. Suspended
// accounts are rejected outright; moderation suspension revokes access to
// every authenticated surface, not just point earning.
func RequireAuth(sessionStore *store.SessionStore, accountStore *store.AccountStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, err := sessionStore.GetByToken(token)
			if err != nil || sess == nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			account, err := accountStore.GetByID(sess.AccountID)
			if err != nil || account == nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			if account.Status == model.AccountSuspended {
				writeAuthError(w, http.StatusForbidden, "account suspended")
				return
			}

			ac := auth.AuthContext{
				AccountID: account.ID,
				Role:      account.Role,
				VenueID:   account.VenueID,
				SessionID: sess.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff checks that the authenticated account is venue staff or admin.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsStaff(r.Context()) {
			writeAuthError(w, http.StatusForbidden, "staff access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin checks that the authenticated account has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeAuthError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
