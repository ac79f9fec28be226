package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mghoffman/perkhive/internal/auth"
	"github.com/mghoffman/perkhive/internal/database"
	"github.com/mghoffman/perkhive/internal/model"
	"github.com/mghoffman/perkhive/internal/store"
)

func setupAuthTest(t *testing.T) (*store.SessionStore, *store.AccountStore, *store.ModerationStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewAccountStore(db), store.NewModerationStore(db)
}

func authedHandler(t *testing.T, gotAccount *int64) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Error("handler reached without AuthContext")
		}
		*gotAccount = ac.AccountID
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthNoToken(t *testing.T) {
	ss, as, _ := setupAuthTest(t)

	var got int64
	handler := RequireAuth(ss, as)(authedHandler(t, &got))

	req := httptest.NewRequest("GET", "/api/balance", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthBearerToken(t *testing.T) {
	ss, as, _ := setupAuthTest(t)

	acct, _ := as.Create("alice@example.com", "Alice", "secret", "member", nil)
	sess, _ := ss.Create(acct.ID, time.Hour)

	var got int64
	handler := RequireAuth(ss, as)(authedHandler(t, &got))

	req := httptest.NewRequest("GET", "/api/balance", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got != acct.ID {
		t.Errorf("account id in context = %d, want %d", got, acct.ID)
	}
}

func TestRequireAuthCookie(t *testing.T) {
	ss, as, _ := setupAuthTest(t)

	acct, _ := as.Create("bob@example.com", "Bob", "secret", "member", nil)
	sess, _ := ss.Create(acct.ID, time.Hour)

	var got int64
	handler := RequireAuth(ss, as)(authedHandler(t, &got))

	req := httptest.NewRequest("GET", "/api/balance", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAuthExpiredSession(t *testing.T) {
	ss, as, _ := setupAuthTest(t)

	acct, _ := as.Create("carol@example.com", "Carol", "secret", "member", nil)
	sess, _ := ss.Create(acct.ID, -time.Minute)

	var got int64
	handler := RequireAuth(ss, as)(authedHandler(t, &got))

	req := httptest.NewRequest("GET", "/api/balance", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthSuspendedAccount(t *testing.T) {
	ss, as, ms := setupAuthTest(t)

	acct, _ := as.Create("dave@example.com", "Dave", "secret", "member", nil)
	sess, _ := ss.Create(acct.ID, time.Hour)

	c, _ := ms.Create(acct.ID, "post:1", model.SeverityHigh, nil)
	if _, err := ms.Resolve(c.ID, model.ActionSuspend, "fraud"); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	var got int64
	handler := RequireAuth(ss, as)(authedHandler(t, &got))

	req := httptest.NewRequest("GET", "/api/balance", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequireStaff(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest("POST", "/api/vouchers/validate", nil)
	memberCtx := auth.WithAuth(req.Context(), auth.AuthContext{AccountID: 1, Role: model.RoleMember})
	rec := httptest.NewRecorder()
	RequireStaff(ok).ServeHTTP(rec, req.WithContext(memberCtx))
	if rec.Code != http.StatusForbidden {
		t.Errorf("member: status = %d, want 403", rec.Code)
	}

	staffCtx := auth.WithAuth(req.Context(), auth.AuthContext{AccountID: 2, Role: model.RoleStaff})
	rec = httptest.NewRecorder()
	RequireStaff(ok).ServeHTTP(rec, req.WithContext(staffCtx))
	if rec.Code != http.StatusOK {
		t.Errorf("staff: status = %d, want 200", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest("POST", "/api/moderation/cases/1/resolve", nil)
	staffCtx := auth.WithAuth(req.Context(), auth.AuthContext{AccountID: 2, Role: model.RoleStaff})
	rec := httptest.NewRecorder()
	RequireAdmin(ok).ServeHTTP(rec, req.WithContext(staffCtx))
	if rec.Code != http.StatusForbidden {
		t.Errorf("staff: status = %d, want 403", rec.Code)
	}

	adminCtx := auth.WithAuth(req.Context(), auth.AuthContext{AccountID: 3, Role: model.RoleAdmin})
	rec = httptest.NewRecorder()
	RequireAdmin(ok).ServeHTTP(rec, req.WithContext(adminCtx))
	if rec.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", rec.Code)
	}
}
