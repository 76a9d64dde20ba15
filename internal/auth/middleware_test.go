package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth/gothic"
)

const adminEmail = "admin@example.com"

func protected() http.Handler {
	return AdminOnly(adminEmail)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func requestWithEmail(t *testing.T, email string) *http.Request {
	t.Helper()
	seed := httptest.NewRequest(http.MethodGet, "/edit/data", nil)
	rec := httptest.NewRecorder()
	session, err := gothic.Store.Get(seed, SessionName)
	if err != nil {
		t.Fatalf("getting session: %v", err)
	}
	session.Values["email"] = email
	if err := session.Save(seed, rec); err != nil {
		t.Fatalf("saving session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/edit/data", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

func TestAdminOnly(t *testing.T) {
	gothic.Store = sessions.NewCookieStore([]byte("test-secret"))
	h := protected()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/edit/data", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no session: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithEmail(t, "intruder@example.com"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong email: status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithEmail(t, adminEmail))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin email: status = %d, want 200", rec.Code)
	}
}
