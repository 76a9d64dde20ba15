package auth

import (
	"net/http"

	"github.com/markbates/goth/gothic"
)

const SessionName = "gallery_session"

// AdminOnly gates the edit surface behind the single configured admin
// identity: the session email set at login must match exactly. Missing
// session yields 401, any other email 403.
func AdminOnly(adminEmail string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := gothic.Store.Get(r, SessionName)
			if err != nil {
				http.Error(w, "Not Authorized", http.StatusUnauthorized)
				return
			}

			email, ok := session.Values["email"].(string)
			if !ok || email == "" {
				http.Error(w, "Not Authorized", http.StatusUnauthorized)
				return
			}
			if email != adminEmail {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
