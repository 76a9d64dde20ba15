package handlers

import (
	"net/http"

	"github.com/markbates/goth/gothic"
	"go.uber.org/zap"

	"github.com/hikinggallery/gallery-api/internal/auth"
)

// LoginCallbackHandler completes the OAuth flow and stores the verified
// email in the session. There is no user record to provision: the edit
// middleware compares this email against the one configured admin address.
func LoginCallbackHandler(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	user, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		log.Error("auth callback failed", zap.Error(err))
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	session, err := gothic.Store.Get(r, auth.SessionName)
	if err != nil {
		log.Error("failed to get session", zap.Error(err))
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	session.Values["email"] = user.Email

	if err := session.Save(r, w); err != nil {
		log.Error("failed to save session", zap.Error(err))
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/edit", http.StatusTemporaryRedirect)
}
