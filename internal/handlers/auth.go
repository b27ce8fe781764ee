package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/client-ledger/auth"
	"github.com/diewo77/client-ledger/httpx"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const stateCookie = "oauth_state"

// AuthHandler runs Google sign-in and exposes the session.
type AuthHandler struct {
	Sessions *auth.Manager
	Google   *auth.Google // nil when OAuth is not configured
	Secure   bool
	Log      logrus.FieldLogger
}

func NewAuthHandler(sessions *auth.Manager, google *auth.Google, secure bool, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{Sessions: sessions, Google: google, Secure: secure, Log: log}
}

func (h *AuthHandler) unavailable(w http.ResponseWriter) bool {
	if h.Google == nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "sign_in_not_configured", nil)
		return true
	}
	return false
}

// Login redirects to the Google consent screen.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.Google.AuthCodeURL(state), http.StatusFound)
}

// Callback completes sign-in and replaces the anonymous session with a
// signed-in one. The demo session id is not carried over.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_state", nil)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/auth", MaxAge: -1})

	if e := r.URL.Query().Get("error"); e != "" {
		h.Log.WithField("error", e).Info("sign-in cancelled")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	profile, err := h.Google.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.Log.WithError(err).Warn("google sign-in failed")
		httpx.JSONError(w, http.StatusBadGateway, "sign_in_failed", nil)
		return
	}
	id, err := h.Sessions.Issue(w, auth.Identity{Name: profile.Name, Email: profile.Email, Image: profile.Picture})
	if err != nil {
		h.Log.WithError(err).Error("issue session")
		httpx.JSONError(w, http.StatusInternalServerError, "session_error", nil)
		return
	}
	h.Log.WithFields(logrus.Fields{"email": id.Email, "admin": id.IsAdmin}).Info("signed in")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout drops the session cookie; the next request gets a new demo session.
// It is only routed for POST so a cross-site GET cannot sign users out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the current identity.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":     id,
		"signedIn": id.SignedIn(),
		"demo":     !id.IsAdmin,
		"signIn":   h.Google != nil,
	})
}
