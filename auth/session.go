// Package auth carries the session identity: a signed JWT cookie created after
// Google sign-in, or an anonymous demo session for everybody else.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookieName = "session"
	defaultTTL        = 14 * 24 * time.Hour
)

// Identity is who the current request acts for. IsAdmin is always computed
// server-side from Email and never read from the token.
type Identity struct {
	SessionID string `json:"-"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Image     string `json:"image,omitempty"`
	IsAdmin   bool   `json:"isAdmin"`
}

// SignedIn reports whether the identity came from a provider sign-in.
func (i Identity) SignedIn() bool { return i.Email != "" }

// AdminChecker decides admin membership for an e-mail address.
type AdminChecker interface {
	IsAdmin(email string) bool
}

type sessionClaims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session cookies.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	admins AdminChecker
	now    func() time.Time
}

// Secret returns SESSION_SECRET or default dev value.
func Secret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

// NewManager creates a session manager. A zero ttl means fourteen days.
func NewManager(secret string, ttl time.Duration, secure bool, admins AdminChecker) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secure, admins: admins, now: time.Now}
}

// Issue writes a session cookie for id, allocating a session id when it has
// none, and returns the identity as it will be seen on the next request.
func (m *Manager) Issue(w http.ResponseWriter, id Identity) (Identity, error) {
	if id.SessionID == "" {
		id.SessionID = uuid.NewString()
	}
	now := m.now()
	claims := sessionClaims{
		Name:    id.Name,
		Email:   id.Email,
		Picture: id.Image,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.SessionID,
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Identity{}, fmt.Errorf("sign session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(m.ttl),
	})
	id.IsAdmin = m.isAdmin(id.Email)
	return id, nil
}

// Clear deletes the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// Parse validates the session cookie of r.
func (m *Manager) Parse(r *http.Request) (Identity, error) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return Identity{}, errors.New("no session cookie")
	}
	var claims sessionClaims
	_, err = jwt.ParseWithClaims(c.Value, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, fmt.Errorf("parse session: %w", err)
	}
	if claims.ID == "" {
		return Identity{}, errors.New("parse session: missing session id")
	}
	return Identity{
		SessionID: claims.ID,
		Name:      claims.Name,
		Email:     claims.Email,
		Image:     claims.Picture,
		IsAdmin:   m.isAdmin(claims.Email),
	}, nil
}

func (m *Manager) isAdmin(email string) bool {
	return email != "" && m.admins != nil && m.admins.IsAdmin(email)
}

// Middleware attaches the session identity to the request context. Requests
// without a valid session get a fresh anonymous (demo) session, flagged with
// Fresh for the rest of the request.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := m.Parse(r)
		if err != nil {
			id, err = m.Issue(w, Identity{})
			if err != nil {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			ctx = context.WithValue(ctx, freshKey{}, true)
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
	})
}

type (
	identityKey struct{}
	freshKey    struct{}
)

// Fresh reports whether the session was issued by this request rather than
// presented by the client.
func Fresh(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshKey{}).(bool)
	return fresh
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext extracts the request identity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
