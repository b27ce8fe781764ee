// Package server assembles the HTTP routes and middleware.
package server

import (
	"net/http"

	"github.com/diewo77/client-ledger/auth"
	"github.com/diewo77/client-ledger/httpx"
	"github.com/diewo77/client-ledger/internal/analytics"
	"github.com/diewo77/client-ledger/internal/clients"
	"github.com/diewo77/client-ledger/internal/currency"
	"github.com/diewo77/client-ledger/internal/handlers"
	"github.com/diewo77/client-ledger/internal/metrics"
	"github.com/diewo77/client-ledger/internal/middleware"
	"github.com/diewo77/client-ledger/internal/policy"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes need.
type Deps struct {
	DB             *gorm.DB
	Registry       *clients.Registry
	Sessions       *auth.Manager
	Google         *auth.Google
	Gate           *policy.AuthGate
	Rates          *currency.Provider
	Analytics      *analytics.Client
	DefaultProject string
	Limiter        *middleware.RateLimiter
	Secure         bool
	Log            logrus.FieldLogger
}

// New constructs the root http.Handler with all routes and middleware applied.
func New(d Deps) http.Handler {
	app := http.NewServeMux()

	ah := handlers.NewAuthHandler(d.Sessions, d.Google, d.Secure, d.Log)
	app.HandleFunc("GET /auth/google", ah.Login)
	app.HandleFunc("GET /auth/google/callback", ah.Callback)
	app.HandleFunc("POST /logout", ah.Logout)
	app.HandleFunc("GET /api/session", ah.Session)

	ch := handlers.NewClientHandler(d.Registry, d.Rates, d.Log)
	app.HandleFunc("GET /api/clients", ch.List)
	app.HandleFunc("POST /api/clients", ch.Create)
	app.HandleFunc("GET /api/clients/{id}", ch.Get)
	app.HandleFunc("PUT /api/clients/{id}", ch.Update)
	app.HandleFunc("PATCH /api/clients/{id}/status", ch.UpdateStatus)
	app.HandleFunc("POST /api/clients/{id}/payments", ch.AddPayment)
	app.HandleFunc("POST /api/clients/{id}/notes", ch.AddNote)
	app.HandleFunc("DELETE /api/clients/{id}", ch.Delete)
	app.HandleFunc("POST /api/demo/reset", ch.ResetDemo)
	app.HandleFunc("GET /api/stats", ch.Stats)
	app.HandleFunc("GET /clients/{id}/statement", ch.Statement)

	cur := handlers.NewCurrencyHandler(d.Rates)
	app.HandleFunc("GET /api/currency", cur.Get)
	app.HandleFunc("POST /api/currency", cur.Set)

	an := handlers.NewAnalyticsHandler(d.Analytics, d.DefaultProject)
	adminOnly := d.Gate.RequireAdmin(policy.ResourceAnalytics)
	app.Handle("GET /api/analytics", adminOnly(http.HandlerFunc(an.Projects)))
	app.Handle("GET /api/analytics/{projectId}", adminOnly(http.HandlerFunc(an.Summary)))

	app.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	})

	var sessioned http.Handler = app
	if d.Limiter != nil {
		sessioned = d.Limiter.Handler(sessioned)
	}
	sessioned = d.Sessions.Middleware(middleware.Prefs(sessioned))

	root := http.NewServeMux()
	hh := handlers.NewHealthHandler(d.DB, d.Rates)
	root.HandleFunc("GET /health", hh.Live)
	root.HandleFunc("GET /healthz", hh.Ready)
	root.Handle("GET /metrics", metrics.Handler())
	root.Handle("/", sessioned)

	return middleware.Chain(root,
		middleware.Recover(d.Log),
		middleware.RequestLogger(d.Log),
		metrics.InstrumentHandler,
	)
}
