package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/diewo77/client-ledger/auth"
	"github.com/diewo77/client-ledger/internal/analytics"
	"github.com/diewo77/client-ledger/internal/clients"
	"github.com/diewo77/client-ledger/internal/config"
	"github.com/diewo77/client-ledger/internal/currency"
	"github.com/diewo77/client-ledger/internal/kv"
	"github.com/diewo77/client-ledger/internal/metrics"
	"github.com/diewo77/client-ledger/internal/middleware"
	"github.com/diewo77/client-ledger/internal/policy"
	"github.com/diewo77/client-ledger/internal/server"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	mirrorTTL     = 30 * 24 * time.Hour
	storeIdle     = 2 * time.Hour
	sweepInterval = 10 * time.Minute
	redisPrefix   = "ledger:"
)

// App owns the long-lived collaborators of the server.
type App struct {
	cfg      *config.Config
	log      logrus.FieldLogger
	storage  kv.Storage
	memory   *kv.Memory
	registry *clients.Registry
	rates    *currency.Provider
	limiter  *middleware.RateLimiter
	handler  http.Handler
	closers  []func() error
}

// NewApp wires storage, policy, sessions, stores and routes.
func NewApp(ctx context.Context, cfg *config.Config, db *gorm.DB, log logrus.FieldLogger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	if cfg.Redis.Addr != "" {
		r, err := kv.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisPrefix)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.storage = r
		a.closers = append(a.closers, r.Close)
		log.WithField("addr", cfg.Redis.Addr).Info("demo mirror and rate cache in redis")
	} else {
		a.memory = kv.NewMemory()
		a.storage = a.memory
		log.Info("demo mirror and rate cache in memory")
	}

	admins := policy.NewAdminList(cfg.Auth.AdminEmails)
	if admins.Len() == 0 {
		log.Warn("ADMIN_EMAILS is empty, every session runs in demo mode")
	}
	ag := policy.NewAuthGate(admins)
	secure := !cfg.App.Dev
	sessions := auth.NewManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, secure, admins)
	google := auth.NewGoogle(cfg.Auth.GoogleClientID, cfg.Auth.GoogleClientSecret, cfg.Auth.GoogleRedirectURL)
	if google == nil {
		log.Warn("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set, sign-in disabled")
	}

	a.registry = clients.NewRegistry(clients.Backends{
		DB:        db,
		Authz:     ag.Gate,
		Admins:    admins,
		Mirror:    a.storage,
		MirrorTTL: mirrorTTL,
		Log:       log,
	}, storeIdle)

	fetcher := currency.NewAPIFetcher(cfg.Currency.BaseURL, cfg.Currency.APIKey)
	if fetcher == nil {
		log.Warn("EXCHANGE_RATE_API_KEY not set, using the fallback rate")
	}
	a.rates = currency.NewProvider(fetcher, a.storage, cfg.Currency.FallbackRate, log)
	a.rates.Observe(metrics.RecordRateRefresh)

	a.limiter = middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, log)

	a.handler = server.New(server.Deps{
		DB:             db,
		Registry:       a.registry,
		Sessions:       sessions,
		Google:         google,
		Gate:           ag,
		Rates:          a.rates,
		Analytics:      analytics.NewClient(cfg.Analytics.Host, cfg.Analytics.APIKey, log),
		DefaultProject: cfg.Analytics.ProjectID,
		Limiter:        a.limiter,
		Secure:         secure,
		Log:            log,
	})
	return a, nil
}

// Handler is the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Start launches the background jobs: the exchange rate refresher, the
// store sweeper and the limiter cleanup. They stop when ctx is done.
func (a *App) Start(ctx context.Context) error {
	a.rates.Warm(ctx)
	stop, err := a.rates.Start(ctx, a.cfg.Currency.Schedule)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error { stop(); return nil })

	a.limiter.StartCleanup(ctx, sweepInterval)
	go func() {
		t := time.NewTicker(sweepInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				a.sweep()
			}
		}
	}()
	return nil
}

// sweep drops idle client stores and, for in-memory storage, expired keys.
func (a *App) sweep() (stores, keys int) {
	stores = a.registry.Sweep()
	if a.memory != nil {
		keys = a.memory.Purge()
	}
	if stores > 0 || keys > 0 {
		a.log.WithFields(logrus.Fields{"stores": stores, "keys": keys}).Debug("swept expired state")
	}
	return stores, keys
}

// Close releases what NewApp and Start opened, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("close")
		}
	}
}
