package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/diewo77/client-ledger/internal/config"
	"github.com/diewo77/client-ledger/internal/db"
	"github.com/diewo77/client-ledger/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "0", RateLimit: 5, RateBurst: 20},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "app.db")},
		App:      config.AppConfig{Dev: true, LogLevel: "error"},
		Auth: config.AuthConfig{
			SessionSecret: "test-secret",
			SessionTTL:    time.Hour,
			AdminEmails:   []string{"owner@agency.test"},
		},
		Currency: config.CurrencyConfig{Schedule: "@every 1h", FallbackRate: 1470},
	}
}

func TestApp_Healthz(t *testing.T) {
	cfg := testConfig(t)
	log := logging.Discard()
	conn, err := db.Open(cfg.Database, false, log)
	require.NoError(t, err)
	require.NoError(t, migrate(cfg, conn))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app, err := NewApp(ctx, cfg, conn, log)
	require.NoError(t, err)
	require.NoError(t, app.Start(ctx))
	defer app.Close()

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "sign-in answers 503 without credentials")

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApp_SweepPurgesExpiredMirrors(t *testing.T) {
	cfg := testConfig(t)
	log := logging.Discard()
	conn, err := db.Open(cfg.Database, false, log)
	require.NoError(t, err)
	require.NoError(t, migrate(cfg, conn))
	ctx := context.Background()
	app, err := NewApp(ctx, cfg, conn, log)
	require.NoError(t, err)
	defer app.Close()
	require.NotNil(t, app.memory)

	require.NoError(t, app.memory.Set(ctx, "demo_clients:gone", []byte("[]"), time.Millisecond))
	require.NoError(t, app.memory.Set(ctx, "demo_clients:kept", []byte("[]"), time.Hour))
	time.Sleep(5 * time.Millisecond)

	_, keys := app.sweep()
	assert.Equal(t, 1, keys)
	assert.Equal(t, 1, app.memory.Len())
}

func TestApp_BadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Currency.Schedule = "not a schedule"
	log := logging.Discard()
	conn, err := db.Open(cfg.Database, false, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app, err := NewApp(ctx, cfg, conn, log)
	require.NoError(t, err)
	assert.Error(t, app.Start(ctx))
}

func TestRunReconcile(t *testing.T) {
	cfg := testConfig(t)
	log := logging.Discard()
	conn, err := db.Open(cfg.Database, false, log)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	_, err = db.Seed(conn)
	require.NoError(t, err)

	ctx := context.Background()
	n, err := runReconcile(ctx, conn, cfg.Auth.AdminEmails, log)
	require.NoError(t, err)
	assert.Zero(t, n, "seeded amounts already match their payments")

	require.NoError(t, conn.Exec("UPDATE clients SET amount_paid = amount_paid + 1").Error)
	n, err = runReconcile(ctx, conn, cfg.Auth.AdminEmails, log)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	_, err = runReconcile(ctx, conn, nil, log)
	assert.Error(t, err)
}
