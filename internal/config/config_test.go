package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "ADMIN_EMAILS", "EXCHANGE_RATE_FALLBACK", "DEV"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Currency.FallbackRate != 1470 {
		t.Errorf("FallbackRate = %v, want 1470", cfg.Currency.FallbackRate)
	}
	if len(cfg.Auth.AdminEmails) != 0 {
		t.Errorf("AdminEmails = %v, want empty", cfg.Auth.AdminEmails)
	}
	if !cfg.App.Dev {
		t.Error("Dev should default to true")
	}
	if cfg.Auth.SessionTTL != 14*24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.Auth.SessionTTL)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_EMAILS", " owner@agency.test, ,Second@Agency.test ")
	t.Setenv("MIGRATIONS", "YES")
	t.Setenv("EXCHANGE_RATE_FALLBACK", "1500.5")
	t.Setenv("DB_PORT", "not-a-number")

	cfg := Load()
	if cfg.Server.Port != "9090" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	want := []string{"owner@agency.test", "Second@Agency.test"}
	if len(cfg.Auth.AdminEmails) != 2 || cfg.Auth.AdminEmails[0] != want[0] || cfg.Auth.AdminEmails[1] != want[1] {
		t.Errorf("AdminEmails = %v, want %v", cfg.Auth.AdminEmails, want)
	}
	if !cfg.App.Migrations {
		t.Error("Migrations should be true")
	}
	if cfg.Currency.FallbackRate != 1500.5 {
		t.Errorf("FallbackRate = %v", cfg.Currency.FallbackRate)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("invalid DB_PORT should fall back to default, got %d", cfg.Database.Port)
	}
	if cfg.Auth.GoogleRedirectURL != "http://localhost:9090/auth/google/callback" {
		t.Errorf("GoogleRedirectURL = %q", cfg.Auth.GoogleRedirectURL)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5433, User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	if got, want := d.DSN(), "host=h port=5433 user=u password=p dbname=n sslmode=disable"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
	if got, want := d.URL(), "postgres://u:p@h:5433/n?sslmode=disable"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}
