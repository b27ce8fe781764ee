package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/client-ledger/internal/config"
	"github.com/diewo77/client-ledger/internal/db"
	"github.com/diewo77/client-ledger/internal/logging"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Seed the sample clients and exit")
	clearDBFlag     = flag.Bool("clear-db", false, "Delete every client, note and payment and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.App.LogLevel, cfg.App.Dev)

	dbConn, err := db.Open(cfg.Database, cfg.App.Dev && cfg.App.LogLevel == "debug", log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	switch {
	case *migrateOnlyFlag:
		if err := migrate(cfg, dbConn); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations completed successfully")
		return
	case *seedOnlyFlag:
		n, err := db.Seed(dbConn)
		if err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
		log.WithField("inserted", n).Info("seeding completed successfully")
		return
	case *reconcileFlag:
		n, err := runReconcile(context.Background(), dbConn, cfg.Auth.AdminEmails, log)
		if err != nil {
			log.WithError(err).Fatal("reconcile failed")
		}
		log.WithField("changed", n).Info("reconcile done")
		return
	case *clearDBFlag:
		if err := db.Clear(dbConn); err != nil {
			log.WithError(err).Fatal("clear failed")
		}
		log.Info("database cleared")
		return
	}

	if cfg.App.Migrations || cfg.App.Dev {
		if err := migrate(cfg, dbConn); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
	}
	if cfg.App.Seed {
		if n, err := db.Seed(dbConn); err != nil {
			log.WithError(err).Fatal("seeding failed")
		} else if n > 0 {
			log.WithField("inserted", n).Info("seeded sample clients")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, cfg, dbConn, log)
	if err != nil {
		log.WithError(err).Fatal("failed to start application")
	}
	defer app.Close()
	if err := app.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to start background jobs")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Server.Port, "dev": cfg.App.Dev}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server stopped gracefully")
}

// migrate applies the versioned SQL migrations on Postgres and AutoMigrate
// on sqlite.
func migrate(cfg *config.Config, conn *gorm.DB) error {
	if cfg.Database.Driver == "sqlite" {
		return db.Migrate(conn)
	}
	return db.RunSQLMigrations(cfg.Database.URL())
}
