// Package db opens the relational store, applies migrations and seeds sample data.
package db

import (
	"fmt"
	"regexp"
	"time"

	"github.com/diewo77/client-ledger/internal/config"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var passwordRe = regexp.MustCompile(`(password=)(\S+)`)

// Open connects using cfg, retrying to give Postgres time to start.
func Open(cfg config.DatabaseConfig, debug bool, log logrus.FieldLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path + "?_busy_timeout=5000&_foreign_keys=on")
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}

	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < 5; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = conn.Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		log.WithError(err).Warnf("database connection attempt %d/5 failed", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY under load.
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	log.WithField("dsn", MaskDSN(describe(cfg))).Info("database connected")
	return conn, nil
}

func describe(cfg config.DatabaseConfig) string {
	if cfg.Driver == "sqlite" {
		return "sqlite:" + cfg.Path
	}
	return cfg.DSN()
}

// MaskDSN hides the password of a key=value DSN.
func MaskDSN(dsn string) string {
	return passwordRe.ReplaceAllString(dsn, `${1}***`)
}
