// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing JSON in production and text in dev.
func New(level string, dev bool) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, dev)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(w io.Writer, level string, dev bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	if dev {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Discard is a logger for tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
