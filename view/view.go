// Package view renders the printable client statement.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/diewo77/client-ledger/i18n"
	"github.com/diewo77/client-ledger/internal/currency"
	"github.com/diewo77/client-ledger/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

var (
	parseOnce sync.Once
	base      *template.Template
	parseErr  error
)

// Statement is the data of one rendered statement.
type Statement struct {
	Client   store.ClientView
	Lang     string
	Currency currency.Code
	Rate     float64
	IssuedAt time.Time
}

// Badge returns the i18n code of the payment status badge.
func (s Statement) Badge() string {
	switch {
	case s.Client.FullyPaid:
		return "status_fully_paid"
	case s.Client.Unpaid:
		return "status_unpaid"
	default:
		return "status_partial"
	}
}

// Batch is a payment with its display number; the oldest payment is batch 1.
type Batch struct {
	Number int
	store.PaymentView
}

// Batches lists payments newest first, numbered from the oldest.
func (s Statement) Batches() []Batch {
	n := len(s.Client.Payments)
	out := make([]Batch, 0, n)
	for i, p := range s.Client.Payments {
		out = append(out, Batch{Number: n - i, PaymentView: p})
	}
	return out
}

// Funcs returns the template helpers bound to lang and the display currency.
func Funcs(lang string, code currency.Code, rate float64) template.FuncMap {
	return template.FuncMap{
		"t":     func(key string) string { return i18n.T(lang, key) },
		"lang":  func() string { return lang },
		"dir":   func() string { return i18n.Dir(lang) },
		"money": func(amount float64) string { return currency.Format(amount, code, rate) },
		"date":  func(t time.Time) string { return t.Format("02 Jan 2006") },
		"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	}
}

func parse() {
	base, parseErr = template.New("statement.html").
		Funcs(Funcs(i18n.Default, currency.Default, currency.FallbackRate)).
		ParseFS(templatesFS, "templates/*.html")
}

// RenderStatement writes the statement document to w.
func RenderStatement(w io.Writer, s Statement) error {
	parseOnce.Do(parse)
	if parseErr != nil {
		return fmt.Errorf("parse templates: %w", parseErr)
	}
	if !i18n.Supported(s.Lang) {
		s.Lang = i18n.Default
	}
	if s.IssuedAt.IsZero() {
		s.IssuedAt = time.Now()
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	t.Funcs(Funcs(s.Lang, s.Currency, s.Rate))
	return t.ExecuteTemplate(w, "statement.html", s)
}

// WriteStatement renders s as an HTML response.
func WriteStatement(w http.ResponseWriter, s Statement) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return RenderStatement(w, s)
}
