// Package middleware holds the HTTP middleware shared by every route.
package middleware

import (
	"context"
	"net/http"

	"github.com/diewo77/client-ledger/i18n"
	"github.com/diewo77/client-ledger/internal/currency"
)

const (
	LangCookie     = "lang"
	CurrencyCookie = "currency"

	prefMaxAge = 86400 * 365
)

type currencyKey struct{}

// Prefs resolves the display language (cookie > query > Accept-Language)
// and display currency (cookie) and stores them in the request context.
// A lang query parameter is persisted as a cookie.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie(LangCookie); err == nil {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); ql != "" && i18n.Supported(ql) {
			lang = ql
			setPref(w, r, LangCookie, lang)
		}
		if !i18n.Supported(lang) {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}

		code := currency.Default
		if c, err := r.Cookie(CurrencyCookie); err == nil {
			if parsed, ok := currency.ParseCode(c.Value); ok {
				code = parsed
			}
		}

		ctx := i18n.WithLang(r.Context(), lang)
		ctx = context.WithValue(ctx, currencyKey{}, code)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetCurrency persists the display currency preference.
func SetCurrency(w http.ResponseWriter, r *http.Request, code currency.Code) {
	setPref(w, r, CurrencyCookie, string(code))
}

func setPref(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   prefMaxAge,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

// LangFrom returns the request language.
func LangFrom(r *http.Request) string {
	return i18n.LangFromContext(r.Context())
}

// CurrencyFrom returns the request display currency.
func CurrencyFrom(r *http.Request) currency.Code {
	if c, ok := r.Context().Value(currencyKey{}).(currency.Code); ok {
		return c
	}
	return currency.Default
}
