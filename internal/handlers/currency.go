package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/client-ledger/httpx"
	"github.com/diewo77/client-ledger/internal/currency"
	"github.com/diewo77/client-ledger/internal/middleware"
	"github.com/diewo77/client-ledger/validation"
)

// CurrencyHandler reads and sets the display currency preference.
type CurrencyHandler struct {
	Rates *currency.Provider
}

func NewCurrencyHandler(rates *currency.Provider) *CurrencyHandler {
	return &CurrencyHandler{Rates: rates}
}

func (h *CurrencyHandler) payload(code currency.Code) map[string]any {
	snap := h.Rates.Snapshot()
	return map[string]any{
		"currency":  code,
		"rate":      snap.Rate,
		"source":    snap.Source,
		"fetchedAt": snap.FetchedAt,
	}
}

func (h *CurrencyHandler) Get(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.payload(middleware.CurrencyFrom(r)))
}

// Set switches the display currency. Stored amounts are untouched.
func (h *CurrencyHandler) Set(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Currency string `json:"currency"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	code := currency.Code(strings.ToUpper(strings.TrimSpace(body.Currency)))
	v := validation.Violations{}
	validation.OneOf("currency", code, currency.Codes, v)
	if !v.Empty() {
		badRequest(w, v)
		return
	}
	middleware.SetCurrency(w, r, code)
	httpx.JSON(w, http.StatusOK, h.payload(code))
}
