package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/client-ledger/httpx"
	"github.com/diewo77/client-ledger/internal/clients"
	"github.com/diewo77/client-ledger/internal/currency"
	"github.com/diewo77/client-ledger/internal/middleware"
	"github.com/diewo77/client-ledger/internal/models"
	"github.com/diewo77/client-ledger/internal/store"
	"github.com/diewo77/client-ledger/validation"
	"github.com/diewo77/client-ledger/view"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ClientHandler serves the client API for the session's store.
type ClientHandler struct {
	Registry *clients.Registry
	Rates    *currency.Provider
	Log      logrus.FieldLogger
}

// NewClientHandler creates a client handler.
func NewClientHandler(reg *clients.Registry, rates *currency.Provider, log logrus.FieldLogger) *ClientHandler {
	return &ClientHandler{Registry: reg, Rates: rates, Log: log}
}

func (h *ClientHandler) store(r *http.Request) *clients.Store {
	return h.Registry.For(r.Context(), identity(r))
}

// List returns the filtered client table. Admin stores are revalidated
// first; a failed reload serves the cached list with a notice.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := clients.Query{
		Search: q.Get("q"),
		Preset: clients.ParsePreset(q.Get("preset")),
		Sort:   clients.ParseSort(q.Get("sort")),
	}
	if st := strings.ToUpper(strings.TrimSpace(q.Get("status"))); st != "" && st != "ALL" {
		query.Status = models.Status(st)
		v := validation.Violations{}
		validation.OneOf("status", query.Status, models.Statuses, v)
		if !v.Empty() {
			badRequest(w, v)
			return
		}
	}
	s := h.store(r)
	_ = s.Revalidate(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]any{
		"clients":  s.Query(query),
		"demo":     !s.Admin(),
		"fallback": s.Fallback(),
		"notice":   drainNotice(r, s),
	})
}

// Get returns one client with its payment history.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.store(r).Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"client": c})
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in store.CreateClientInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	s := h.store(r)
	c, err := s.Create(r.Context(), in)
	if err != nil {
		writeStoreError(w, r, s, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"client": c, "notice": drainNotice(r, s)})
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in store.UpdateClientInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	s := h.store(r)
	c, err := s.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeStoreError(w, r, s, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"client": c, "notice": drainNotice(r, s)})
}

func (h *ClientHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status models.Status `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	s := h.store(r)
	c, err := s.UpdateStatus(r.Context(), r.PathValue("id"), models.Status(strings.ToUpper(string(body.Status))))
	if err != nil {
		writeStoreError(w, r, s, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"client": c, "notice": drainNotice(r, s)})
}

func (h *ClientHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	s := h.store(r)
	c, err := s.AddPayment(r.Context(), r.PathValue("id"), body.Amount)
	if err != nil {
		writeStoreError(w, r, s, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"client": c, "notice": drainNotice(r, s)})
}

func (h *ClientHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	s := h.store(r)
	n, err := s.AddNote(r.Context(), r.PathValue("id"), body.Content)
	if err != nil {
		writeStoreError(w, r, s, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"note": n, "notice": drainNotice(r, s)})
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s := h.store(r)
	id := r.PathValue("id")
	if err := s.Delete(r.Context(), id); err != nil {
		writeStoreError(w, r, s, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id, "notice": drainNotice(r, s)})
}

// ResetDemo clears the session's demo mirror. Admin sessions are unchanged.
func (h *ClientHandler) ResetDemo(w http.ResponseWriter, r *http.Request) {
	s := h.store(r)
	if err := s.ResetDemoData(r.Context()); err != nil {
		writeStoreError(w, r, s, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"clients": s.Clients(), "notice": drainNotice(r, s)})
}

// Stats returns the stat cards, with amounts also formatted in the display
// currency.
func (h *ClientHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st := h.store(r).Stats()
	code := middleware.CurrencyFrom(r)
	formatted := map[string]string{
		"totalRevenue":       h.Rates.Format(st.TotalRevenue, code),
		"outstandingBalance": h.Rates.Format(st.OutstandingBalance, code),
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"stats":     st,
		"currency":  code,
		"formatted": formatted,
	})
}

// Statement renders the printable statement of one client.
func (h *ClientHandler) Statement(w http.ResponseWriter, r *http.Request) {
	c, err := h.store(r).Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	err = view.WriteStatement(w, view.Statement{
		Client:   c,
		Lang:     middleware.LangFrom(r),
		Currency: middleware.CurrencyFrom(r),
		Rate:     h.Rates.Rate(),
	})
	if err != nil {
		h.Log.WithError(err).WithField("client", c.ID).Error("render statement")
	}
}
