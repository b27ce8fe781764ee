package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/client-ledger/auth"
	"github.com/diewo77/client-ledger/gate"
	"github.com/diewo77/client-ledger/httpx"
	"github.com/diewo77/client-ledger/internal/clients"
	"github.com/diewo77/client-ledger/internal/metrics"
	"github.com/diewo77/client-ledger/internal/middleware"
	"github.com/diewo77/client-ledger/internal/store"
	"github.com/diewo77/client-ledger/validation"
)

// noticeView is a notice rendered in the request language.
type noticeView struct {
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// drainNotice empties the store's notice queue and returns the most recent
// one, or nil.
func drainNotice(r *http.Request, s *clients.Store) *noticeView {
	notices := s.Notices()
	if len(notices) == 0 {
		return nil
	}
	for _, n := range notices {
		metrics.RecordNotice(n.Level, n.Demo)
	}
	last := notices[len(notices)-1]
	return &noticeView{Level: last.Level, Code: last.Code, Message: last.Text(middleware.LangFrom(r))}
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

// errorStatus maps repository errors to an HTTP status and error code.
func errorStatus(err error) (int, string, any) {
	var v validation.Violations
	switch {
	case errors.As(err, &v):
		return http.StatusBadRequest, "validation_failed", v
	case errors.Is(err, gate.ErrUnauthorized), errors.Is(err, gate.ErrAnonymous):
		return http.StatusForbidden, "unauthorized", nil
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found", nil
	default:
		return http.StatusBadGateway, "storage_error", nil
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code, details := errorStatus(err)
	httpx.JSONError(w, status, code, details)
}

// writeStoreError answers a failed store operation with its notice.
func writeStoreError(w http.ResponseWriter, r *http.Request, s *clients.Store, err error) {
	status, code, details := errorStatus(err)
	body := map[string]any{"error": code}
	if details != nil {
		body["details"] = details
	}
	if n := drainNotice(r, s); n != nil {
		body["notice"] = n
	}
	httpx.JSON(w, status, body)
}

func badRequest(w http.ResponseWriter, v validation.Violations) {
	httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
}
