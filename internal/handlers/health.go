package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/client-ledger/httpx"
	"github.com/diewo77/client-ledger/internal/currency"
	"gorm.io/gorm"
)

// HealthHandler reports liveness and readiness.
type HealthHandler struct {
	DB    *gorm.DB
	Rates *currency.Provider
}

func NewHealthHandler(db *gorm.DB, rates *currency.Provider) *HealthHandler {
	return &HealthHandler{DB: db, Rates: rates}
}

// Live always answers ok while the process serves requests.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings the database.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	body := map[string]any{"status": "ok", "rateSource": h.Rates.Snapshot().Source}
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		body["status"] = "unavailable"
		body["database"] = err.Error()
		httpx.JSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["database"] = "ok"
	httpx.JSON(w, http.StatusOK, body)
}
