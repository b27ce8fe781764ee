package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/client-ledger/httpx"
	"github.com/diewo77/client-ledger/internal/analytics"
	"github.com/diewo77/client-ledger/validation"
)

// AnalyticsHandler proxies PostHog summaries to admins.
type AnalyticsHandler struct {
	Client         *analytics.Client
	DefaultProject string
}

func NewAnalyticsHandler(c *analytics.Client, defaultProject string) *AnalyticsHandler {
	return &AnalyticsHandler{Client: c, DefaultProject: defaultProject}
}

func (h *AnalyticsHandler) Projects(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"projects":       h.Client.Projects(r.Context()),
		"configured":     h.Client.Configured(),
		"defaultProject": h.DefaultProject,
	})
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.Client.Summary(r.Context(), r.PathValue("projectId"))
	if errors.Is(err, analytics.ErrInvalidProject) {
		badRequest(w, validation.Violations{"projectId": "invalid_choice"})
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}
