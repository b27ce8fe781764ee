package policy

import (
	"context"
	"net/http"

	"github.com/diewo77/client-ledger/auth"
	"github.com/diewo77/client-ledger/gate"
	"github.com/diewo77/client-ledger/httpx"
)

// AuthGate is the central authorization point of the application.
type AuthGate struct {
	Gate   *gate.Gate[string]
	Admins *AdminList
}

// NewAuthGate creates a gate whose profiles come from the admin list.
func NewAuthGate(admins *AdminList) *AuthGate {
	return &AuthGate{Gate: gate.New[string](admins), Admins: admins}
}

// Authorize checks the request identity against resource and action.
// Admin status is recomputed from the e-mail; Identity.IsAdmin is ignored.
func (ag *AuthGate) Authorize(ctx context.Context, resource string, action gate.Action) error {
	id, _ := auth.FromContext(ctx)
	return ag.Gate.Authorize(ctx, normalizeEmail(id.Email), resource, action)
}

// RequireAdmin returns middleware that only lets admins through.
func (ag *AuthGate) RequireAdmin(resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := ag.Authorize(r.Context(), resource, gate.ActionView); err != nil {
				httpx.JSONError(w, http.StatusForbidden, "unauthorized", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
