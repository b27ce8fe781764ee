// Package policy decides who is an admin and guards admin-only routes.
package policy

import (
	"context"
	"strings"

	"github.com/diewo77/client-ledger/gate"
)

// Resources guarded by the gate.
const (
	ResourceClient    = "client"
	ResourceAnalytics = "analytics"
)

var adminProfile = gate.NewStaticProfile("admin", gate.PermissionSuperAdmin)

// AdminList is the case-insensitive allow-list of admin e-mail addresses.
// A single configured address is simply a list of one.
type AdminList struct {
	emails map[string]struct{}
}

// NewAdminList normalises and stores emails.
func NewAdminList(emails []string) *AdminList {
	l := &AdminList{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if e = normalizeEmail(e); e != "" {
			l.emails[e] = struct{}{}
		}
	}
	return l
}

// IsAdmin reports whether email is on the list.
func (l *AdminList) IsAdmin(email string) bool {
	if l == nil {
		return false
	}
	_, ok := l.emails[normalizeEmail(email)]
	return ok
}

// Len returns the number of admins.
func (l *AdminList) Len() int { return len(l.emails) }

// Resolve maps an admin e-mail to the superadmin profile and everybody else
// to no profile at all.
func (l *AdminList) Resolve(_ context.Context, email string) (gate.Profile, error) {
	if l.IsAdmin(email) {
		return adminProfile, nil
	}
	return nil, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
