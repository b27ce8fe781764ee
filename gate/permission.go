package gate

import "strings"

// Permission is an allowed action on a resource, written "resource:action"
// (e.g. "client:create", "payment:create").
type Permission string

const (
	wildcard = "*"

	// PermissionSuperAdmin grants every action on every resource.
	PermissionSuperAdmin Permission = "*:*"
)

// NewPermission builds a permission from resource and action.
func NewPermission(resource string, action Action) Permission {
	return Permission(resource + ":" + string(action))
}

// Parse splits a permission into resource and action. Malformed values
// yield empty strings.
func (p Permission) Parse() (string, Action) {
	resource, action, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", ""
	}
	return resource, Action(action)
}

// Matches reports whether p covers the requested permission, honouring the
// "*:*" and "resource:*" wildcards.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	if string(act) != wildcard {
		return false
	}
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes
}
