package gate

import "context"

// Profile is a named set of permissions.
type Profile interface {
	Name() string
	HasPermission(permission Permission) bool
}

// ProfileResolver maps a subject to its profile. A nil profile with a nil
// error means the subject holds no permissions at all.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, subject U) (Profile, error)
}

// StaticProfile is an in-memory profile.
type StaticProfile struct {
	name        string
	permissions []Permission
}

// NewStaticProfile creates a profile granting the given permissions.
func NewStaticProfile(name string, permissions ...Permission) *StaticProfile {
	return &StaticProfile{name: name, permissions: permissions}
}

func (p *StaticProfile) Name() string { return p.name }

// HasPermission checks the requested permission against every grant,
// wildcards included.
func (p *StaticProfile) HasPermission(requested Permission) bool {
	for _, perm := range p.permissions {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// ResolverFunc adapts a plain function to ProfileResolver.
type ResolverFunc[U any] func(ctx context.Context, subject U) (Profile, error)

func (f ResolverFunc[U]) Resolve(ctx context.Context, subject U) (Profile, error) {
	return f(ctx, subject)
}
