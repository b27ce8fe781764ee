// Package gate is a small permission checkpoint: a subject is resolved to a
// profile and the profile must grant "resource:action". It knows nothing about
// the domain; the caller decides what a subject is (an e-mail, a user id, ...).
package gate

import (
	"context"
	"fmt"
)

// Gate authorizes subjects of type U through a ProfileResolver.
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
}

// New creates a gate backed by resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Authorize returns nil when subject may perform action on resource.
// The zero subject is always rejected.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, resource string, action Action) error {
	var zero U
	if subject == zero {
		return fmt.Errorf("%w: %w", ErrUnauthorized, ErrAnonymous)
	}
	profile, err := g.resolver.Resolve(ctx, subject)
	if err != nil {
		return fmt.Errorf("%w: resolve profile: %v", ErrUnauthorized, err)
	}
	if profile == nil || !profile.HasPermission(NewPermission(resource, action)) {
		return fmt.Errorf("%w: %s:%s", ErrUnauthorized, resource, action)
	}
	return nil
}
