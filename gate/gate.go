// Package gate is a small role and policy authorization layer.
//
// A Gate resolves the user's profile and checks it grants "resource:action",
// then runs the resource policy, if one is registered, against the record.
// The user type is generic so callers can authorize with whatever identity
// their session carries.
package gate

import (
	"context"
	"fmt"
)

type Gate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]Policy[U]
}

func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver, policies: make(map[string]Policy[U])}
}

// Register sets the record-level policy for resourceType.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize returns nil when user may perform action on resourceType. The
// zero user is always refused. resource may be nil when no record is involved.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	if !g.CanProfile(ctx, user, action, resourceType) {
		return fmt.Errorf("%w: %s", ErrUnauthorized, NewPermission(resourceType, action))
	}
	if resource == nil {
		return nil
	}
	if p, ok := g.policies[resourceType]; ok && !p.Can(ctx, user, action, resource) {
		return fmt.Errorf("%w: %s", ErrPolicyRefused, NewPermission(resourceType, action))
	}
	return nil
}

func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// CanProfile checks the role permission only. Templates use it to decide
// which buttons to show before any record is loaded.
func (g *Gate[U]) CanProfile(ctx context.Context, user U, action Action, resourceType string) bool {
	var zero U
	if user == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(NewPermission(resourceType, action))
}

// Profile returns the resolved profile of user, or nil.
func (g *Gate[U]) Profile(ctx context.Context, user U) Profile {
	var zero U
	if user == zero {
		return nil
	}
	p, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return nil
	}
	return p
}
