package gate

import (
	"context"
	"sort"
	"strings"
)

// Profile is a named set of permissions, usually one per role.
type Profile interface {
	Name() string
	HasPermission(permission Permission) bool
	Permissions() []Permission
}

// ProfileResolver finds the profile of a user.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// StaticProfile is an in-memory Profile.
type StaticProfile struct {
	name        string
	permissions map[Permission]bool
}

func NewStaticProfile(name string, permissions ...Permission) *StaticProfile {
	p := &StaticProfile{name: name, permissions: make(map[Permission]bool, len(permissions))}
	for _, perm := range permissions {
		p.permissions[perm] = true
	}
	return p
}

func (p *StaticProfile) Name() string { return p.name }

// Permissions returns the granted permissions sorted for stable display.
func (p *StaticProfile) Permissions() []Permission {
	perms := make([]Permission, 0, len(p.permissions))
	for perm := range p.permissions {
		perms = append(perms, perm)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

func (p *StaticProfile) HasPermission(requested Permission) bool {
	for perm := range p.permissions {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// RoleResolver maps users to profiles through their role name. Role names
// are compared case-insensitively.
type RoleResolver[U any] struct {
	roleOf   func(U) string
	profiles map[string]Profile
}

func NewRoleResolver[U any](roleOf func(U) string) *RoleResolver[U] {
	return &RoleResolver[U]{roleOf: roleOf, profiles: make(map[string]Profile)}
}

// Define registers the profile used for role.
func (r *RoleResolver[U]) Define(role string, profile Profile) *RoleResolver[U] {
	r.profiles[strings.ToLower(role)] = profile
	return r
}

// Roles returns the defined role names in order.
func (r *RoleResolver[U]) Roles() []string {
	out := make([]string, 0, len(r.profiles))
	for role := range r.profiles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

func (r *RoleResolver[U]) Resolve(_ context.Context, user U) (Profile, error) {
	p, ok := r.profiles[strings.ToLower(r.roleOf(user))]
	if !ok {
		return nil, ErrUnknownRole
	}
	return p, nil
}
