package policy

import (
	"context"
	"net/http"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/gate"
	"github.com/diewo77/eventdesk/httpx"
	"github.com/diewo77/eventdesk/i18n"
)

// Roles known to the dashboard. The upstream account role selects one.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// AccountsResource is the only collection managers may not touch.
const AccountsResource = "accounts"

// AuthGate holds the configured Gate keyed by the session principal.
// Use this as a central authorization point in your application.
type AuthGate struct {
	Gate  *gate.Gate[auth.Principal]
	Roles *gate.RoleResolver[auth.Principal]
}

// NewAuthGate builds the role profiles for the given resource keys:
// admins get everything, managers every resource except accounts, staff
// read-only access.
func NewAuthGate(resources []string) *AuthGate {
	managerPerms := make([]gate.Permission, 0, len(resources))
	for _, key := range resources {
		if key == AccountsResource {
			continue
		}
		managerPerms = append(managerPerms, gate.NewPermission(key, gate.Wildcard))
	}

	roles := gate.NewRoleResolver(func(p auth.Principal) string { return p.Role }).
		Define(RoleAdmin, gate.NewStaticProfile(RoleAdmin, gate.PermissionAll)).
		Define(RoleManager, gate.NewStaticProfile(RoleManager, managerPerms...)).
		Define(RoleStaff, gate.NewStaticProfile(RoleStaff,
			gate.NewPermission(gate.Wildcard, gate.ActionList),
			gate.NewPermission(gate.Wildcard, gate.ActionView),
		))

	ag := &AuthGate{Gate: gate.New[auth.Principal](roles), Roles: roles}
	ag.RegisterPolicy(AccountsResource, NewSelfDeletePolicy())
	return ag
}

// RegisterPolicy adds a record-level policy for a resource type.
func (ag *AuthGate) RegisterPolicy(resourceType string, p gate.Policy[auth.Principal]) {
	ag.Gate.Register(resourceType, p)
}

// Authorize checks if the current user can perform an action on a resource.
// Returns nil if authorized, a gate error otherwise.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, p, action, resourceType, resource)
}

// Can is a convenience method that returns bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}

// CanProfile checks only role permissions. Templates use it to show or
// hide buttons.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, p, action, resourceType)
}

// IsAdmin reports whether the current user holds the "*:*" permission.
func (ag *AuthGate) IsAdmin(ctx context.Context) bool {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		return false
	}
	profile := ag.Gate.Profile(ctx, p)
	return profile != nil && profile.HasPermission(gate.PermissionAll)
}

// RequirePermission returns middleware that checks profile permission.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.CanProfile(r.Context(), action, resourceType) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin returns middleware that only lets administrators through.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ag.IsAdmin(r.Context()) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, r, http.StatusForbidden, "forbidden", nil)
		return
	}
	http.Error(w, i18n.T(i18n.LangFromContext(r.Context()), "forbidden"), http.StatusForbidden)
}
