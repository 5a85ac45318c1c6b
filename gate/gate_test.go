package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/eventdesk/gate"
)

type user struct {
	ID   string
	Role string
}

type record struct{ ID string }

func roleOf(u user) string { return u.Role }

func newGate() *gate.Gate[user] {
	resolver := gate.NewRoleResolver(roleOf).
		Define("admin", gate.NewStaticProfile("admin", gate.PermissionAll)).
		Define("staff", gate.NewStaticProfile("staff",
			gate.NewPermission(gate.Wildcard, gate.ActionList),
			gate.NewPermission(gate.Wildcard, gate.ActionView),
		))
	return gate.New[user](resolver)
}

func TestGate_RolePermissions(t *testing.T) {
	g := newGate()
	ctx := context.Background()

	if !g.Can(ctx, user{ID: "1", Role: "Admin"}, gate.ActionDelete, "accounts", nil) {
		t.Error("admin should be allowed everything, role case ignored")
	}
	if !g.Can(ctx, user{ID: "2", Role: "staff"}, gate.ActionList, "clients", nil) {
		t.Error("staff should list clients")
	}
	if g.Can(ctx, user{ID: "2", Role: "staff"}, gate.ActionCreate, "clients", nil) {
		t.Error("staff should not create clients")
	}
	if g.Can(ctx, user{ID: "3", Role: "intern"}, gate.ActionList, "clients", nil) {
		t.Error("unknown role should be denied")
	}
	if g.Can(ctx, user{}, gate.ActionList, "clients", nil) {
		t.Error("zero user should be denied")
	}
}

func TestGate_Policy(t *testing.T) {
	g := newGate()
	g.Register("accounts", gate.PolicyFunc[user](func(_ context.Context, u user, a gate.Action, res any) bool {
		r, ok := res.(record)
		return !ok || a != gate.ActionDelete || r.ID != u.ID
	}))
	ctx := context.Background()
	admin := user{ID: "1", Role: "admin"}

	err := g.Authorize(ctx, admin, gate.ActionDelete, "accounts", record{ID: "1"})
	if !errors.Is(err, gate.ErrPolicyRefused) {
		t.Errorf("deleting own account: err = %v, want ErrPolicyRefused", err)
	}
	if err := g.Authorize(ctx, admin, gate.ActionDelete, "accounts", record{ID: "2"}); err != nil {
		t.Errorf("deleting another account: %v", err)
	}
	if err := g.Authorize(ctx, admin, gate.ActionDelete, "accounts", nil); err != nil {
		t.Errorf("no record means no policy check: %v", err)
	}

	staff := user{ID: "2", Role: "staff"}
	if err := g.Authorize(ctx, staff, gate.ActionDelete, "accounts", record{ID: "9"}); !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("staff delete: err = %v, want ErrUnauthorized", err)
	}
}

func TestGate_Profile(t *testing.T) {
	g := newGate()
	ctx := context.Background()

	if p := g.Profile(ctx, user{ID: "2", Role: "staff"}); p == nil || p.Name() != "staff" {
		t.Fatalf("Profile() = %v", p)
	}
	if p := g.Profile(ctx, user{ID: "3", Role: "ghost"}); p != nil {
		t.Errorf("unknown role resolved to %v", p.Name())
	}
}

func TestStaticProfile_PermissionsSorted(t *testing.T) {
	p := gate.NewStaticProfile("x", "cars:list", "agencies:view", "cars:list")
	got := p.Permissions()
	if len(got) != 2 || got[0] != "agencies:view" || got[1] != "cars:list" {
		t.Errorf("Permissions() = %v", got)
	}
}

func TestRoleResolver_Roles(t *testing.T) {
	r := gate.NewRoleResolver(roleOf).
		Define("Staff", gate.NewStaticProfile("staff")).
		Define("admin", gate.NewStaticProfile("admin"))
	roles := r.Roles()
	if len(roles) != 2 || roles[0] != "admin" || roles[1] != "staff" {
		t.Errorf("Roles() = %v", roles)
	}
	if _, err := r.Resolve(context.Background(), user{Role: "nope"}); !errors.Is(err, gate.ErrUnknownRole) {
		t.Errorf("Resolve unknown: %v", err)
	}
}
