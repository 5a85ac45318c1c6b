package policy_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/gate"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/policy"
	"github.com/diewo77/eventdesk/internal/resources"
)

var keys = []string{"events", "staff", "accounts"}

func as(role string, accountID int64) context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{SessionID: "s", AccountID: accountID, Username: role, Role: role})
}

func TestAuthGate_Roles(t *testing.T) {
	ag := policy.NewAuthGate(keys)

	tests := []struct {
		role     string
		action   gate.Action
		resource string
		want     bool
	}{
		{"admin", gate.ActionDelete, "accounts", true},
		{"ADMIN", gate.ActionCreate, "staff", true},
		{"manager", gate.ActionDelete, "staff", true},
		{"manager", gate.ActionExport, "events", true},
		{"manager", gate.ActionList, "accounts", false},
		{"staff", gate.ActionList, "staff", true},
		{"staff", gate.ActionView, "accounts", true},
		{"staff", gate.ActionCreate, "events", false},
		{"staff", gate.ActionExport, "events", false},
		{"intern", gate.ActionList, "events", false},
	}
	for _, tc := range tests {
		got := ag.CanProfile(as(tc.role, 1), tc.action, tc.resource)
		if got != tc.want {
			t.Errorf("%s %s:%s = %v, want %v", tc.role, tc.resource, tc.action, got, tc.want)
		}
	}
}

func TestAuthGate_Anonymous(t *testing.T) {
	ag := policy.NewAuthGate(keys)
	if ag.CanProfile(context.Background(), gate.ActionList, "events") {
		t.Error("Expected anonymous user to be refused")
	}
	if err := ag.Authorize(context.Background(), gate.ActionList, "events", nil); !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
}

func TestSelfDeletePolicy(t *testing.T) {
	ag := policy.NewAuthGate(keys)
	ctx := as("admin", 7)

	if err := ag.Authorize(ctx, gate.ActionDelete, "accounts", models.Account{ID: 7}); !errors.Is(err, gate.ErrPolicyRefused) {
		t.Errorf("Expected admin deleting own account to be refused, got %v", err)
	}
	if err := ag.Authorize(ctx, gate.ActionDelete, "accounts", &models.Account{ID: 8}); err != nil {
		t.Errorf("Expected admin to delete another account, got %v", err)
	}
	if err := ag.Authorize(ctx, gate.ActionDelete, "accounts", resources.Ref("7")); !errors.Is(err, gate.ErrPolicyRefused) {
		t.Errorf("Expected delete by reference to be refused, got %v", err)
	}
	if err := ag.Authorize(ctx, gate.ActionUpdate, "accounts", models.Account{ID: 7}); err != nil {
		t.Errorf("Expected admin to update own account, got %v", err)
	}
	p := policy.NewSelfDeletePolicy()
	if p.Can(ctx, auth.Principal{AccountID: 7}, gate.ActionDelete, "7") {
		t.Error("Expected non-account resource to be refused for delete")
	}
}

func TestIsAdmin(t *testing.T) {
	ag := policy.NewAuthGate(keys)
	if !ag.IsAdmin(as("admin", 1)) {
		t.Error("Expected admin")
	}
	if ag.IsAdmin(as("manager", 1)) {
		t.Error("Expected manager not to be admin")
	}
}

func TestRequirePermission(t *testing.T) {
	ag := policy.NewAuthGate(keys)
	h := ag.RequirePermission("staff", gate.ActionCreate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(as("staff", 1)))
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for staff, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(as("manager", 1)))
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for manager, got %d", rr.Code)
	}
}

func TestRequireAdmin_JSON(t *testing.T) {
	ag := policy.NewAuthGate(keys)
	h := ag.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/activity", nil).WithContext(as("manager", 1))
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rr.Code)
	}
	if got := rr.Body.String(); got == "" || got[0] != '{' {
		t.Errorf("Expected JSON body, got %q", got)
	}
}
