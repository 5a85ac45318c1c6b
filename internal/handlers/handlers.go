// Package handlers serves the dashboard pages. Every business record is
// read from and written to the upstream API; the local store only keeps
// sessions, drafts, snapshots and the audit trail.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/gate"
	"github.com/diewo77/eventdesk/httpx"
	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/logger"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/store"
	"github.com/diewo77/eventdesk/internal/upstream"
	"github.com/diewo77/eventdesk/view"
)

// Authorizer is what handlers need from the authorization gate.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
	CanProfile(ctx context.Context, action gate.Action, resourceType string) bool
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		logger.FromContext(r.Context()).Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// renderError answers with the error page, or a JSON error body.
func renderError(w http.ResponseWriter, r *http.Request, status int, code string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, r, status, code, nil)
		return
	}
	render(w, r, status, "error.html", map[string]any{
		"Status":  status,
		"Message": i18n.T(middleware.LangFrom(r), code),
	})
}

// NotFound is the router's fallback.
func NotFound(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, http.StatusNotFound, "not_found")
}

// Forbidden answers a refused request.
func Forbidden(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, http.StatusForbidden, "forbidden")
}

// sessionLost ends the local session once the upstream has refused its
// credentials, and sends the user back to the login page.
func sessionLost(sessions *auth.Manager, w http.ResponseWriter, r *http.Request) {
	if err := sessions.End(r.Context(), w, r); err != nil {
		logger.FromContext(r.Context()).Warn("end session", zap.Error(err))
	}
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, r, http.StatusUnauthorized, "session_expired", nil)
		return
	}
	middleware.Flash(w, r, middleware.LevelError, "session_expired")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// failureStatus maps an upstream failure to the status of the page that
// reports it: the upstream's own 4xx, else 502.
func failureStatus(err error) int {
	if s := upstream.StatusOf(err); s >= 400 && s < 500 {
		return s
	}
	return http.StatusBadGateway
}

// denialCode names the notification for a refused authorization.
func denialCode(err error) string {
	if errors.Is(err, gate.ErrPolicyRefused) {
		return "cannot_delete_self"
	}
	return "forbidden"
}

// auditor writes the audit trail. Failures are logged, never shown: the
// upstream mutation already happened.
type auditor struct {
	audit *store.Audit
}

func (a auditor) record(r *http.Request, action, resource, eventID string, ids []string, detail string) {
	if a.audit == nil {
		return
	}
	p := principal(r)
	if len(detail) > 500 {
		detail = detail[:500]
	}
	err := a.audit.Record(r.Context(), &models.AuditEntry{
		AccountID: p.AccountID,
		Username:  p.Username,
		Action:    action,
		Resource:  resource,
		EventID:   eventID,
		RecordIDs: strings.Join(ids, ","),
		Detail:    detail,
	})
	if err != nil {
		logger.FromContext(r.Context()).Error("audit entry not recorded", zap.String("action", action), zap.String("resource", resource), zap.Error(err))
	}
}
