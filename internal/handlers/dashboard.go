package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/httpx"
	"github.com/diewo77/eventdesk/internal/logger"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/services"
	"github.com/diewo77/eventdesk/internal/store"
	"github.com/diewo77/eventdesk/internal/upstream"
	"github.com/diewo77/eventdesk/listview"
)

const activityPageSize = 20

type DashboardHandler struct {
	overview *services.OverviewService
	sessions *auth.Manager
}

func NewDashboardHandler(overview *services.OverviewService, sessions *auth.Manager) *DashboardHandler {
	return &DashboardHandler{overview: overview, sessions: sessions}
}

func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	ov, err := h.overview.Build(r.Context(), principal(r).SessionID)
	data := map[string]any{"Summaries": []services.EventSummary(nil), "Stale": false}
	if err != nil {
		if upstream.IsUnauthorized(err) {
			sessionLost(h.sessions, w, r)
			return
		}
		logger.FromContext(r.Context()).Warn("dashboard fetch failed", zap.Error(err))
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, r, http.StatusBadGateway, upstream.Message(err), nil)
			return
		}
		data["Flash"] = middleware.NewFlash(r, middleware.LevelError, "fetch_failed", upstream.Message(err))
		render(w, r, http.StatusOK, "dashboard.html", data)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, r, http.StatusOK, ov)
		return
	}
	data["Summaries"] = ov.Events
	data["Stale"] = ov.Stale
	render(w, r, http.StatusOK, "dashboard.html", data)
}

type ActivityHandler struct {
	audit *store.Audit
	limit int
}

func NewActivityHandler(audit *store.Audit) *ActivityHandler {
	return &ActivityHandler{audit: audit, limit: 500}
}

func auditFields(e models.AuditEntry) []string {
	return []string{e.Username, e.Action, e.Resource, e.EventID, e.RecordIDs, e.Detail}
}

// List shows the most recent audit entries with the list-page pattern.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.Recent(r.Context(), h.limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("audit trail not loaded", zap.Error(err))
		renderError(w, r, http.StatusInternalServerError, "fetch_failed")
		return
	}
	q := queryOf(r.URL.Query())
	q.Search = strings.TrimSpace(q.Search)
	page := listview.Apply(entries, q, auditFields, activityPageSize)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, r, http.StatusOK, page)
		return
	}
	render(w, r, http.StatusOK, "activity.html", map[string]any{
		"Page":  page,
		"Query": q.Search,
		"Base":  "/activity",
	})
}
