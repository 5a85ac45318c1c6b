package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/config"
	"github.com/diewo77/eventdesk/internal/db"
	"github.com/diewo77/eventdesk/internal/export"
	"github.com/diewo77/eventdesk/internal/handlers"
	"github.com/diewo77/eventdesk/internal/metrics"
	"github.com/diewo77/eventdesk/internal/mockapi"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/policy"
	"github.com/diewo77/eventdesk/internal/store"
	"github.com/diewo77/eventdesk/internal/upstream"
)

type e2e struct {
	t       *testing.T
	api     *mockapi.Server
	db      *gorm.DB
	app     *App
	eventID string
}

func setupE2E(t *testing.T) *e2e {
	t.Helper()
	dsn := "file:e2e_" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	dbi, err := db.Connect(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, zap.NewNop(), "error")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(dbi))

	api := mockapi.New()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	api.AddAccount("staff", "staff@example.com", "staff", "staff123")

	eventID, err := api.Insert("events", map[string]any{"name": "Forum Lyon", "start_date": "2026-06-01", "end_date": "2026-06-02", "location": "Lyon", "budget": "1000.00"})
	require.NoError(t, err)
	for i := 1; i <= 10; i++ {
		_, err := api.Insert("staff", map[string]any{
			"first_name": fmt.Sprintf("Agent%02d", i), "last_name": "Martin",
			"email": fmt.Sprintf("agent%d@example.com", i), "position": "Accueil",
			"daily_rate": "150.00", "evenement_id": eventID,
		})
		require.NoError(t, err)
	}

	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	m := metrics.New()
	client, err := upstream.NewClient(upstream.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, upstream.WithObserver(m.ObserveUpstream))
	require.NoError(t, err)
	manager := auth.NewManager("e2e-secret", store.NewGormSessions(dbi), time.Hour, false)
	routerCfg := policy.NewRouterConfig(policy.Deps{DB: dbi, Client: client, Sessions: manager, Metrics: m})

	return &e2e{
		t:       t,
		api:     api,
		db:      dbi,
		app:     NewApp(cfg, zap.NewNop(), manager, m, routerCfg),
		eventID: strconv.FormatInt(eventID, 10),
	}
}

// do sends a request through the app. A non-nil form makes it a
// url-encoded POST.
func (e *e2e) do(method, path string, form url.Values, accept string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Accept-Language", "en")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	e.app.ServeHTTP(rr, req)
	return rr
}

func (e *e2e) login(identifier, password string) *http.Cookie {
	e.t.Helper()
	rr := e.do(http.MethodPost, "/login", url.Values{"identifier": {identifier}, "password": {password}}, "")
	require.Equal(e.t, http.StatusSeeOther, rr.Code, rr.Body.String())
	c := cookie(rr, auth.CookieName)
	require.NotNil(e.t, c, "no session cookie")
	return c
}

func cookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return c
		}
	}
	return nil
}

// flash returns the message stored for the next page.
func flash(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	c := cookie(rr, "flash")
	require.NotNil(t, c, "no flash cookie")
	raw, err := url.QueryUnescape(c.Value)
	require.NoError(t, err)
	_, msg, _ := strings.Cut(raw, "|")
	return msg
}

func (e *e2e) staffBase() string { return "/events/" + e.eventID + "/staff" }

func (e *e2e) listJSON(path string, sess *http.Cookie) handlers.ListPayload {
	e.t.Helper()
	rr := e.do(http.MethodGet, path, nil, "application/json", sess)
	require.Equal(e.t, http.StatusOK, rr.Code, rr.Body.String())
	var env struct {
		Success bool                 `json:"success"`
		Data    handlers.ListPayload `json:"data"`
	}
	require.NoError(e.t, json.Unmarshal(rr.Body.Bytes(), &env))
	require.True(e.t, env.Success)
	return env.Data
}

func TestLoginAndDashboardE2E(t *testing.T) {
	e := setupE2E(t)

	rr := e.do(http.MethodGet, "/dashboard", nil, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", rr.Header().Get("Location"))

	rr = e.do(http.MethodPost, "/login", url.Values{"identifier": {"admin@example.com"}, "password": {"wrong"}}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), i18n.T("en", "login_failed"))
	assert.Nil(t, cookie(rr, auth.CookieName))

	sess := e.login("admin@example.com", "admin123")

	rr = e.do(http.MethodGet, "/dashboard", nil, "", sess)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Forum Lyon")
	assert.Contains(t, rr.Body.String(), "/events/"+e.eventID+"/staff")

	rr = e.do(http.MethodGet, "/", nil, "", sess)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
}

func TestLoginRedirectsToNextE2E(t *testing.T) {
	e := setupE2E(t)
	form := url.Values{"identifier": {"admin"}, "password": {"admin123"}, "next": {e.staffBase()}}
	rr := e.do(http.MethodPost, "/login", form, "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, e.staffBase(), rr.Header().Get("Location"))

	form.Set("next", "//evil.example.com")
	rr = e.do(http.MethodPost, "/login", form, "")
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
}

func TestListPaginationAndSearchE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")

	p1 := e.listJSON(e.staffBase(), sess)
	assert.Equal(t, 10, p1.TotalItems)
	assert.Equal(t, 7, p1.PageSize)
	assert.Equal(t, 2, p1.TotalPages)
	assert.Len(t, p1.Items, 7)
	assert.False(t, p1.Stale)

	p2 := e.listJSON(e.staffBase()+"?page=2", sess)
	assert.Len(t, p2.Items, 3)

	found := e.listJSON(e.staffBase()+"?q=agent03&page=2", sess)
	assert.Equal(t, 1, found.TotalItems)
	assert.Equal(t, 1, found.Page)

	rr := e.do(http.MethodGet, e.staffBase(), nil, "", sess)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Agent01")
	assert.Contains(t, rr.Body.String(), "Forum Lyon")
}

func TestListUnknownEventE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")

	rr := e.do(http.MethodGet, "/events/not-a-number/staff", nil, "", sess)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(http.MethodGet, "/nowhere", nil, "", sess)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateValidationE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")

	form := url.Values{"first_name": {""}, "last_name": {"Durand"}, "email": {"not-an-email"}, "position": {"Régie"}}
	rr := e.do(http.MethodPost, e.staffBase(), form, "", sess)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Durand", "submitted values are echoed")
	assert.Equal(t, 0, e.api.Calls(http.MethodPost, "/staff"), "nothing reaches the upstream")
}

func TestCreateE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")

	form := url.Values{"first_name": {"Chloé"}, "last_name": {"Durand"}, "email": {"chloe@example.com"}, "position": {"Régie"}, "daily_rate": {"180.50"}}
	rr := e.do(http.MethodPost, e.staffBase(), form, "", sess)

	require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())
	assert.Equal(t, e.staffBase(), rr.Header().Get("Location"))
	assert.Equal(t, i18n.T("en", "created"), flash(t, rr))
	assert.Equal(t, 1, e.api.Calls(http.MethodPost, "/staff"))

	staff := e.api.Collection("staff")
	require.Len(t, staff, 11)
	last := staff[len(staff)-1]
	assert.Equal(t, "Chloé", last["first_name"])
	assert.Equal(t, e.eventID, fmt.Sprint(last["evenement_id"]))

	var entry models.AuditEntry
	require.NoError(t, e.db.Where("action = ?", "create").First(&entry).Error)
	assert.Equal(t, "staff", entry.Resource)
	assert.Equal(t, e.eventID, entry.EventID)
	assert.Equal(t, "admin", entry.Username)
}

func TestDraftPrefillsNewFormE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")

	rr := e.do(http.MethodPost, e.staffBase()+"/draft", url.Values{"first_name": {"Brouillon"}}, "", sess)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, e.staffBase()+"/new", rr.Header().Get("Location"))

	rr = e.do(http.MethodGet, e.staffBase()+"/new", nil, "", sess)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Brouillon")
}

func TestStaleSnapshotE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")
	listPath := "/events/" + e.eventID + "/staff"

	require.Len(t, e.listJSON(e.staffBase(), sess).Items, 7)

	e.api.FailNext(http.MethodGet, listPath, http.StatusInternalServerError, "database down")
	rr := e.do(http.MethodGet, e.staffBase(), nil, "application/json", sess)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var env struct {
		Message string               `json:"message"`
		Data    handlers.ListPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.True(t, env.Data.Stale)
	assert.Equal(t, 10, env.Data.TotalItems)
	assert.Equal(t, "database down", env.Message)

	e.api.FailNext(http.MethodGet, listPath, http.StatusInternalServerError, "database down")
	rr = e.do(http.MethodGet, e.staffBase(), nil, "", sess)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "database down")
	assert.Contains(t, rr.Body.String(), "Agent01")

	// Never listed, so nothing to fall back on.
	e.api.FailNext(http.MethodGet, "/events/"+e.eventID+"/equipment", http.StatusInternalServerError, "database down")
	rr = e.do(http.MethodGet, "/events/"+e.eventID+"/equipment", nil, "application/json", sess)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestBulkDeleteCurrentPageE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")

	rr := e.do(http.MethodPost, e.staffBase()+"/delete", url.Values{"select_all": {"page"}, "page": {"2"}}, "", sess)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, e.staffBase()+"?page=2", rr.Header().Get("Location"))
	assert.Equal(t, i18n.T("en", "bulk_deleted")+" : 3", flash(t, rr))
	assert.Len(t, e.api.Collection("staff"), 7)

	var entry models.AuditEntry
	require.NoError(t, e.db.Where("action = ?", "bulk_delete").First(&entry).Error)
	assert.Len(t, strings.Split(entry.RecordIDs, ","), 3)
}

func TestBulkDeleteTickedRowsWinOverSelectAllE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")
	first := e.listJSON(e.staffBase(), sess).Items[0].ID

	form := url.Values{"select_all": {"page"}, "page": {"1"}, "ids": {first}}
	rr := e.do(http.MethodPost, e.staffBase()+"/delete", form, "", sess)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, i18n.T("en", "bulk_deleted")+" : 1", flash(t, rr))
	assert.Len(t, e.api.Collection("staff"), 9)
	assert.Equal(t, 1, e.api.Calls(http.MethodDelete, "/staff"))
}

func TestBulkDeleteEachReportsFailuresE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")
	base := "/events/" + e.eventID + "/pauses"

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := e.api.Insert("pauses", map[string]any{"label": fmt.Sprintf("Pause %d", i), "evenement_id": e.eventID})
		require.NoError(t, err)
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	e.api.FailNext(http.MethodDelete, "/pauses/"+ids[1], http.StatusInternalServerError, "locked")

	rr := e.do(http.MethodPost, base+"/delete", url.Values{"ids": ids}, "", sess)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, i18n.T("en", "bulk_partial")+" : 1/3", flash(t, rr))
	assert.Equal(t, base+"?sel="+ids[1], rr.Header().Get("Location"))
	assert.Len(t, e.api.Collection("pauses"), 1)

	// The failed row comes back ticked.
	rr = e.do(http.MethodGet, rr.Header().Get("Location"), nil, "", sess)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="`+ids[1]+`" data-row checked`)

	e.api.FailNext(http.MethodDelete, "/pauses/"+ids[1], http.StatusInternalServerError, "locked")
	rr = e.do(http.MethodPost, base+"/delete", url.Values{"ids": {ids[1]}}, "", sess)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, strings.HasPrefix(flash(t, rr), i18n.T("en", "delete_failed")))
	assert.Len(t, e.api.Collection("pauses"), 1)
}

func TestBulkDeleteNothingSelectedE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")

	rr := e.do(http.MethodPost, e.staffBase()+"/delete", url.Values{"q": {"agent"}}, "", sess)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, e.staffBase()+"?q=agent", rr.Header().Get("Location"))
	assert.Equal(t, i18n.T("en", "nothing_selected"), flash(t, rr))
	assert.Len(t, e.api.Collection("staff"), 10)
}

func TestSelfDeleteRefusedE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")

	var adminID int64
	for _, a := range e.api.Accounts() {
		if a.Email == "admin@example.com" {
			adminID = a.ID
		}
	}
	require.NotZero(t, adminID)

	rr := e.do(http.MethodPost, fmt.Sprintf("/accounts/%d/delete", adminID), url.Values{}, "", sess)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/accounts", rr.Header().Get("Location"))
	assert.Equal(t, i18n.T("en", "cannot_delete_self"), flash(t, rr))
	assert.Equal(t, 0, e.api.Calls(http.MethodDelete, "/deleteAccount"))
	assert.Len(t, e.api.Accounts(), 2)
}

func TestStaffRoleIsReadOnlyE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("staff@example.com", "staff123")

	rr := e.do(http.MethodGet, e.staffBase(), nil, "", sess)
	assert.Equal(t, http.StatusOK, rr.Code)

	form := url.Values{"first_name": {"X"}, "last_name": {"Y"}, "email": {"x@example.com"}, "position": {"Z"}}
	rr = e.do(http.MethodPost, e.staffBase(), form, "", sess)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 0, e.api.Calls(http.MethodPost, "/staff"))

	for _, format := range []string{"xlsx", "pdf"} {
		rr = e.do(http.MethodGet, e.staffBase()+"/export."+format, nil, "", sess)
		assert.Equal(t, http.StatusForbidden, rr.Code, format)
	}

	for _, path := range []string{"/accounts", "/activity"} {
		rr = e.do(http.MethodGet, path, nil, "", sess)
		assert.Equal(t, http.StatusForbidden, rr.Code, path)
	}
}

func TestExportE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")

	rr := e.do(http.MethodGet, e.staffBase()+"/export.xlsx?q=agent0", nil, "", sess)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, export.XLSXContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "staff-"+e.eventID)
	assert.NotEmpty(t, rr.Body.Bytes())

	rr = e.do(http.MethodGet, e.staffBase()+"/export.pdf", nil, "", sess)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, export.PDFContentType, rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF"))

	// A stale export still downloads and leaves an error for the next page.
	e.api.FailNext(http.MethodGet, "/events/"+e.eventID+"/staff", http.StatusInternalServerError, "database down")
	rr = e.do(http.MethodGet, e.staffBase()+"/export.pdf", nil, "", sess)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, i18n.T("en", "fetch_failed")+" : database down", flash(t, rr))
}

func TestEditStaleShowsNoticeE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")
	row := e.listJSON(e.staffBase(), sess).Items[0]
	record, ok := row.Record.(map[string]any)
	require.True(t, ok)

	e.api.FailNext(http.MethodGet, "/events/"+e.eventID+"/staff", http.StatusInternalServerError, "database down")
	rr := e.do(http.MethodGet, e.staffBase()+"/"+row.ID+"/edit", nil, "", sess)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "database down")
	assert.Contains(t, rr.Body.String(), fmt.Sprint(record["first_name"]))
}

func TestActivityE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")

	form := url.Values{"first_name": {"Chloé"}, "last_name": {"Durand"}, "email": {"chloe@example.com"}, "position": {"Régie"}}
	require.Equal(t, http.StatusSeeOther, e.do(http.MethodPost, e.staffBase(), form, "", sess).Code)

	rr := e.do(http.MethodGet, "/activity", nil, "", sess)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "Chloé")
}

func TestLogoutE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")
	e.listJSON(e.staffBase(), sess)

	rr := e.do(http.MethodPost, "/logout", url.Values{}, "", sess)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	var snapshots int64
	require.NoError(t, e.db.Model(&models.Snapshot{}).Count(&snapshots).Error)
	assert.Zero(t, snapshots)

	rr = e.do(http.MethodGet, "/dashboard", nil, "", sess)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Location"), "/login"))
}

func TestUpstreamRejectionEndsSessionE2E(t *testing.T) {
	e := setupE2E(t)
	sess := e.login("admin@example.com", "admin123")
	e.listJSON(e.staffBase(), sess)
	require.NoError(t, e.db.Create(&models.Draft{SessionID: "placeholder", Resource: "staff", Payload: "a=b"}).Error)

	e.api.FailNext(http.MethodGet, "/events/"+e.eventID+"/staff", http.StatusUnauthorized, "token expired")
	rr := e.do(http.MethodGet, e.staffBase(), nil, "", sess)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	var sessions, snapshots, drafts int64
	require.NoError(t, e.db.Model(&models.Session{}).Count(&sessions).Error)
	require.NoError(t, e.db.Model(&models.Snapshot{}).Count(&snapshots).Error)
	require.NoError(t, e.db.Model(&models.Draft{}).Count(&drafts).Error)
	assert.Zero(t, sessions)
	assert.Zero(t, snapshots)
	assert.Equal(t, int64(1), drafts, "other sessions keep their drafts")
}

func TestProbesAndMetricsE2E(t *testing.T) {
	e := setupE2E(t)

	rr := e.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"database":"ok"`)

	e.login("admin@example.com", "admin123")
	rr = e.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "eventdesk_logins_total")
	assert.Contains(t, rr.Body.String(), "eventdesk_upstream_requests_total")

	rr = e.do(http.MethodGet, "/static/app.css", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
