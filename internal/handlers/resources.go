package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/forms"
	"github.com/diewo77/eventdesk/gate"
	"github.com/diewo77/eventdesk/httpx"
	"github.com/diewo77/eventdesk/internal/logger"
	"github.com/diewo77/eventdesk/internal/metrics"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/resources"
	"github.com/diewo77/eventdesk/internal/store"
	"github.com/diewo77/eventdesk/internal/upstream"
	"github.com/diewo77/eventdesk/listview"
	"github.com/diewo77/eventdesk/validation"
)

// csrfField is the hidden input gorilla/csrf adds to every form.
const csrfField = "gorilla.csrf.Token"

// ResourceHandler serves the list, form, delete and export pages of every
// registered resource. Each method returns the handler for one resource.
type ResourceHandler struct {
	auditor
	gate     Authorizer
	sessions *auth.Manager
	drafts   *store.Drafts
	events   resources.Resource
	metrics  *metrics.Metrics
}

func NewResourceHandler(reg *resources.Registry, authz Authorizer, sessions *auth.Manager, drafts *store.Drafts, audit *store.Audit, m *metrics.Metrics) *ResourceHandler {
	events, _ := reg.Get(resources.Events.Key)
	return &ResourceHandler{
		auditor:  auditor{audit: audit},
		gate:     authz,
		sessions: sessions,
		drafts:   drafts,
		events:   events,
		metrics:  m,
	}
}

// ListPayload is the JSON answer of a list page.
type ListPayload struct {
	Items      []resources.Row `json:"items"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalItems int             `json:"total_items"`
	TotalPages int             `json:"total_pages"`
	Stale      bool            `json:"stale"`
}

func scopeOf(r *http.Request) resources.Scope {
	return resources.Scope{SessionID: principal(r).SessionID, EventID: chi.URLParam(r, "eventID")}
}

// recordID is the {id} path parameter. Event routes name it {eventID} so that
// they share the segment with the routes nested under an event.
func recordID(r *http.Request) string {
	if id := chi.URLParam(r, "id"); id != "" {
		return id
	}
	return chi.URLParam(r, "eventID")
}

// BasePath is the URL of a resource's list page for scope.
func BasePath(res resources.Resource, scope resources.Scope) string {
	if res.Scoped() {
		return "/events/" + url.PathEscape(scope.EventID) + "/" + res.Key()
	}
	return "/" + res.Key()
}

// draftKey keeps drafts of the same resource apart across events.
func draftKey(res resources.Resource, scope resources.Scope) string {
	if res.Scoped() {
		return res.Key() + "@" + scope.EventID
	}
	return res.Key()
}

func queryOf(v url.Values) listview.Query {
	page, _ := strconv.Atoi(v.Get("page"))
	return listview.Query{Search: v.Get("q"), Page: page}
}

// backTo is the list page the bulk form was posted from. selected ids are
// ticked again when that page renders.
func backTo(base string, q listview.Query, selected ...string) string {
	v := url.Values{}
	for _, id := range selected {
		v.Add("sel", id)
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if len(v) == 0 {
		return base
	}
	return base + "?" + v.Encode()
}

// fetchFailed handles a fetch error that left nothing to show. It returns
// true when the response has been written.
func (h *ResourceHandler) fetchFailed(w http.ResponseWriter, r *http.Request, res resources.Resource, err error) bool {
	switch {
	case errors.Is(err, resources.ErrBadEventID):
		renderError(w, r, http.StatusNotFound, "not_found")
		return true
	case upstream.IsUnauthorized(err):
		sessionLost(h.sessions, w, r)
		return true
	}
	logger.FromContext(r.Context()).Warn("list fetch failed", zap.String("resource", res.Key()), zap.Error(err))
	return false
}

func (h *ResourceHandler) eventName(r *http.Request, scope resources.Scope) string {
	if scope.EventID == "" || h.events == nil {
		return ""
	}
	listing, _ := h.events.Fetch(r.Context(), resources.Scope{SessionID: scope.SessionID})
	row, ok := listing.Find(scope.EventID)
	if !ok {
		return ""
	}
	ev, _ := row.Record.(models.Event)
	return ev.Name
}

// List renders one page of the resource. A failed fetch shows the last
// snapshot, if any, with one error notification.
func (h *ResourceHandler) List(res resources.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := scopeOf(r)
		q := queryOf(r.URL.Query())

		listing, err := res.Fetch(r.Context(), scope)
		var note *middleware.FlashMessage
		if err != nil {
			if h.fetchFailed(w, r, res, err) {
				return
			}
			if httpx.WantsJSON(r) && !listing.Stale {
				httpx.JSONError(w, r, http.StatusBadGateway, upstream.Message(err), nil)
				return
			}
			note = middleware.NewFlash(r, middleware.LevelError, "fetch_failed", upstream.Message(err))
		}
		page := listing.Page(q, res.PageSize())

		if httpx.WantsJSON(r) {
			httpx.JSONWithMessage(w, r, http.StatusOK, upstream.Message(err), ListPayload{
				Items:      page.Items,
				Page:       page.Number,
				PageSize:   page.Size,
				TotalItems: page.TotalItems,
				TotalPages: page.TotalPages,
				Stale:      listing.Stale,
			})
			return
		}

		sel := listview.NewSelection(r.URL.Query()["sel"]...)
		data := map[string]any{
			"Resource":    res,
			"Headers":     res.Headers(),
			"Page":        page,
			"Selected":    sel,
			"AllSelected": listview.AllSelected(page, sel, resources.RowID),
			"Query":       q.Search,
			"Base":        BasePath(res, scope),
			"EventID":     scope.EventID,
			"EventName":   h.eventName(r, scope),
			"Stale":       listing.Stale,
		}
		if note != nil {
			data["Flash"] = note
		}
		render(w, r, http.StatusOK, "list.html", data)
	}
}

type formState struct {
	mode   string
	id     string
	values url.Values
	errs   validation.Violations
	note   *middleware.FlashMessage
}

func (h *ResourceHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, res resources.Resource, st formState) {
	scope := scopeOf(r)
	base := BasePath(res, scope)
	action := base
	if st.mode == "update" {
		action = base + "/" + url.PathEscape(st.id)
	}
	if st.values == nil {
		st.values = url.Values{}
	}
	if st.errs == nil {
		st.errs = validation.Violations{}
	}
	preview := ""
	for _, f := range res.Fields() {
		if f.Hint == "hint.markdown" && st.values.Get(f.Name) != "" {
			preview = st.values.Get(f.Name)
			break
		}
	}
	data := map[string]any{
		"Resource": res,
		"Mode":     st.mode,
		"ID":       st.id,
		"Action":   action,
		"Base":     base,
		"EventID":  scope.EventID,
		"Values":   st.values,
		"Errors":   st.errs,
		"Preview":  preview,
	}
	if st.note != nil {
		data["Flash"] = st.note
	}
	render(w, r, status, "form.html", data)
}

// echo copies a submitted form without secrets, for re-rendering.
func echo(fields []forms.Field, form url.Values) url.Values {
	out := make(url.Values, len(form))
	for k, v := range form {
		out[k] = v
	}
	out.Del(csrfField)
	for _, f := range fields {
		if f.Kind == forms.Password {
			out.Del(f.Name)
		}
	}
	return out
}

// New renders an empty form, pre-filled from the saved draft if any.
func (h *ResourceHandler) New(res resources.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := scopeOf(r)
		values := url.Values{}
		if h.drafts != nil {
			saved, ok, err := h.drafts.Load(r.Context(), scope.SessionID, draftKey(res, scope))
			if err != nil {
				logger.FromContext(r.Context()).Warn("draft not loaded", zap.String("resource", res.Key()), zap.Error(err))
			} else if ok {
				values = saved
			}
		}
		h.renderForm(w, r, http.StatusOK, res, formState{mode: "create", values: values})
	}
}

// Create validates the form and sends exactly one create request. The
// draft is dropped only once the upstream has accepted the record.
func (h *ResourceHandler) Create(res resources.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			renderError(w, r, http.StatusBadRequest, "invalid_format")
			return
		}
		scope := scopeOf(r)
		body, errs := forms.Decode(res.Fields(), r.PostForm, forms.Create)
		if !errs.Empty() {
			h.renderForm(w, r, http.StatusUnprocessableEntity, res, formState{mode: "create", values: echo(res.Fields(), r.PostForm), errs: errs})
			return
		}

		if err := res.Create(r.Context(), scope, body); err != nil {
			if upstream.IsUnauthorized(err) {
				sessionLost(h.sessions, w, r)
				return
			}
			logger.FromContext(r.Context()).Warn("create failed", zap.String("resource", res.Key()), zap.Error(err))
			h.renderForm(w, r, failureStatus(err), res, formState{
				mode:   "create",
				values: echo(res.Fields(), r.PostForm),
				note:   middleware.NewFlash(r, middleware.LevelError, "save_failed", upstream.Message(err)),
			})
			return
		}

		if h.drafts != nil {
			if err := h.drafts.Delete(r.Context(), scope.SessionID, draftKey(res, scope)); err != nil {
				logger.FromContext(r.Context()).Warn("draft not deleted", zap.Error(err))
			}
		}
		h.record(r, "create", res.Key(), scope.EventID, nil, summary(res.Fields(), body))
		middleware.Flash(w, r, middleware.LevelSuccess, "created")
		http.Redirect(w, r, BasePath(res, scope), http.StatusSeeOther)
	}
}

// summary is the first text value of body, used as the audit detail.
func summary(fields []forms.Field, body map[string]any) string {
	for _, f := range fields {
		if s, ok := body[f.Name].(string); ok && s != "" && f.Kind != forms.Password {
			return s
		}
	}
	return ""
}

// Edit renders the form pre-filled with the record as currently listed.
func (h *ResourceHandler) Edit(res resources.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := scopeOf(r)
		id := recordID(r)
		listing, err := res.Fetch(r.Context(), scope)
		var note *middleware.FlashMessage
		if err != nil {
			if h.fetchFailed(w, r, res, err) {
				return
			}
			if !listing.Stale {
				middleware.Flash(w, r, middleware.LevelError, "fetch_failed", upstream.Message(err))
				http.Redirect(w, r, BasePath(res, scope), http.StatusSeeOther)
				return
			}
			note = middleware.NewFlash(r, middleware.LevelError, "fetch_failed", upstream.Message(err))
		}
		row, ok := listing.Find(id)
		if !ok {
			renderError(w, r, http.StatusNotFound, "not_found")
			return
		}
		h.renderForm(w, r, http.StatusOK, res, formState{mode: "update", id: id, values: forms.Values(res.Fields(), row.Record), note: note})
	}
}

func (h *ResourceHandler) Update(res resources.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			renderError(w, r, http.StatusBadRequest, "invalid_format")
			return
		}
		scope := scopeOf(r)
		id := recordID(r)
		if err := h.gate.Authorize(r.Context(), gate.ActionUpdate, res.Key(), resources.Ref(id)); err != nil {
			renderError(w, r, http.StatusForbidden, "forbidden")
			return
		}
		body, errs := forms.Decode(res.Fields(), r.PostForm, forms.Update)
		if !errs.Empty() {
			h.renderForm(w, r, http.StatusUnprocessableEntity, res, formState{mode: "update", id: id, values: echo(res.Fields(), r.PostForm), errs: errs})
			return
		}

		if err := res.Update(r.Context(), scope, id, body); err != nil {
			if upstream.IsUnauthorized(err) {
				sessionLost(h.sessions, w, r)
				return
			}
			logger.FromContext(r.Context()).Warn("update failed", zap.String("resource", res.Key()), zap.String("id", id), zap.Error(err))
			h.renderForm(w, r, failureStatus(err), res, formState{
				mode:   "update",
				id:     id,
				values: echo(res.Fields(), r.PostForm),
				note:   middleware.NewFlash(r, middleware.LevelError, "save_failed", upstream.Message(err)),
			})
			return
		}
		h.record(r, "update", res.Key(), scope.EventID, []string{id}, summary(res.Fields(), body))
		middleware.Flash(w, r, middleware.LevelSuccess, "updated")
		http.Redirect(w, r, BasePath(res, scope), http.StatusSeeOther)
	}
}

func (h *ResourceHandler) Delete(res resources.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := scopeOf(r)
		id := recordID(r)
		base := BasePath(res, scope)
		if err := h.gate.Authorize(r.Context(), gate.ActionDelete, res.Key(), resources.Ref(id)); err != nil {
			middleware.Flash(w, r, middleware.LevelError, denialCode(err))
			http.Redirect(w, r, base, http.StatusSeeOther)
			return
		}
		if err := res.Delete(r.Context(), scope, id); err != nil {
			if upstream.IsUnauthorized(err) {
				sessionLost(h.sessions, w, r)
				return
			}
			logger.FromContext(r.Context()).Warn("delete failed", zap.String("resource", res.Key()), zap.String("id", id), zap.Error(err))
			middleware.Flash(w, r, middleware.LevelError, "delete_failed", upstream.Message(err))
			http.Redirect(w, r, base, http.StatusSeeOther)
			return
		}
		h.record(r, "delete", res.Key(), scope.EventID, []string{id}, "")
		middleware.Flash(w, r, middleware.LevelSuccess, "deleted")
		http.Redirect(w, r, base, http.StatusSeeOther)
	}
}

// BulkDelete deletes the ticked ids. Failed ids are ticked again on the
// page the form was posted from.
func (h *ResourceHandler) BulkDelete(res resources.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			renderError(w, r, http.StatusBadRequest, "invalid_format")
			return
		}
		scope := scopeOf(r)
		q := queryOf(r.PostForm)
		base := BasePath(res, scope)
		flash := func(selected []string, level, code string, detail ...string) {
			middleware.Flash(w, r, level, code, detail...)
			http.Redirect(w, r, backTo(base, q, selected...), http.StatusSeeOther)
		}

		// The ticked rows are authoritative. select_all=page alone comes
		// from a browser without script, where the row boxes never follow
		// the "select all" box.
		sel := listview.NewSelection(r.PostForm["ids"]...)
		if sel.Len() == 0 && r.PostForm.Get("select_all") == "page" {
			listing, err := res.Fetch(r.Context(), scope)
			if err != nil {
				if h.fetchFailed(w, r, res, err) {
					return
				}
				if !listing.Stale {
					flash(nil, middleware.LevelError, "fetch_failed", upstream.Message(err))
					return
				}
			}
			sel = listview.SelectPage(listing.Page(q, res.PageSize()), resources.RowID)
		}
		ids := sel.IDs()
		if len(ids) == 0 {
			flash(nil, middleware.LevelError, "nothing_selected")
			return
		}
		for _, id := range ids {
			if err := h.gate.Authorize(r.Context(), gate.ActionDelete, res.Key(), resources.Ref(id)); err != nil {
				flash(ids, middleware.LevelError, denialCode(err))
				return
			}
		}

		result, err := res.DeleteMany(r.Context(), scope, ids)
		h.metrics.BulkDelete(res.Key(), len(result.Deleted), len(result.Failed))
		if len(result.Deleted) > 0 {
			h.record(r, "bulk_delete", res.Key(), scope.EventID, result.Deleted, "")
		}
		if err == nil {
			err = result.Err()
		}
		switch {
		case err == nil:
			flash(nil, middleware.LevelSuccess, "bulk_deleted", strconv.Itoa(len(result.Deleted)))
		case upstream.IsUnauthorized(err):
			sessionLost(h.sessions, w, r)
		case len(result.Deleted) > 0:
			logger.FromContext(r.Context()).Warn("bulk delete partly failed", zap.String("resource", res.Key()), zap.Strings("failed", result.FailedIDs()), zap.Error(err))
			flash(result.FailedIDs(), middleware.LevelError, "bulk_partial", fmt.Sprintf("%d/%d", len(result.Failed), len(ids)))
		default:
			logger.FromContext(r.Context()).Warn("bulk delete failed", zap.String("resource", res.Key()), zap.Error(err))
			flash(ids, middleware.LevelError, "delete_failed", upstream.Message(err))
		}
	}
}

// SaveDraft stores the submitted form without validating it.
func (h *ResourceHandler) SaveDraft(res resources.Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			renderError(w, r, http.StatusBadRequest, "invalid_format")
			return
		}
		scope := scopeOf(r)
		base := BasePath(res, scope)
		if h.drafts == nil {
			http.Redirect(w, r, base+"/new", http.StatusSeeOther)
			return
		}
		if err := h.drafts.Save(r.Context(), scope.SessionID, draftKey(res, scope), echo(res.Fields(), r.PostForm)); err != nil {
			logger.FromContext(r.Context()).Error("draft not saved", zap.String("resource", res.Key()), zap.Error(err))
			middleware.Flash(w, r, middleware.LevelError, "save_failed")
		} else {
			middleware.Flash(w, r, middleware.LevelSuccess, "draft_saved")
		}
		http.Redirect(w, r, base+"/new", http.StatusSeeOther)
	}
}
