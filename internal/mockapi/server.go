// Package mockapi is an in-memory stand-in for the upstream REST API. It
// speaks the same envelope and endpoints, so tests and local development
// can run eventdesk without the real backend.
package mockapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

// SessionCookie is the cookie the fake upstream sets at login.
const SessionCookie = "connect.sid"

// GlobalCollections are listed at /{name}; EventCollections at
// /events/{event}/{name} and filtered on evenement_id.
var (
	GlobalCollections = []string{"events", "clients", "departments", "instructors", "agencies", "cars"}
	EventCollections  = []string{"staff", "equipment", "accommodations", "soirees", "transports", "workshops", "pauses", "teams"}
)

type record map[string]any

// Account is an upstream login as stored by the fake.
type Account struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type failure struct {
	status  int
	message string
}

// Server holds the fake upstream state. It is safe for concurrent use.
type Server struct {
	mu          sync.Mutex
	nextID      int64
	collections map[string][]record
	scoped      map[string]bool
	accounts    []Account
	sessions    map[string]int64
	failures    map[string]failure
	secret      []byte
	tokenTTL    time.Duration
	calls       map[string]int
	router      chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// New returns an empty server with one admin account
// (admin@example.com / admin123).
func New(opts ...Option) *Server {
	s := &Server{
		collections: make(map[string][]record),
		scoped:      make(map[string]bool),
		sessions:    make(map[string]int64),
		failures:    make(map[string]failure),
		calls:       make(map[string]int),
		secret:      []byte(uuid.NewString()),
		tokenTTL:    2 * time.Hour,
	}
	for _, name := range GlobalCollections {
		s.collections[name] = nil
	}
	for _, name := range EventCollections {
		s.collections[name] = nil
		s.scoped[name] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	s.AddAccount("admin", "admin@example.com", "admin", "admin123")
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(s.injectFailures)

	r.Post("/logIn", s.login)
	r.Post("/signUp", s.signUp)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/getAcounts", s.listAccounts)
		r.Put("/updateAccount", s.updateAccount)
		r.Delete("/deleteAccount", s.deleteAccount)

		r.Get("/events/{event}/{collection}", s.listScoped)
		r.Get("/{collection}", s.list)
		r.Post("/{collection}", s.create)
		r.Delete("/{collection}", s.bulkDelete)
		r.Get("/{collection}/{id}", s.get)
		r.Put("/{collection}/{id}", s.update)
		r.Delete("/{collection}/{id}", s.delete)
	})
	return r
}

// FailNext makes the next request matching method and path answer with
// status and success=false. A 200 status yields a success=false envelope
// with a 200 code.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// Calls returns how many requests reached method and path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[key]++
		f, ok := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()
		if ok {
			fail(w, r, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ok(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, response{Success: true, Data: data})
}

func fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, response{Success: false, Message: msg})
}

// idString normalises the id representations found in decoded JSON.
func idString(v any) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// Collection returns a copy of the records of name, sorted by id.
func (s *Server) Collection(name string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.collections[name]))
	for _, rec := range s.collections[name] {
		cp := make(map[string]any, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// Insert stores rec in collection name and returns its new id.
func (s *Server) Insert(name string, rec map[string]any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(name, rec)
}

var errUnknownCollection = errors.New("unknown collection")

func (s *Server) insertLocked(name string, rec map[string]any) (int64, error) {
	if _, known := s.collections[name]; !known {
		return 0, errUnknownCollection
	}
	if s.scoped[name] && idString(rec["evenement_id"]) == "" {
		return 0, errors.New("evenement_id is required")
	}
	s.nextID++
	stored := make(record, len(rec)+1)
	for k, v := range rec {
		stored[k] = v
	}
	stored["id"] = s.nextID
	s.collections[name] = append(s.collections[name], stored)
	return s.nextID, nil
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, known := s.collections[name]
	if !known {
		fail(w, r, http.StatusNotFound, "unknown collection "+name)
		return
	}
	ok(w, r, http.StatusOK, append([]record{}, recs...))
}

func (s *Server) listScoped(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	event := chi.URLParam(r, "event")
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scoped[name] {
		fail(w, r, http.StatusNotFound, "unknown collection "+name)
		return
	}
	if !s.hasRecordLocked("events", event) {
		fail(w, r, http.StatusNotFound, "event not found")
		return
	}
	out := make([]record, 0)
	for _, rec := range s.collections[name] {
		if idString(rec["evenement_id"]) == event {
			out = append(out, rec)
		}
	}
	ok(w, r, http.StatusOK, out)
}

func (s *Server) hasRecordLocked(name, id string) bool {
	for _, rec := range s.collections[name] {
		if idString(rec["id"]) == id {
			return true
		}
	}
	return false
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "collection"), chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.collections[name] {
		if idString(rec["id"]) == id {
			ok(w, r, http.StatusOK, rec)
			return
		}
	}
	fail(w, r, http.StatusNotFound, "record not found")
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	var rec map[string]any
	if err := render.DecodeJSON(r.Body, &rec); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	delete(rec, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.insertLocked(name, rec)
	switch {
	case errors.Is(err, errUnknownCollection):
		fail(w, r, http.StatusNotFound, "unknown collection "+name)
	case err != nil:
		fail(w, r, http.StatusBadRequest, err.Error())
	default:
		ok(w, r, http.StatusCreated, s.collections[name][len(s.collections[name])-1])
	}
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "collection"), chi.URLParam(r, "id")
	var patch map[string]any
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		fail(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.collections[name] {
		if idString(rec["id"]) != id {
			continue
		}
		for k, v := range patch {
			if k != "id" {
				rec[k] = v
			}
		}
		ok(w, r, http.StatusOK, rec)
		return
	}
	fail(w, r, http.StatusNotFound, "record not found")
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	name, id := chi.URLParam(r, "collection"), chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removeLocked(name, map[string]bool{id: true}) == 0 {
		fail(w, r, http.StatusNotFound, "record not found")
		return
	}
	ok(w, r, http.StatusOK, map[string]string{"id": id})
}

type idsBody struct {
	IDs []any `json:"ids"`
}

func (s *Server) bulkDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	var body idsBody
	if err := render.DecodeJSON(r.Body, &body); err != nil || len(body.IDs) == 0 {
		fail(w, r, http.StatusBadRequest, "ids are required")
		return
	}
	want := make(map[string]bool, len(body.IDs))
	for _, id := range body.IDs {
		want[idString(id)] = true
	}
	s.mu.Lock()
	n := s.removeLocked(name, want)
	s.mu.Unlock()
	ok(w, r, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) removeLocked(name string, ids map[string]bool) int {
	kept := s.collections[name][:0]
	removed := 0
	for _, rec := range s.collections[name] {
		if ids[idString(rec["id"])] {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.collections[name] = kept
	return removed
}

// Counts returns the number of records per collection, for diagnostics.
func (s *Server) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.collections))
	for name, recs := range s.collections {
		out[name] = len(recs)
	}
	return out
}

// Names lists every collection, sorted.
func (s *Server) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.collections))
	for name := range s.collections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if t, found := strings.CutPrefix(h, "Bearer "); found {
		return strings.TrimSpace(t)
	}
	return ""
}
