package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/gate"
	"github.com/diewo77/eventdesk/internal/config"
	"github.com/diewo77/eventdesk/internal/handlers"
	"github.com/diewo77/eventdesk/internal/logger"
	"github.com/diewo77/eventdesk/internal/metrics"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/policy"
	"github.com/diewo77/eventdesk/internal/resources"
	"github.com/diewo77/eventdesk/view"
)

// App is the main application handler that sets up all routes.
type App struct {
	router    chi.Router
	cfg       *config.Config
	log       *zap.Logger
	sessions  *auth.Manager
	metrics   *metrics.Metrics
	routerCfg *policy.RouterConfig
}

// NewApp creates a new application with all routes configured.
func NewApp(cfg *config.Config, log *zap.Logger, sessions *auth.Manager, m *metrics.Metrics, routerCfg *policy.RouterConfig) *App {
	app := &App{
		router:    chi.NewRouter(),
		cfg:       cfg,
		log:       log,
		sessions:  sessions,
		metrics:   m,
		routerCfg: routerCfg,
	}
	// Templates only see resolver callbacks, never policy types.
	view.SetCanProfileResolver(func(r *http.Request, resource, action string) bool {
		return routerCfg.AuthGate.CanProfile(r.Context(), gate.Action(action), resource)
	})
	view.SetIsAdminResolver(func(r *http.Request) bool {
		return routerCfg.AuthGate.IsAdmin(r.Context())
	})
	view.SetNavigation(navigation(routerCfg.Registry))
	if cfg.App.Dev {
		view.SetDevDir("view")
	}
	app.setupRoutes()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// navigation lists the sidebar links. Accounts live in the admin section.
func navigation(reg *resources.Registry) view.Navigation {
	var nav view.Navigation
	for _, res := range reg.Global() {
		if res.Key() == policy.AccountsResource {
			continue
		}
		nav.Global = append(nav.Global, view.NavItem{Key: res.Key(), Title: res.Title()})
	}
	for _, res := range reg.Scoped() {
		nav.Scoped = append(nav.Scoped, view.NavItem{Key: res.Key(), Title: res.Title()})
	}
	return nav
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	r := a.router
	r.Use(chimw.RequestID, chimw.RealIP, logger.Middleware(a.log), chimw.Recoverer)
	r.Use(a.metrics.Middleware, middleware.Prefs)
	r.NotFound(handlers.NotFound)

	// ─────────────────────────────────────────────────────────────────────────
	// Probes, metrics and static files (no session, no CSRF)
	// ─────────────────────────────────────────────────────────────────────────
	hh := a.routerCfg.HealthHandler
	r.Get("/health", hh.Health)
	r.Get("/healthz", hh.Healthz)
	r.Handle("/metrics", a.metrics.Handler())
	r.Handle("/static/*", view.StaticHandler())

	r.Group(func(r chi.Router) {
		if a.cfg.Security.CSRFEnabled {
			r.Use(a.csrf())
		}
		r.Use(a.sessions.Middleware)

		// ─────────────────────────────────────────────────────────────────────
		// Public routes (no auth required)
		// ─────────────────────────────────────────────────────────────────────
		ah := a.routerCfg.AuthHandler
		r.Get("/", ah.Home)
		r.Get("/login", ah.Login)
		r.Post("/login", ah.Login)
		r.Get("/signup", ah.Signup)
		r.Post("/signup", ah.Signup)
		r.Post("/logout", ah.Logout)

		// ─────────────────────────────────────────────────────────────────────
		// Authenticated routes (require logged-in user)
		// ─────────────────────────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)
			r.Get("/dashboard", a.routerCfg.DashboardHandler.Show)

			// Resource routes (require auth + <resource>:<action>).
			// Event-scoped resources nest under the event they belong to.
			for _, res := range a.routerCfg.Registry.Global() {
				res := res
				r.Route("/"+res.Key(), func(r chi.Router) {
					if res.Key() == policy.AccountsResource {
						r.Use(a.requireAdmin())
					}
					if res.Key() != resources.Events.Key {
						a.mountResource(r, res, "{id}")
						return
					}
					a.mountResource(r, res, "{eventID}")
					for _, sub := range a.routerCfg.Registry.Scoped() {
						sub := sub
						r.Route("/{eventID}/"+sub.Key(), func(r chi.Router) {
							a.mountResource(r, sub, "{id}")
						})
					}
				})
			}

			// ─────────────────────────────────────────────────────────────────
			// Admin routes (require the admin role)
			// ─────────────────────────────────────────────────────────────────
			r.With(a.requireAdmin()).Get("/activity", a.routerCfg.ActivityHandler.List)
		})
	})
}

// mountResource registers the list, form, delete and export routes of res.
// idParam names the record segment.
func (a *App) mountResource(r chi.Router, res resources.Resource, idParam string) {
	rh := a.routerCfg.ResourceHandler
	key := res.Key()

	r.With(a.requirePermission(key, gate.ActionList)).Get("/", rh.List(res))
	r.With(a.requirePermission(key, gate.ActionCreate)).Get("/new", rh.New(res))
	r.With(a.requirePermission(key, gate.ActionCreate)).Post("/", rh.Create(res))
	r.With(a.requirePermission(key, gate.ActionCreate)).Post("/draft", rh.SaveDraft(res))
	r.With(a.requirePermission(key, gate.ActionDelete)).Post("/delete", rh.BulkDelete(res))
	r.With(a.requirePermission(key, gate.ActionExport)).Get("/export.xlsx", rh.Export(res, handlers.FormatXLSX))
	r.With(a.requirePermission(key, gate.ActionExport)).Get("/export.pdf", rh.Export(res, handlers.FormatPDF))
	r.With(a.requirePermission(key, gate.ActionUpdate)).Get("/"+idParam+"/edit", rh.Edit(res))
	r.With(a.requirePermission(key, gate.ActionUpdate)).Post("/"+idParam, rh.Update(res))
	r.With(a.requirePermission(key, gate.ActionDelete)).Post("/"+idParam+"/delete", rh.Delete(res))
}

// csrf protects every form post. Outside production the dashboard is
// served over plain HTTP, which the origin check has to be told about.
func (a *App) csrf() func(http.Handler) http.Handler {
	protect := csrf.Protect(
		[]byte(a.cfg.Security.CSRFKey),
		csrf.Secure(a.cfg.IsProduction()),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.FromContext(r.Context()).Warn("csrf check failed", zap.Error(csrf.FailureReason(r)))
			handlers.Forbidden(w, r)
		})),
	)
	if a.cfg.IsProduction() {
		return protect
	}
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware helpers
// ─────────────────────────────────────────────────────────────────────────────

// requireAuth wraps a handler to require authentication.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(next)
}

// requirePermission creates middleware that checks for a specific permission.
func (a *App) requirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequirePermission(resourceType, action)
}

// requireAdmin creates middleware that requires the admin role.
func (a *App) requireAdmin() func(http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequireAdmin()
}
