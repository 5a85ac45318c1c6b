package policy

import (
	"gorm.io/gorm"

	"github.com/diewo77/eventdesk/auth"
	"github.com/diewo77/eventdesk/internal/handlers"
	"github.com/diewo77/eventdesk/internal/metrics"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/resources"
	"github.com/diewo77/eventdesk/internal/services"
	"github.com/diewo77/eventdesk/internal/store"
	"github.com/diewo77/eventdesk/internal/upstream"
)

// Deps are the long-lived services the handlers are built from.
type Deps struct {
	DB       *gorm.DB
	Client   *upstream.Client
	Sessions *auth.Manager
	Limiter  *middleware.LoginLimiter
	Metrics  *metrics.Metrics
}

// RouterConfig holds configured handlers and middleware for the application.
type RouterConfig struct {
	// AuthGate provides authorization checks and middleware
	AuthGate *AuthGate
	Registry *resources.Registry

	AuthHandler      *handlers.AuthHandler
	ResourceHandler  *handlers.ResourceHandler
	DashboardHandler *handlers.DashboardHandler
	ActivityHandler  *handlers.ActivityHandler
	HealthHandler    *handlers.HealthHandler
}

// NewRouterConfig wires the resource registry, the authorization gate and
// every handler.
//
//	cfg := policy.NewRouterConfig(deps)
//	r.With(cfg.AuthGate.RequirePermission("staff", gate.ActionList)).Get("/events/{eventID}/staff", cfg.ResourceHandler.List(staff))
//	r.With(cfg.AuthGate.RequireAdmin()).Get("/activity", cfg.ActivityHandler.List)
func NewRouterConfig(d Deps) *RouterConfig {
	snapshots := store.NewSnapshots(d.DB)
	drafts := store.NewDrafts(d.DB)
	audit := store.NewAudit(d.DB)

	if d.Sessions != nil {
		d.Sessions.OnEnd(snapshots.Purge)
	}

	registry := resources.Default(d.Client, snapshots)
	authGate := NewAuthGate(registry.Keys())

	return &RouterConfig{
		AuthGate:         authGate,
		Registry:         registry,
		AuthHandler:      handlers.NewAuthHandler(d.Client, d.Sessions, audit, d.Limiter, d.Metrics),
		ResourceHandler:  handlers.NewResourceHandler(registry, authGate, d.Sessions, drafts, audit, d.Metrics),
		DashboardHandler: handlers.NewDashboardHandler(services.NewOverviewService(registry), d.Sessions),
		ActivityHandler:  handlers.NewActivityHandler(audit),
		HealthHandler:    handlers.NewHealthHandler(d.DB, d.Client),
	}
}
