package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/eventdesk/httpx"
	"github.com/diewo77/eventdesk/internal/db"
	"github.com/diewo77/eventdesk/internal/upstream"
)

type HealthHandler struct {
	db     *gorm.DB
	client *upstream.Client
}

func NewHealthHandler(gdb *gorm.DB, client *upstream.Client) *HealthHandler {
	return &HealthHandler{db: gdb, client: client}
}

// Health is the liveness probe.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Healthz is the readiness probe: the local database must answer. The
// upstream is reported but does not fail the probe.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok", "database": "ok"}
	if h.client != nil {
		body["upstream"] = h.client.BaseURL()
	}
	if err := db.Ping(h.db); err != nil {
		body["status"], body["database"] = "degraded", "unreachable"
		httpx.JSON(w, r, http.StatusServiceUnavailable, body)
		return
	}
	httpx.JSON(w, r, http.StatusOK, body)
}
