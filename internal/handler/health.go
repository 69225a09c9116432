package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/nikolayk812/shopflow/internal/httpx"
	"github.com/nikolayk812/shopflow/internal/observability"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandlers struct {
	db Pinger
}

func NewHealthHandlers(db Pinger) *HealthHandlers {
	return &HealthHandlers{db: db}
}

func (h *HealthHandlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether the database answers within readinessTimeout.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		observability.FromContext(ctx).Warn("readiness check failed", zap.Error(err))
		httpx.WriteError(r.Context(), w, httpx.NewError("not_ready", "database unavailable", http.StatusServiceUnavailable))
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
