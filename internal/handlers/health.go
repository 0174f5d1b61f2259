package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/vikenamera/CraftVersee/internal/kv"
	"github.com/vikenamera/CraftVersee/internal/platform/httpx"
)

const (
	readinessTimeout = 2 * time.Second
	readinessProbe   = "readiness/probe"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	checks  map[string]ReadinessCheck
	started time.Time
	now     func() time.Time
}

// HealthOption customises HealthHandlers.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers constructs probe handlers. Without checks /readyz always reports ok.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		checks: map[string]ReadinessCheck{},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.started = h.now()
	return h
}

// WithReadinessCheck registers a named dependency check.
func WithReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		if check != nil && name != "" {
			h.checks[name] = check
		}
	}
}

// WithHealthClock overrides the clock used for uptime reporting.
func WithHealthClock(now func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if now != nil {
			h.now = now
		}
	}
}

// StoreCheck probes a key-value store. A missing probe key still proves the store answers.
func StoreCheck(store kv.Store) ReadinessCheck {
	return func(ctx context.Context) error {
		if store == nil {
			return kv.ErrUnavailable
		}
		if _, err := store.Get(ctx, readinessProbe); err != nil && !errors.Is(err, kv.ErrNotFound) {
			return err
		}
		return nil
	}
}

// Healthz reports liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

// Readyz runs every registered check and answers 503 when any fails.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status = "degraded"
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, code, map[string]any{
		"status": status,
		"uptime": h.now().Sub(h.started).Round(time.Second).String(),
		"checks": results,
	})
}
