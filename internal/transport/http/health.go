package httptransport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"urec/pkg/httputil"
	"urec/pkg/requestcontext"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one backing dependency.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandler reports service liveness and the state of each configured
// dependency. With no checks configured it always reports healthy.
type HealthHandler struct {
	checks []HealthCheck
}

func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ServeHTTP fans the probes out concurrently. A failed dependency degrades
// the report but never takes the endpoint down; readers can still poll.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	var mu sync.Mutex
	results := make(map[string]string, len(h.checks))

	g, ctx := errgroup.WithContext(ctx)
	for _, check := range h.checks {
		g.Go(func() error {
			err := check.Probe(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[check.Name] = err.Error()
			} else {
				results[check.Name] = "ok"
			}
			return nil
		})
	}
	_ = g.Wait()

	status := "healthy"
	httpStatus := http.StatusOK
	for _, outcome := range results {
		if outcome != "ok" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	httputil.WriteJSON(w, httpStatus, healthResponse{
		Status:    status,
		Timestamp: requestcontext.Now(r.Context()),
		Checks:    results,
	})
}
