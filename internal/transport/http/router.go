package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"urec/internal/platform/middleware"
	"urec/pkg/httputil"
	"urec/pkg/requestcontext"
)

// RouterConfig carries the transport-level knobs.
type RouterConfig struct {
	AdminToken         string
	CORSAllowedOrigins []string
}

// NewRouter assembles the full HTTP surface: public capacity/update routes,
// token-gated admin routes, health and Prometheus metrics.
func NewRouter(
	cfg RouterConfig,
	occupancy *OccupancyHandler,
	areas *AreaHandler,
	health *HealthHandler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestMeta)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/", handleRoot)
	r.Method(http.MethodGet, "/api/health", health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	occupancy.Register(r)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdminToken(cfg.AdminToken, logger))
		occupancy.RegisterAdmin(admin)
		areas.RegisterAdmin(admin)
	})

	return r
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"service":   "occupancy-tracker",
		"status":    "running",
		"timestamp": requestcontext.Now(r.Context()),
	})
}
