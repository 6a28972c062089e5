package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"activityboard/internal/platform/metrics"
	"activityboard/internal/platform/middleware"
	dErrors "activityboard/pkg/domain-errors"
	"activityboard/pkg/platform/httputil"
	"activityboard/pkg/platform/middleware/metadata"
	"activityboard/pkg/platform/middleware/requesttime"
)

// IndexPath is where GET / redirects.
const IndexPath = "/static/index.html"

// Registrar is implemented by module handlers that mount their own routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthFunc reports whether backing stores are reachable.
type HealthFunc func(ctx context.Context) error

// Deps carries everything the router mounts.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	StaticDir      string
	Health         HealthFunc
	Handlers       []Registrar
}

// NewRouter wires global middleware, operational endpoints and module routes.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger, d.Metrics))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(d.Logger))
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}
	if d.Metrics != nil {
		r.Use(middleware.LatencyMiddleware(d.Metrics))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, IndexPath, http.StatusTemporaryRedirect)
	})
	r.Get("/healthz", handleHealth(d.Health, d.Logger))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	if d.StaticDir != "" {
		if info, err := os.Stat(d.StaticDir); err == nil && info.IsDir() {
			r.Get("/static/*", staticHandler(http.Dir(d.StaticDir)))
		}
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Not Found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{
			Error:  "method_not_allowed",
			Detail: "Method Not Allowed",
		})
	})

	for _, h := range d.Handlers {
		h.Register(r)
	}
	return r
}

func handleHealth(health HealthFunc, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "health check failed",
					"request_id", middleware.GetRequestID(r.Context()),
					"error", err,
				)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// staticHandler serves files from root. Unlike http.FileServer it serves
// /static/index.html directly instead of redirecting to the directory.
func staticHandler(root http.FileSystem) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + chi.URLParam(r, "*"))
		if name == "/" {
			name = "/index.html"
		}
		f, err := root.Open(name)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Not Found"))
			return
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil || info.IsDir() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Not Found"))
			return
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	}
}
