package app

import (
	"context"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom-ims/stockroom/internal/inventory"
	"github.com/stockroom-ims/stockroom/internal/observability"
	"github.com/stockroom-ims/stockroom/internal/platform/httpx"
	"github.com/stockroom-ims/stockroom/internal/shared"
	"github.com/stockroom-ims/stockroom/web"
)

const dbProbeTimeout = 2 * time.Second

func init() {
	if mime.TypeByExtension(".css") == "" {
		_ = mime.AddExtensionType(".css", "text/css; charset=utf-8")
	}
}

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	InventoryHandler *inventory.Handler
	Database         Pinger
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Stockroom defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/healthz/db", func(w http.ResponseWriter, r *http.Request) {
		if params.Database == nil {
			httpx.Problem(w, http.StatusServiceUnavailable, "database unavailable", "no database configured")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), dbProbeTimeout)
		defer cancel()
		if err := params.Database.Ping(ctx); err != nil {
			params.Logger.Warn("database probe failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "database unavailable", "")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "reachable"})
	})

	params.InventoryHandler.MountRoutes(r)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler caches static assets in the browser for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
