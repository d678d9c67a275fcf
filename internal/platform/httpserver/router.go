package httpserver

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/example/comment-widget/internal/platform/api"
)

// RouterConfig tunes SetupRouter. All fields are optional.
type RouterConfig struct {
	// ReadyFunc backs /readyz; a non-nil error answers 503.
	ReadyFunc func() error
	// Logger enables one access log line per request.
	Logger *zap.Logger
	// AllowedOrigins overrides CORS_ALLOWED_ORIGINS.
	AllowedOrigins []string
}

// SetupRouter attaches base middlewares and the probe endpoints.
// It must be called before any route is registered.
func SetupRouter(r chi.Router, cfg ...RouterConfig) {
	var rc RouterConfig
	if len(cfg) > 0 {
		rc = cfg[0]
	}
	origins := rc.AllowedOrigins
	if len(origins) == 0 {
		origins = parseCORSOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))
	}

	r.Use(requestID)
	r.Use(middleware.Recoverer)
	if rc.Logger != nil {
		r.Use(accessLog(rc.Logger))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if rc.ReadyFunc != nil {
			if err := rc.ReadyFunc(); err != nil {
				api.Unavailable(w, r, "NOT_READY", err.Error())
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
}

// parseCORSOrigins splits a comma-separated origin list; empty means any.
func parseCORSOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
