// Package app wires the drop zone widgets, the upload handler and the live
// channel into one HTTP server.
package app

import (
	_ "embed"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/dropzone/internal/config"
	"github.com/vango-dev/dropzone/pkg/accept"
	"github.com/vango-dev/dropzone/pkg/dropzone"
	"github.com/vango-dev/dropzone/pkg/live"
	"github.com/vango-dev/dropzone/pkg/middleware"
	"github.com/vango-dev/dropzone/pkg/upload"
)

// Route paths.
const (
	PathIndex   = "/"
	PathUpload  = "/upload"
	PathLive    = "/live"
	PathPresets = "/api/presets"
	PathResolve = "/api/resolve"
	PathScript  = "/static/dropzone.js"
)

// fieldName is the form field the demo page and the live channel use.
const fieldName = "files"

//go:embed static/dropzone.js
var clientScript []byte

// App is the dropzone HTTP server.
type App struct {
	cfg      *config.Config
	store    upload.Store
	logger   *slog.Logger
	registry *prometheus.Registry
	router   chi.Router
}

// New creates an App serving uploads into store.
// If logger is nil, slog.Default() is used.
func New(cfg *config.Config, store upload.Store, logger *slog.Logger) *App {
	if cfg == nil {
		cfg = config.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		registry: reg,
	}
	a.router = a.routes()
	return a
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Registry returns the registry behind the metrics endpoint.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

func (a *App) routes() chi.Router {
	r := chi.NewRouter()
	metricsPath := a.metricsPath()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(a.logger))
	r.Use(middleware.OpenTelemetry(
		middleware.WithTracerName("dropzone"),
		middleware.WithRequestFilter(func(r *http.Request) bool {
			return r.URL.Path != metricsPath
		}),
	))
	r.Use(middleware.Prometheus(middleware.WithRegistry(a.registry)))

	r.Get(PathIndex, a.handleIndex)
	r.Get(PathScript, handleScript)
	r.Get(PathPresets, handlePresets)
	r.Get(PathResolve, handleResolve)
	r.Method(http.MethodPost, PathUpload, upload.HandlerWithConfig(a.store, a.uploadConfig()))
	r.Method(http.MethodGet, PathLive, live.Handler(a.liveField, a.logger))

	if a.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, metricsPath, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}
	return r
}

func (a *App) metricsPath() string {
	if a.cfg.Metrics.Path == "" {
		return "/metrics"
	}
	return a.cfg.Metrics.Path
}

func (a *App) uploadConfig() *upload.Config {
	u := a.cfg.Upload
	return &upload.Config{
		MaxFileSize: u.MaxFileSize,
		MaxFiles:    u.MaxFiles,
		Multiple:    u.Multiple,
		Accept:      u.Accept,
		AcceptFunc:  a.requestSpec,
		TempExpiry:  u.TempExpiry,
		Logger:      a.logger,
		Metrics:     upload.NewMetrics(a.registry),
	}
}

// fieldOptions are the options shared by the page and the live channel.
func (a *App) fieldOptions(spec accept.Spec, uploadURL string) []dropzone.FieldOption {
	u := a.cfg.Upload
	return []dropzone.FieldOption{
		dropzone.FieldName(fieldName),
		dropzone.FieldAccept(spec),
		dropzone.FieldMultiple(u.Multiple),
		dropzone.FieldMaxFiles(u.MaxFiles),
		dropzone.FieldMaxSize(u.MaxFileSize),
		dropzone.FieldUploadURL(uploadURL),
	}
}

// newField builds the widget for spec: an image field when every effective
// type is an image, a file field otherwise.
func (a *App) newField(spec accept.Spec, uploadURL string) *dropzone.Field {
	if imagesOnly(accept.Effective(spec)) {
		return dropzone.NewImageField(a.fieldOptions(spec, uploadURL)...)
	}
	return dropzone.NewField(a.fieldOptions(spec, uploadURL)...)
}

// liveField is the per-connection factory for the live channel. An invalid
// accept query falls back to the configured Spec.
func (a *App) liveField(r *http.Request) *dropzone.Field {
	spec, err := a.requestSpec(r)
	if err != nil {
		a.logger.Debug("live accept ignored", "accept", r.URL.Query().Get("accept"), "error", err)
		return a.newField(a.cfg.Upload.Accept, PathUpload)
	}
	return a.newField(spec, uploadURL(r))
}

// requestSpec reads the accept query parameter, defaulting to the
// configured Spec when it is absent. The page, the live channel and the
// upload endpoint all go through it, so a file the widget accepts is one
// the server will store.
func (a *App) requestSpec(r *http.Request) (accept.Spec, error) {
	q := r.URL.Query().Get("accept")
	if q == "" {
		return a.cfg.Upload.Accept, nil
	}
	return accept.Parse(q)
}

// uploadURL is the upload endpoint carrying the request's accept override,
// if any.
func uploadURL(r *http.Request) string {
	q := r.URL.Query().Get("accept")
	if q == "" {
		return PathUpload
	}
	return PathUpload + "?" + url.Values{"accept": {q}}.Encode()
}

func imagesOnly(m accept.Mapping) bool {
	if len(m) == 0 {
		return false
	}
	for _, t := range m.Types() {
		if !strings.HasPrefix(t, "image/") {
			return false
		}
	}
	return true
}

func handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(clientScript)
}
