// Package server serves the paywall page and its WASM runtime, and forwards
// the page's API calls to the backend.
package server

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Its-donkey/climbcam-live/internal/ui/config"
	"github.com/Its-donkey/climbcam-live/internal/ui/i18n"
)

const (
	assetPrefix      = "/static"
	defaultHLSScript = "https://cdn.jsdelivr.net/npm/hls.js@1"
	defaultTitle     = "ClimbCam Ao Vivo"
	defaultBlurb     = "Acompanhe a parede de escalada ao vivo."
)

// Options configures the UI HTTP server.
type Options struct {
	Listen       string
	AssetsDir    string
	TemplatesDir string
	APITarget    *url.URL
	Page         config.Page
	// PaymentRate caps payment-session requests per client IP per minute; 0 disables.
	PaymentRate int
	Title       string
	Description string
	HLSScript   string
	Logger      zerolog.Logger
	// Registerer receives the server metrics. Defaults to a private registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Now        func() time.Time
}

// Server is the UI HTTP server.
type Server struct {
	opts      Options
	templates *templateStore
	metrics   *proxyMetrics
	catalog   i18n.Catalog
	handler   http.Handler
	logger    zerolog.Logger
}

// New validates options, loads the page template and builds the router.
func New(opts Options) (*Server, error) {
	if opts.APITarget == nil || opts.APITarget.Scheme == "" || opts.APITarget.Host == "" {
		return nil, errors.New("server: API target is required")
	}
	if err := opts.Page.Validate(); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	if opts.Description == "" {
		opts.Description = defaultBlurb
	}
	if opts.HLSScript == "" {
		opts.HLSScript = defaultHLSScript
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Registerer == nil {
		reg := prometheus.NewRegistry()
		opts.Registerer = reg
		opts.Gatherer = reg
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	templates, err := newTemplateStore(opts.TemplatesDir, opts.Logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		templates: templates,
		metrics:   newProxyMetrics(opts.Registerer),
		catalog:   i18n.Lookup(opts.Page.Languages...),
		logger:    opts.Logger,
	}
	s.handler = withHTTPLogging(s.routes(), opts.Logger)
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	target := s.opts.APITarget
	page := s.opts.Page

	r.Get("/", s.handlePage)
	r.Get("/healthz", handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	statusRoute := routePrefix(page.StatusPath)
	r.Handle(statusRoute+"*", backendProxy(target, statusRoute, s.metrics, s.logger))
	r.With(limitPerClient(s.opts.PaymentRate, page.PaymentPath, s.metrics)).
		Handle(page.PaymentPath, backendProxy(target, page.PaymentPath, s.metrics, s.logger))
	r.Handle(page.LivePath, backendProxy(target, page.LivePath, s.metrics, s.logger))

	if dir := strings.TrimSpace(s.opts.AssetsDir); dir != "" {
		r.Handle(assetPrefix+"/*", http.StripPrefix(assetPrefix, staticHandler(dir)))
	}
	return r
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Lang:        s.catalog.Tag.String(),
		Title:       s.opts.Title,
		Description: s.opts.Description,
		AssetPrefix: assetPrefix,
		HLSScript:   s.opts.HLSScript,
		Year:        s.opts.Now().Year(),
		Attrs:       s.opts.Page.Attributes(),
		Labels:      s.catalog,
	}
	body, err := s.templates.render(data)
	if err != nil {
		s.logger.Error().Err(err).Msg("page render failed")
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	s.metrics.pageRenders.Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func staticHandler(root string) http.Handler {
	mime.AddExtensionType(".wasm", "application/wasm")
	fileServer := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".wasm") {
			w.Header().Set("Content-Type", "application/wasm")
		}
		fileServer.ServeHTTP(w, r)
	})
}

// routePrefix turns "/streaming/api/status/" into "/streaming/" so every
// streaming route, including the HLS playlist and segments, is forwarded.
func routePrefix(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	first, _, _ := strings.Cut(trimmed, "/")
	return "/" + first + "/"
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if dir := strings.TrimSpace(s.opts.AssetsDir); dir != "" {
		root, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolve assets directory: %w", err)
		}
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return fmt.Errorf("assets directory %s is invalid: %v", root, err)
		}
	}
	if err := s.templates.watch(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("page template hot reload disabled")
	}

	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("listen", s.opts.Listen).
			Str("api", s.opts.APITarget.String()).
			Str("variant", string(s.opts.Page.Variant)).
			Msg("serving paywall page")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
