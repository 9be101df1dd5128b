package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Its-donkey/climbcam-live/internal/ui/api"
	"github.com/Its-donkey/climbcam-live/internal/ui/config"
)

func newTestServer(t *testing.T, backend string, mutate func(*Options)) *Server {
	t.Helper()
	target, err := url.Parse(backend)
	require.NoError(t, err)
	opts := Options{
		APITarget: target,
		Page:      config.DefaultPage(config.VariantPrimary),
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv, err := New(opts)
	require.NoError(t, err)
	return srv
}

func TestHandlePageRendersDOMContract(t *testing.T) {
	srv := newTestServer(t, "http://127.0.0.1:1", nil)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	require.NoError(t, ValidatePage(rr.Body.Bytes()))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	body := doc.Find("body")
	variant, _ := body.Attr(config.AttrVariant)
	interval, _ := body.Attr(config.AttrPollInterval)
	assert.Equal(t, "primary", variant)
	assert.Equal(t, "15s", interval)
	assert.Equal(t, "Câmera Indisponível", strings.TrimSpace(doc.Find("#payBtn").Text()))
	_, disabled := doc.Find("#payBtn2").Attr("disabled")
	assert.True(t, disabled)
	assert.Contains(t, doc.Find("footer").Text(), "2026")
}

func TestHandlePageRendersLegacyEnglish(t *testing.T) {
	page, err := config.FromAttributes(map[string]string{config.AttrVariant: "legacy", config.AttrLang: "en"})
	require.NoError(t, err)
	srv := newTestServer(t, "http://127.0.0.1:1", func(o *Options) { o.Page = page })

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	lang, _ := doc.Find("html").Attr("lang")
	variant, _ := doc.Find("body").Attr(config.AttrVariant)
	assert.Equal(t, "en", lang)
	assert.Equal(t, "legacy", variant)
	assert.Equal(t, "Camera Unavailable", strings.TrimSpace(doc.Find("#payBtn").Text()))
}

func TestValidatePageReportsMissingElements(t *testing.T) {
	html := []byte(`<html><body data-variant="primary"><div id="payBtn"></div><p id="statusMsg"></p></body></html>`)
	err := ValidatePage(html)
	require.ErrorIs(t, err, ErrPageContract)
	assert.Contains(t, err.Error(), "#payBtn2")
	assert.Contains(t, err.Error(), "#statusMsg2")
	assert.Contains(t, err.Error(), "button#payBtn")
}

func TestNewRejectsTemplateWithoutContract(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, pageTemplateName), []byte(`<html><body><button id="payBtn"></button></body></html>`), 0o644))

	target, _ := url.Parse("http://127.0.0.1:1")
	_, err := New(Options{
		APITarget:    target,
		TemplatesDir: dir,
		Page:         config.DefaultPage(config.VariantPrimary),
		Logger:       zerolog.Nop(),
	})
	assert.ErrorIs(t, err, ErrPageContract)
}

func TestNewRequiresAPITarget(t *testing.T) {
	_, err := New(Options{Page: config.DefaultPage(config.VariantPrimary)})
	assert.Error(t, err)
}

func TestStatusRequestsAreProxied(t *testing.T) {
	var gotPath, gotID string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotID = r.Header.Get(api.RequestIDHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_granted":true,"message":"ok"}`))
	}))
	defer backend.Close()

	reg := prometheus.NewRegistry()
	srv := newTestServer(t, backend.URL, func(o *Options) {
		o.Registerer = reg
		o.Gatherer = reg
	})

	req := httptest.NewRequest(http.MethodGet, "/streaming/api/status/", nil)
	req.Header.Set(api.RequestIDHeader, "tick-1")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"access_granted":true,"message":"ok"}`, rr.Body.String())
	assert.Equal(t, "/streaming/api/status/", gotPath)
	assert.Equal(t, "tick-1", gotID)
	assert.Equal(t, "tick-1", rr.Header().Get(api.RequestIDHeader))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.requests.WithLabelValues("/streaming/", "200")))
}

func TestHLSPlaylistIsProxied(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/streaming/camera/stream.m3u8", r.URL.Path)
		w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
		_, _ = w.Write([]byte("#EXTM3U\n"))
	}))
	defer backend.Close()

	srv := newTestServer(t, backend.URL, nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/streaming/camera/stream.m3u8", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "#EXTM3U\n", rr.Body.String())
}

func TestPaymentRequestsAreRateLimited(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"init_point":"https://pay/abc"}`))
	}))
	defer backend.Close()

	srv := newTestServer(t, backend.URL, func(o *Options) { o.PaymentRate = 1 })

	first := httptest.NewRecorder()
	srv.Handler().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/create-payment/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	srv.Handler().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/create-payment/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.rateLimited.WithLabelValues("/create-payment/")))
}

func TestUnreachableBackendReturnsBadGateway(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := backend.URL
	backend.Close()

	srv := newTestServer(t, addr, nil)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/check-youtube-live/", nil))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error":"backend unavailable"}`, rr.Body.String())
}

func TestStaticAssetsServeWasm(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.wasm"), []byte("\x00asm"), 0o644))

	srv := newTestServer(t, "http://127.0.0.1:1", func(o *Options) { o.AssetsDir = dir })
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/main.wasm", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/wasm", rr.Header().Get("Content-Type"))
	body, _ := io.ReadAll(rr.Body)
	assert.Equal(t, []byte("\x00asm"), body)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, "http://127.0.0.1:1", nil)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "climbcam_ui_page_renders_total 1")
}

func TestRoutePrefix(t *testing.T) {
	assert.Equal(t, "/streaming/", routePrefix("/streaming/api/status/"))
	assert.Equal(t, "/status/", routePrefix("/status/"))
	assert.Equal(t, "/", routePrefix("/"))
}
