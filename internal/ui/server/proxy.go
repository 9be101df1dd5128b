package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type proxyMetrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	rateLimited *prometheus.CounterVec
	pageRenders prometheus.Counter
}

func newProxyMetrics(reg prometheus.Registerer) *proxyMetrics {
	m := &proxyMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climbcam",
			Subsystem: "ui_proxy",
			Name:      "requests_total",
			Help:      "Requests forwarded to the backend, by route and status code.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climbcam",
			Subsystem: "ui_proxy",
			Name:      "request_duration_seconds",
			Help:      "Backend round trip latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climbcam",
			Subsystem: "ui_proxy",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client limiter, by route.",
		}, []string{"route"}),
		pageRenders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climbcam",
			Subsystem: "ui",
			Name:      "page_renders_total",
			Help:      "Paywall page renders.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.rateLimited, m.pageRenders)
	return m
}

// backendProxy forwards a route to the backend and records its outcome.
func backendProxy(target *url.URL, route string, metrics *proxyMetrics, logger zerolog.Logger) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn().Err(err).Str("route", route).Msg("backend unreachable")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"backend unavailable"}`))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r.Host = target.Host
		lrw := newLoggingResponseWriter(w)
		proxy.ServeHTTP(lrw, r)
		metrics.requests.WithLabelValues(route, strconv.Itoa(lrw.StatusCode())).Inc()
		metrics.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// limitPerClient caps requests per client IP per minute. A limit of zero
// disables the limiter.
func limitPerClient(limit int, route string, metrics *proxyMetrics) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := time.Minute
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.rateLimited.WithLabelValues(route).Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded"}`))
		}),
	)
}
