package access

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/Its-donkey/climbcam-live/internal/logx"
	"github.com/Its-donkey/climbcam-live/internal/ui/i18n"
	"github.com/Its-donkey/climbcam-live/internal/ui/model"
)

// Polling defaults.
const (
	DefaultInterval       = 15 * time.Second
	DefaultLegacyInterval = 30 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

// ErrPollInFlight is returned by Poll when the previous poll has not finished.
var ErrPollInFlight = errors.New("status poll already in flight")

// StatusFetcher retrieves the current access status.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (model.AccessStatus, error)
}

// PollerOption customises a Poller or LegacyPoller.
type PollerOption func(*pollerConfig)

type pollerConfig struct {
	interval time.Duration
	timeout  time.Duration
	catalog  i18n.Catalog
	logger   zerolog.Logger
}

// WithInterval sets the time between polls. Non-positive values are ignored.
func WithInterval(d time.Duration) PollerOption {
	return func(c *pollerConfig) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithRequestTimeout bounds each status request. Non-positive values are ignored.
func WithRequestTimeout(d time.Duration) PollerOption {
	return func(c *pollerConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCatalog selects the labels rendered by the poller.
func WithCatalog(catalog i18n.Catalog) PollerOption {
	return func(c *pollerConfig) { c.catalog = catalog }
}

// WithLogger sets the poller logger.
func WithLogger(logger zerolog.Logger) PollerOption {
	return func(c *pollerConfig) { c.logger = logger }
}

func newPollerConfig(interval time.Duration, component string, opts []PollerOption) pollerConfig {
	cfg := pollerConfig{
		interval: interval,
		timeout:  DefaultRequestTimeout,
		catalog:  i18n.PortugueseBR,
		logger:   logx.WithComponent(component),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Poller periodically fetches the access status and renders it.
type Poller struct {
	fetcher StatusFetcher
	view    View
	state   *StreamState
	cfg     pollerConfig
	// one poll at a time; overlapping ticks are skipped
	inFlight *semaphore.Weighted
}

// NewPoller wires a poller. state may be shared with a ClickHandler.
func NewPoller(fetcher StatusFetcher, view View, state *StreamState, opts ...PollerOption) *Poller {
	if state == nil {
		state = &StreamState{}
	}
	return &Poller{
		fetcher:  fetcher,
		view:     view,
		state:    state,
		cfg:      newPollerConfig(DefaultInterval, "access-poller", opts),
		inFlight: semaphore.NewWeighted(1),
	}
}

// State returns the stream state the poller writes to.
func (p *Poller) State() *StreamState {
	return p.state
}

// Interval reports the configured polling interval.
func (p *Poller) Interval() time.Duration {
	return p.cfg.interval
}

// Poll runs a single status check and renders the result. On failure the
// error state is rendered and the fetch error returned.
func (p *Poller) Poll(ctx context.Context) error {
	if !p.inFlight.TryAcquire(1) {
		p.cfg.logger.Debug().Msg("previous status poll still running, skipping tick")
		return ErrPollInFlight
	}
	defer p.inFlight.Release(1)

	ctx = logx.ContextWithRequestID(ctx, uuid.NewString())
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.timeout)
	defer cancel()

	status, err := p.fetcher.FetchStatus(reqCtx)
	if err != nil {
		logger := logx.WithContext(ctx, p.cfg.logger)
		logger.Warn().Err(err).Msg("error checking camera status")
		p.view.Render(ErrorState(p.cfg.catalog))
		return err
	}

	p.state.Remember(status.StreamURL)
	p.view.Render(Derive(status, p.cfg.catalog))
	return nil
}

// Run polls immediately and then on every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	runEvery(ctx, p.cfg.interval, func(ctx context.Context) {
		_ = p.Poll(ctx)
	})
}

// runEvery calls fn now and on every tick, each call on its own goroutine the
// way timer callbacks fire in the page. It returns once ctx is done and all
// calls have finished.
func runEvery(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	var wg sync.WaitGroup
	defer wg.Wait()

	fire := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	fire()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fire()
		}
	}
}
