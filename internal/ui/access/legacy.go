package access

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/Its-donkey/climbcam-live/internal/logx"
	"github.com/Its-donkey/climbcam-live/internal/ui/model"
)

// LiveFetcher retrieves the legacy live flag.
type LiveFetcher interface {
	FetchLive(ctx context.Context) (model.LiveStatus, error)
}

// LegacyPoller drives the older "is the event live" page. It renders the same
// View as Poller but only knows two states. A page runs one or the other.
type LegacyPoller struct {
	fetcher  LiveFetcher
	view     View
	cfg      pollerConfig
	inFlight *semaphore.Weighted
}

// NewLegacyPoller wires a legacy poller with a 30 second default interval.
func NewLegacyPoller(fetcher LiveFetcher, view View, opts ...PollerOption) *LegacyPoller {
	return &LegacyPoller{
		fetcher:  fetcher,
		view:     view,
		cfg:      newPollerConfig(DefaultLegacyInterval, "legacy-poller", opts),
		inFlight: semaphore.NewWeighted(1),
	}
}

// Interval reports the configured polling interval.
func (p *LegacyPoller) Interval() time.Duration {
	return p.cfg.interval
}

// Poll runs a single live check. Failures render the not-started state.
func (p *LegacyPoller) Poll(ctx context.Context) error {
	if !p.inFlight.TryAcquire(1) {
		return ErrPollInFlight
	}
	defer p.inFlight.Release(1)

	ctx = logx.ContextWithRequestID(ctx, uuid.NewString())
	logger := logx.WithContext(ctx, p.cfg.logger)
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.timeout)
	defer cancel()

	live, err := p.fetcher.FetchLive(reqCtx)
	if err != nil {
		logger.Warn().Err(err).Msg("error checking live status")
		p.view.Render(DeriveLive(model.LiveStatus{}, p.cfg.catalog))
		return err
	}
	if live.Error != "" {
		logger.Debug().Str("reason", live.Error).Msg("live check reported an error")
	}
	p.view.Render(DeriveLive(live, p.cfg.catalog))
	return nil
}

// Run polls immediately and then on every interval until ctx is done.
func (p *LegacyPoller) Run(ctx context.Context) {
	runEvery(ctx, p.cfg.interval, func(ctx context.Context) {
		_ = p.Poll(ctx)
	})
}
