package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Its-donkey/climbcam-live/internal/logx"
	"github.com/Its-donkey/climbcam-live/internal/ui/api"
	"github.com/Its-donkey/climbcam-live/internal/ui/i18n"
	"github.com/Its-donkey/climbcam-live/internal/ui/model"
	"github.com/Its-donkey/climbcam-live/internal/ui/player"
)

// ClickAPI is what the click handler needs from the backend.
type ClickAPI interface {
	StatusFetcher
	CreatePayment(ctx context.Context) (model.PaymentSession, error)
}

// Opener shows the stream player.
type Opener interface {
	Open(streamURL string) (player.Strategy, error)
}

// Prompter is the page chrome: blocking alerts and full-page navigation.
type Prompter interface {
	Alert(message string)
	Navigate(url string)
}

// Outcome records what a click ended up doing.
type Outcome string

const (
	OutcomePlayerOpened Outcome = "player-opened"
	OutcomeRedirected   Outcome = "redirected"
	OutcomeAlerted      Outcome = "alerted"
)

// ClickHandler reacts to a click on either paywall button.
type ClickHandler struct {
	client  ClickAPI
	player  Opener
	ui      Prompter
	state   *StreamState
	catalog i18n.Catalog
	logger  zerolog.Logger
	timeout time.Duration
	// collapses a double click into one status/payment round trip
	group singleflight.Group
}

// ClickOption customizes a ClickHandler.
type ClickOption func(*ClickHandler)

// WithClickTimeout bounds each backend request a click makes. Non-positive
// values keep DefaultRequestTimeout.
func WithClickTimeout(d time.Duration) ClickOption {
	return func(h *ClickHandler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewClickHandler wires a click handler. state is normally the poller's.
func NewClickHandler(client ClickAPI, opener Opener, ui Prompter, state *StreamState, catalog i18n.Catalog, opts ...ClickOption) *ClickHandler {
	if state == nil {
		state = &StreamState{}
	}
	h := &ClickHandler{
		client:  client,
		player:  opener,
		ui:      ui,
		state:   state,
		catalog: catalog,
		logger:  logx.WithComponent("click-handler"),
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle re-checks the access status and then plays, pays or explains.
// Clicks that arrive while one is being handled share its result.
func (h *ClickHandler) Handle(ctx context.Context) (Outcome, error) {
	v, err, _ := h.group.Do("click", func() (any, error) {
		return h.handle(ctx)
	})
	outcome, _ := v.(Outcome)
	return outcome, err
}

func (h *ClickHandler) handle(ctx context.Context) (Outcome, error) {
	ctx = logx.ContextWithRequestID(ctx, uuid.NewString())
	logger := logx.WithContext(ctx, h.logger)

	statusCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	status, err := h.client.FetchStatus(statusCtx)
	if err != nil {
		logger.Error().Err(err).Msg("error handling payment click")
		h.ui.Alert(h.catalog.ConnectionRetry)
		return OutcomeAlerted, err
	}

	switch {
	case status.AccessGranted:
		return h.play(status)
	case status.PaymentStatus == model.PaymentPending:
		return h.pay(ctx, logger)
	default:
		h.ui.Alert(status.Message)
		return OutcomeAlerted, nil
	}
}

func (h *ClickHandler) play(status model.AccessStatus) (Outcome, error) {
	h.state.Remember(status.StreamURL)
	url := strings.TrimSpace(status.StreamURL)
	if url == "" {
		url = h.state.StreamURL()
	}
	if url == "" {
		message := status.Message
		if strings.TrimSpace(message) == "" {
			message = h.catalog.CameraUnavailable
		}
		h.ui.Alert(message)
		return OutcomeAlerted, player.ErrNoStreamURL
	}

	if _, err := h.player.Open(url); err != nil {
		if errors.Is(err, player.ErrUnsupported) {
			h.ui.Alert(h.catalog.HLSUnsupported)
		} else {
			h.ui.Alert(h.catalog.ConnectionRetry)
		}
		return OutcomeAlerted, fmt.Errorf("open player: %w", err)
	}
	return OutcomePlayerOpened, nil
}

func (h *ClickHandler) pay(ctx context.Context, logger zerolog.Logger) (Outcome, error) {
	payCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	session, err := h.client.CreatePayment(payCtx)
	switch {
	case err != nil && !errors.Is(err, api.ErrPaymentUnavailable):
		logger.Error().Err(err).Msg("payment session request failed")
		h.ui.Alert(h.catalog.ConnectionRetry)
		return OutcomeAlerted, err
	case err != nil || strings.TrimSpace(session.InitPoint) == "":
		logger.Warn().Err(err).Msg("payment session not created")
		h.ui.Alert(h.catalog.PaymentFailed)
		if err == nil {
			err = api.ErrPaymentUnavailable
		}
		return OutcomeAlerted, err
	}
	h.ui.Navigate(session.InitPoint)
	return OutcomeRedirected, nil
}
