package access

import (
	"context"
	"sync"

	"github.com/Its-donkey/climbcam-live/internal/ui/model"
	"github.com/Its-donkey/climbcam-live/internal/ui/player"
)

// pairView mimics the page: two button/message pairs updated from one Render.
type pairView struct {
	mu      sync.Mutex
	primary model.ButtonState
	second  model.ButtonState
	renders []model.ButtonState
}

func (v *pairView) Render(state model.ButtonState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.primary = state
	v.second = state
	v.renders = append(v.renders, state)
}

func (v *pairView) pairs() (model.ButtonState, model.ButtonState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.primary, v.second
}

func (v *pairView) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.renders)
}

type stubAPI struct {
	mu           sync.Mutex
	status       func(ctx context.Context) (model.AccessStatus, error)
	payment      func(ctx context.Context) (model.PaymentSession, error)
	live         func(ctx context.Context) (model.LiveStatus, error)
	statusCalls  int
	paymentCalls int
}

func (s *stubAPI) FetchStatus(ctx context.Context) (model.AccessStatus, error) {
	s.mu.Lock()
	s.statusCalls++
	fn := s.status
	s.mu.Unlock()
	return fn(ctx)
}

func (s *stubAPI) CreatePayment(ctx context.Context) (model.PaymentSession, error) {
	s.mu.Lock()
	s.paymentCalls++
	fn := s.payment
	s.mu.Unlock()
	if fn == nil {
		return model.PaymentSession{}, nil
	}
	return fn(ctx)
}

func (s *stubAPI) FetchLive(ctx context.Context) (model.LiveStatus, error) {
	return s.live(ctx)
}

func (s *stubAPI) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls, s.paymentCalls
}

func statusOf(status model.AccessStatus) func(context.Context) (model.AccessStatus, error) {
	return func(context.Context) (model.AccessStatus, error) { return status, nil }
}

type recordingPrompter struct {
	alerts     []string
	navigation []string
}

func (p *recordingPrompter) Alert(message string) { p.alerts = append(p.alerts, message) }
func (p *recordingPrompter) Navigate(url string)  { p.navigation = append(p.navigation, url) }

type recordingOpener struct {
	opened []string
	err    error
}

func (o *recordingOpener) Open(url string) (player.Strategy, error) {
	if o.err != nil {
		return "", o.err
	}
	o.opened = append(o.opened, url)
	return player.StrategyEngine, nil
}
