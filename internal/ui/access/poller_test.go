package access

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Its-donkey/climbcam-live/internal/ui/api"
	"github.com/Its-donkey/climbcam-live/internal/ui/i18n"
	"github.com/Its-donkey/climbcam-live/internal/ui/model"
)

func TestPollRendersBothPairsAndCachesURL(t *testing.T) {
	view := &pairView{}
	stub := &stubAPI{status: statusOf(model.AccessStatus{
		AccessGranted: true,
		Message:       "ok",
		StreamURL:     "https://x/y.m3u8",
	})}
	p := NewPoller(stub, view, nil, WithCatalog(i18n.English))

	require.NoError(t, p.Poll(context.Background()))

	primary, second := view.pairs()
	assert.Equal(t, primary, second)
	assert.True(t, primary.Enabled)
	assert.Equal(t, "Watch Live", primary.Label)
	assert.Equal(t, "✅ ok", primary.Message)
	assert.Equal(t, "https://x/y.m3u8", p.State().StreamURL())
}

func TestPollFailureOverridesPreviousState(t *testing.T) {
	view := &pairView{}
	stub := &stubAPI{status: statusOf(model.AccessStatus{PaymentStatus: "pending", Message: "pay"})}
	p := NewPoller(stub, view, nil, WithCatalog(i18n.English))
	require.NoError(t, p.Poll(context.Background()))

	primary, _ := view.pairs()
	require.True(t, primary.Enabled)

	boom := errors.New("network down")
	stub.status = func(context.Context) (model.AccessStatus, error) { return model.AccessStatus{}, boom }
	err := p.Poll(context.Background())
	assert.ErrorIs(t, err, boom)

	primary, second := view.pairs()
	assert.Equal(t, primary, second)
	assert.False(t, primary.Enabled)
	assert.Equal(t, model.StateError, primary.Kind)
	assert.Equal(t, "Connection Error", primary.Label)
}

func TestPollKeepsCachedURLWhenResponseOmitsIt(t *testing.T) {
	state := &StreamState{}
	state.Remember("https://cam/stream.m3u8")
	stub := &stubAPI{status: statusOf(model.AccessStatus{PaymentStatus: "none", Message: "down"})}
	p := NewPoller(stub, &pairView{}, state)

	require.NoError(t, p.Poll(context.Background()))
	assert.Equal(t, "https://cam/stream.m3u8", state.StreamURL())
}

func TestPollSkipsWhilePreviousInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	stub := &stubAPI{status: func(ctx context.Context) (model.AccessStatus, error) {
		close(entered)
		<-release
		return model.AccessStatus{AccessGranted: true}, nil
	}}
	view := &pairView{}
	p := NewPoller(stub, view, nil)

	done := make(chan error, 1)
	go func() { done <- p.Poll(context.Background()) }()
	<-entered

	assert.ErrorIs(t, p.Poll(context.Background()), ErrPollInFlight)
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, view.count())
}

func TestPollTimesOutHungRequest(t *testing.T) {
	stub := &stubAPI{status: func(ctx context.Context) (model.AccessStatus, error) {
		<-ctx.Done()
		return model.AccessStatus{}, ctx.Err()
	}}
	view := &pairView{}
	p := NewPoller(stub, view, nil, WithRequestTimeout(10*time.Millisecond))

	err := p.Poll(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	primary, _ := view.pairs()
	assert.Equal(t, model.StateError, primary.Kind)
}

func TestPollAgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_granted":false,"payment_status":"none","message":"down"}`))
	}))
	defer srv.Close()

	view := &pairView{}
	p := NewPoller(api.NewClient(srv.URL), view, nil, WithCatalog(i18n.English))
	require.NoError(t, p.Poll(context.Background()))

	primary, second := view.pairs()
	assert.Equal(t, primary, second)
	assert.False(t, primary.Enabled)
	assert.Equal(t, "Camera Unavailable", primary.Label)
}

func TestPollAgainstUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	view := &pairView{}
	p := NewPoller(api.NewClient(url), view, nil, WithCatalog(i18n.English))
	assert.Error(t, p.Poll(context.Background()))

	primary, _ := view.pairs()
	assert.Equal(t, "Connection Error", primary.Label)
}

func TestRunPollsRepeatedlyAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	view := &pairView{}
	stub := &stubAPI{status: statusOf(model.AccessStatus{AccessGranted: true})}
	p := NewPoller(stub, view, nil, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return view.count() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestDefaultIntervals(t *testing.T) {
	assert.Equal(t, 15*time.Second, NewPoller(&stubAPI{}, &pairView{}, nil).Interval())
	assert.Equal(t, 30*time.Second, NewLegacyPoller(&stubAPI{}, &pairView{}).Interval())
	assert.Equal(t, time.Minute, NewPoller(&stubAPI{}, &pairView{}, nil, WithInterval(time.Minute)).Interval())
	assert.Equal(t, 15*time.Second, NewPoller(&stubAPI{}, &pairView{}, nil, WithInterval(0)).Interval())
}
