// Package access keeps the paywall buttons in step with the viewer's access
// status and decides what a click on them does.
package access

import (
	"strings"
	"sync"

	"github.com/Its-donkey/climbcam-live/internal/ui/i18n"
	"github.com/Its-donkey/climbcam-live/internal/ui/model"
)

// View renders one ButtonState onto every button/message pair of the page in
// a single call, so the pairs never show different snapshots.
type View interface {
	Render(state model.ButtonState)
}

// StreamState owns the most recent stream URL reported by the status API.
// The poller writes it and the click handler reads it.
type StreamState struct {
	mu  sync.RWMutex
	url string
}

// StreamURL returns the cached stream URL, or "" if none was seen yet.
func (s *StreamState) StreamURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Remember caches url when it is non-empty. Responses without a URL leave the
// previous value in place.
func (s *StreamState) Remember(url string) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()
}

// Derive maps an access status to the button state. The checks run in
// priority order: granted, pending payment, then everything else.
func Derive(status model.AccessStatus, c i18n.Catalog) model.ButtonState {
	switch {
	case status.AccessGranted:
		return model.ButtonState{
			Kind:    model.StateGranted,
			Enabled: true,
			Label:   c.WatchLive,
			Message: c.GrantedPrefix + status.Message,
		}
	case status.PaymentStatus == model.PaymentPending:
		return model.ButtonState{
			Kind:    model.StatePending,
			Enabled: true,
			Label:   c.PayToWatch,
			Message: c.PendingPrefix + status.Message,
		}
	default:
		return model.ButtonState{
			Kind:    model.StateUnavailable,
			Enabled: false,
			Label:   c.CameraUnavailable,
			Message: c.UnavailablePrefix + status.Message,
		}
	}
}

// ErrorState is rendered when the status could not be fetched or decoded.
func ErrorState(c i18n.Catalog) model.ButtonState {
	return model.ButtonState{
		Kind:    model.StateError,
		Enabled: false,
		Label:   c.ConnectionError,
		Message: c.StatusCheckFailed,
	}
}

// DeriveLive maps the legacy live flag to its two-state button.
func DeriveLive(live model.LiveStatus, c i18n.Catalog) model.ButtonState {
	if live.Live {
		return model.ButtonState{
			Kind:    model.StateLive,
			Enabled: true,
			Label:   c.JoinEvent,
			Message: c.LiveMessage,
		}
	}
	return model.ButtonState{
		Kind:    model.StateNotStarted,
		Enabled: false,
		Label:   c.NotStarted,
		Message: c.NotLiveMessage,
	}
}
