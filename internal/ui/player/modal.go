// Package player manages the full-screen HLS player overlay.
package player

import (
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Its-donkey/climbcam-live/internal/logx"
)

// HLSMimeType is probed on the video surface for native playback support.
const HLSMimeType = "application/vnd.apple.mpegurl"

var (
	// ErrUnsupported means neither the HLS library nor the browser can play the stream.
	ErrUnsupported = errors.New("hls playback unsupported")
	// ErrNoStreamURL means Open was called without a URL.
	ErrNoStreamURL = errors.New("stream url missing")
)

// Surface is one constructed overlay holding a container, a video element
// and a close control. It is not part of the document until Attach.
type Surface interface {
	CanPlayNative(mimeType string) bool
	SetSource(url string)
	OnClose(fn func())
	Attach()
	Detach()
	// Release frees listeners held by the surface. It is safe to call on a
	// surface that was never attached.
	Release()
}

// SurfaceBuilder constructs a fresh, detached surface.
type SurfaceBuilder func() Surface

// Session is a running HLS library instance bound to a surface.
type Session interface {
	Destroy()
}

// Engine is the HLS playback library.
type Engine interface {
	Supported() bool
	Attach(surface Surface, url string) (Session, error)
}

// Strategy names how a stream was bound to the video surface.
type Strategy string

const (
	StrategyEngine Strategy = "hls-engine"
	StrategyNative Strategy = "native"
)

// Modal owns at most one open player.
type Modal struct {
	mu      sync.Mutex
	build   SurfaceBuilder
	engine  Engine
	logger  zerolog.Logger
	active  Surface
	session Session
}

// NewModal wires a modal. engine may be nil when no HLS library is loaded.
func NewModal(build SurfaceBuilder, engine Engine) *Modal {
	return &Modal{
		build:  build,
		engine: engine,
		logger: logx.WithComponent("player"),
	}
}

// Open shows the player for streamURL, replacing any player already open.
// On error nothing is left in the document.
func (m *Modal) Open(streamURL string) (Strategy, error) {
	streamURL = strings.TrimSpace(streamURL)
	if streamURL == "" {
		return "", ErrNoStreamURL
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()

	surface := m.build()
	var (
		strategy Strategy
		session  Session
	)
	switch {
	case m.engine != nil && m.engine.Supported():
		s, err := m.engine.Attach(surface, streamURL)
		if err != nil {
			surface.Release()
			return "", err
		}
		session = s
		strategy = StrategyEngine
	case surface.CanPlayNative(HLSMimeType):
		surface.SetSource(streamURL)
		strategy = StrategyNative
	default:
		surface.Release()
		return "", ErrUnsupported
	}

	surface.OnClose(m.Close)
	surface.Attach()
	m.active = surface
	m.session = session
	m.logger.Debug().Str("strategy", string(strategy)).Str("url", streamURL).Msg("player opened")
	return strategy, nil
}

// Close removes the open player. Calling it with no player open is a no-op.
func (m *Modal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

// IsOpen reports whether a player is currently in the document.
func (m *Modal) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

func (m *Modal) closeLocked() {
	if m.active == nil {
		return
	}
	if m.session != nil {
		m.session.Destroy()
	}
	m.active.Detach()
	m.active.Release()
	m.active = nil
	m.session = nil
	m.logger.Debug().Msg("player closed")
}
