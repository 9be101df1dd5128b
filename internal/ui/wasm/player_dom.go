//go:build js && wasm

package wasm

import (
	"errors"
	"syscall/js"

	"github.com/Its-donkey/climbcam-live/internal/ui/i18n"
	"github.com/Its-donkey/climbcam-live/internal/ui/player"
)

const (
	modalID         = "videoModal"
	overlayStyle    = "position: fixed; top: 0; left: 0; width: 100%; height: 100%; background: rgba(0,0,0,0.9); z-index: 1000; display: flex; align-items: center; justify-content: center;"
	containerStyle  = "position: relative; width: 90%; max-width: 800px; background: black; border-radius: 10px; overflow: hidden;"
	videoStyle      = "width: 100%; height: auto;"
	closeBtnStyle   = "position: absolute; top: 10px; right: 10px; background: rgba(255,255,255,0.8); border: none; border-radius: 50%; width: 30px; height: 30px; cursor: pointer; font-size: 16px; z-index: 1001;"
	closeBtnGlyph   = "✕"
	hlsGlobalName   = "Hls"
	hlsSupportCheck = "isSupported"
)

// domSurface is the overlay > container > (video, close button) tree.
type domSurface struct {
	overlay js.Value
	video   js.Value
	close   js.Value
	onClick js.Func
	bound   bool
}

func newSurfaceBuilder(catalog i18n.Catalog) player.SurfaceBuilder {
	return func() player.Surface {
		overlay := Document.Call("createElement", "div")
		overlay.Set("id", modalID)
		overlay.Get("style").Set("cssText", overlayStyle)

		container := Document.Call("createElement", "div")
		container.Get("style").Set("cssText", containerStyle)

		video := Document.Call("createElement", "video")
		video.Get("style").Set("cssText", videoStyle)
		video.Set("controls", true)
		video.Set("autoplay", true)

		closeBtn := Document.Call("createElement", "button")
		closeBtn.Set("type", "button")
		closeBtn.Set("textContent", closeBtnGlyph)
		closeBtn.Call("setAttribute", "aria-label", catalog.ClosePlayer)
		closeBtn.Get("style").Set("cssText", closeBtnStyle)

		container.Call("appendChild", video)
		container.Call("appendChild", closeBtn)
		overlay.Call("appendChild", container)

		return &domSurface{overlay: overlay, video: video, close: closeBtn}
	}
}

func (s *domSurface) CanPlayNative(mimeType string) bool {
	return s.video.Call("canPlayType", mimeType).String() != ""
}

func (s *domSurface) SetSource(url string) {
	s.video.Set("src", url)
}

func (s *domSurface) OnClose(fn func()) {
	s.releaseHandler()
	s.onClick = js.FuncOf(func(this js.Value, args []js.Value) any {
		go fn()
		return nil
	})
	s.bound = true
	s.close.Call("addEventListener", "click", s.onClick)
}

func (s *domSurface) Attach() {
	Document.Get("body").Call("appendChild", s.overlay)
}

func (s *domSurface) Detach() {
	parent := s.overlay.Get("parentNode")
	if parent.Truthy() {
		parent.Call("removeChild", s.overlay)
	}
}

func (s *domSurface) Release() {
	s.releaseHandler()
	s.video.Call("pause")
	s.video.Call("removeAttribute", "src")
}

func (s *domSurface) releaseHandler() {
	if !s.bound {
		return
	}
	s.close.Call("removeEventListener", "click", s.onClick)
	s.onClick.Release()
	s.bound = false
}

var errForeignSurface = errors.New("hls engine needs a DOM surface")

// hlsEngine drives the hls.js library when the page loaded it.
type hlsEngine struct{}

func (hlsEngine) Supported() bool {
	ctor := js.Global().Get(hlsGlobalName)
	if ctor.Type() != js.TypeFunction {
		return false
	}
	return ctor.Call(hlsSupportCheck).Truthy()
}

func (hlsEngine) Attach(surface player.Surface, url string) (player.Session, error) {
	s, ok := surface.(*domSurface)
	if !ok {
		return nil, errForeignSurface
	}
	hls := js.Global().Get(hlsGlobalName).New()
	hls.Call("loadSource", url)
	hls.Call("attachMedia", s.video)
	return hlsSession{hls: hls}, nil
}

type hlsSession struct {
	hls js.Value
}

func (h hlsSession) Destroy() {
	if h.hls.Truthy() {
		h.hls.Call("destroy")
	}
}
