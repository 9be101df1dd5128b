//go:build js && wasm

package wasm

import (
	"syscall/js"

	"github.com/Its-donkey/climbcam-live/internal/ui/model"
)

// Element IDs the page template must provide.
const (
	PrimaryButtonID    = "payBtn"
	SecondaryButtonID  = "payBtn2"
	PrimaryMessageID   = "statusMsg"
	SecondaryMessageID = "statusMsg2"
)

var (
	// Document references the global browser document for DOM interactions.
	Document js.Value
	// ClickHandlers stores bound js.Func callbacks so they can be released later.
	ClickHandlers []js.Func
)

type buttonPair struct {
	button  js.Value
	message js.Value
}

// pairsView renders one ButtonState onto every bound button/message pair.
type pairsView struct {
	pairs []buttonPair
}

func bindButtonPairs() (*pairsView, bool) {
	ids := [][2]string{
		{PrimaryButtonID, PrimaryMessageID},
		{SecondaryButtonID, SecondaryMessageID},
	}
	view := &pairsView{}
	for _, id := range ids {
		button := Document.Call("getElementById", id[0])
		message := Document.Call("getElementById", id[1])
		if !button.Truthy() || !message.Truthy() {
			consoleCall("warn", "paywall pair missing", id[0], id[1])
			continue
		}
		view.pairs = append(view.pairs, buttonPair{button: button, message: message})
	}
	return view, len(view.pairs) > 0
}

func (v *pairsView) Render(state model.ButtonState) {
	for _, p := range v.pairs {
		p.button.Set("disabled", !state.Enabled)
		p.button.Set("textContent", state.Label)
		p.button.Get("dataset").Set("state", string(state.Kind))
		p.message.Set("textContent", state.Message)
	}
}

func bindClicks(view *pairsView, onClick func()) {
	for _, fn := range ClickHandlers {
		fn.Release()
	}
	ClickHandlers = nil

	handler := js.FuncOf(func(this js.Value, args []js.Value) any {
		go onClick()
		return nil
	})
	ClickHandlers = append(ClickHandlers, handler)
	for _, p := range view.pairs {
		p.button.Call("addEventListener", "click", handler)
	}
}

// pagePrompter shows blocking alerts and navigates the whole page.
type pagePrompter struct{}

func (pagePrompter) Alert(message string) {
	js.Global().Call("alert", message)
}

func (pagePrompter) Navigate(url string) {
	js.Global().Get("location").Set("href", url)
}
