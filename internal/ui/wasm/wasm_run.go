//go:build js && wasm

package wasm

import (
	"context"
	"syscall/js"

	"github.com/Its-donkey/climbcam-live/internal/logx"
	"github.com/Its-donkey/climbcam-live/internal/ui/access"
	"github.com/Its-donkey/climbcam-live/internal/ui/api"
	"github.com/Its-donkey/climbcam-live/internal/ui/config"
	"github.com/Its-donkey/climbcam-live/internal/ui/i18n"
	"github.com/Its-donkey/climbcam-live/internal/ui/player"
)

// RunApp bootstraps the paywall page and blocks forever.
func RunApp() {
	done := make(chan struct{})
	window := js.Global()
	Document = window.Get("document")

	cfg, err := config.FromAttributes(readAttributes(Document.Get("body"), config.PageAttributes))
	if err != nil {
		consoleCall("error", "invalid page configuration, using defaults", err.Error())
		cfg = config.DefaultPage(config.VariantPrimary)
	}
	logger := logx.Configure(logx.Config{
		Level:   cfg.LogLevel,
		Output:  ConsoleWriter{},
		Service: "climbcam-page",
	})
	catalog := i18n.Lookup(append(cfg.Languages, documentLanguages()...)...)

	view, ok := bindButtonPairs()
	if !ok {
		logger.Error().Msg("paywall buttons missing from page")
		return
	}

	client := api.NewClient(cfg.APIBase,
		api.WithPaths(cfg.StatusPath, cfg.PaymentPath, cfg.LivePath),
		api.WithLogger(logx.WithComponent("api")),
	)
	opts := []access.PollerOption{
		access.WithInterval(cfg.PollInterval),
		access.WithRequestTimeout(cfg.RequestTimeout),
		access.WithCatalog(catalog),
	}

	ctx := context.Background()
	switch cfg.Variant {
	case config.VariantLegacy:
		poller := access.NewLegacyPoller(client, view, opts...)
		go poller.Run(ctx)
	default:
		poller := access.NewPoller(client, view, nil, opts...)
		modal := player.NewModal(newSurfaceBuilder(catalog), hlsEngine{})
		handler := access.NewClickHandler(client, modal, pagePrompter{}, poller.State(), catalog,
			access.WithClickTimeout(cfg.RequestTimeout))
		bindClicks(view, func() {
			if _, err := handler.Handle(ctx); err != nil {
				logger.Debug().Err(err).Msg("click handled with error")
			}
		})
		go poller.Run(ctx)
	}
	logger.Info().Str("variant", string(cfg.Variant)).Dur("interval", cfg.PollInterval).Msg("paywall page started")
	<-done
}

func readAttributes(el js.Value, names []string) map[string]string {
	attrs := make(map[string]string, len(names))
	if !el.Truthy() {
		return attrs
	}
	for _, name := range names {
		v := el.Call("getAttribute", name)
		if v.Type() == js.TypeString {
			attrs[name] = v.String()
		}
	}
	return attrs
}

func documentLanguages() []string {
	var langs []string
	if root := Document.Get("documentElement"); root.Truthy() {
		if lang := root.Get("lang"); lang.Type() == js.TypeString && lang.String() != "" {
			langs = append(langs, lang.String())
		}
	}
	navigator := js.Global().Get("navigator")
	if !navigator.Truthy() {
		return langs
	}
	list := navigator.Get("languages")
	if list.Truthy() {
		for i := 0; i < list.Length(); i++ {
			langs = append(langs, list.Index(i).String())
		}
	}
	return langs
}

func consoleCall(method string, args ...any) {
	console := js.Global().Get("console")
	if console.Truthy() {
		console.Call(method, args...)
	}
}
