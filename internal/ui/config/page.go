// Package config holds the page runtime and UI server settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Its-donkey/climbcam-live/internal/ui/api"
)

// ErrInvalid wraps every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Variant selects which status check a page runs. The two are alternative
// deployments of the same page and never run together.
type Variant string

const (
	VariantPrimary Variant = "primary"
	VariantLegacy  Variant = "legacy"
)

// Page attribute names read from the <body> element.
const (
	AttrVariant        = "data-variant"
	AttrPollInterval   = "data-poll-interval"
	AttrRequestTimeout = "data-request-timeout"
	AttrAPIBase        = "data-api-base"
	AttrStatusPath     = "data-status-path"
	AttrPaymentPath    = "data-payment-path"
	AttrLivePath       = "data-live-path"
	AttrLang           = "data-lang"
	AttrLogLevel       = "data-log-level"
)

// PageAttributes lists every attribute FromAttributes understands.
var PageAttributes = []string{
	AttrVariant, AttrPollInterval, AttrRequestTimeout, AttrAPIBase,
	AttrStatusPath, AttrPaymentPath, AttrLivePath, AttrLang, AttrLogLevel,
}

const (
	defaultPrimaryInterval = 15 * time.Second
	defaultLegacyInterval  = 30 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	minPollInterval        = time.Second
)

// Page captures the runtime settings of the paywall page.
type Page struct {
	Variant        Variant
	PollInterval   time.Duration
	RequestTimeout time.Duration
	APIBase        string
	StatusPath     string
	PaymentPath    string
	LivePath       string
	Languages      []string
	LogLevel       string
}

// DefaultPage returns the defaults for a variant.
func DefaultPage(v Variant) Page {
	interval := defaultPrimaryInterval
	if v == VariantLegacy {
		interval = defaultLegacyInterval
	} else {
		v = VariantPrimary
	}
	return Page{
		Variant:        v,
		PollInterval:   interval,
		RequestTimeout: defaultRequestTimeout,
		StatusPath:     api.DefaultStatusPath,
		PaymentPath:    api.DefaultPaymentPath,
		LivePath:       api.DefaultLivePath,
		LogLevel:       "info",
	}
}

// FromAttributes builds a Page from data-* attributes. Missing attributes
// keep the variant defaults.
func FromAttributes(attrs map[string]string) (Page, error) {
	get := func(key string) string { return strings.TrimSpace(attrs[key]) }

	variant := Variant(strings.ToLower(get(AttrVariant)))
	switch variant {
	case "", VariantPrimary, VariantLegacy:
	default:
		return Page{}, fmt.Errorf("%w: unknown variant %q", ErrInvalid, variant)
	}
	cfg := DefaultPage(variant)

	if v := get(AttrPollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Page{}, fmt.Errorf("%w: %s: %v", ErrInvalid, AttrPollInterval, err)
		}
		cfg.PollInterval = d
	}
	if v := get(AttrRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Page{}, fmt.Errorf("%w: %s: %v", ErrInvalid, AttrRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	cfg.APIBase = get(AttrAPIBase)
	if v := get(AttrStatusPath); v != "" {
		cfg.StatusPath = v
	}
	if v := get(AttrPaymentPath); v != "" {
		cfg.PaymentPath = v
	}
	if v := get(AttrLivePath); v != "" {
		cfg.LivePath = v
	}
	if v := get(AttrLang); v != "" {
		cfg.Languages = splitList(v)
	}
	if v := get(AttrLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	return cfg, cfg.Validate()
}

// Validate ensures the page configuration is usable.
func (p Page) Validate() error {
	if p.PollInterval < minPollInterval {
		return fmt.Errorf("%w: poll interval %s below %s", ErrInvalid, p.PollInterval, minPollInterval)
	}
	if p.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalid)
	}
	for name, path := range map[string]string{"status": p.StatusPath, "payment": p.PaymentPath, "live": p.LivePath} {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%w: %s path %q must start with /", ErrInvalid, name, path)
		}
	}
	return nil
}

// Attributes renders the page settings back into data-* attributes, for the
// server-side template.
func (p Page) Attributes() map[string]string {
	attrs := map[string]string{
		AttrVariant:        string(p.Variant),
		AttrPollInterval:   p.PollInterval.String(),
		AttrRequestTimeout: p.RequestTimeout.String(),
		AttrStatusPath:     p.StatusPath,
		AttrPaymentPath:    p.PaymentPath,
		AttrLivePath:       p.LivePath,
		AttrLogLevel:       p.LogLevel,
	}
	if p.APIBase != "" {
		attrs[AttrAPIBase] = p.APIBase
	}
	if len(p.Languages) > 0 {
		attrs[AttrLang] = strings.Join(p.Languages, ",")
	}
	return attrs
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
