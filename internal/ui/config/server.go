package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

const (
	defaultListenAddr   = "127.0.0.1:4173"
	defaultAssetsDir    = "ui"
	defaultTemplatesDir = "ui/templates"
	defaultAPITarget    = "http://127.0.0.1:8000"
	defaultPaymentRate  = 10

	envListenAddr   = "UI_LISTEN_ADDR"
	envAssetsDir    = "UI_ASSETS_DIR"
	envTemplatesDir = "UI_TEMPLATES_DIR"
	envAPITarget    = "UI_API_TARGET"
	envVariant      = "UI_VARIANT"
	envLang         = "UI_LANG"
	envLogLevel     = "UI_LOG_LEVEL"
	envPaymentRate  = "UI_PAYMENT_RATE"
)

// Server captures runtime settings for the UI server.
type Server struct {
	ListenAddr   string
	AssetsDir    string
	TemplatesDir string
	APITarget    string
	LogLevel     string
	// PaymentRate caps proxied payment-session requests per client IP per minute.
	PaymentRate int
	Page        Page
}

// ServerFromEnv constructs a Server config from environment variables with defaults.
func ServerFromEnv() (Server, error) {
	cfg := Server{
		ListenAddr:   defaultListenAddr,
		AssetsDir:    defaultAssetsDir,
		TemplatesDir: defaultTemplatesDir,
		APITarget:    defaultAPITarget,
		LogLevel:     "info",
		PaymentRate:  defaultPaymentRate,
		Page:         DefaultPage(VariantPrimary),
	}

	if v := strings.TrimSpace(os.Getenv(envListenAddr)); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv(envAssetsDir)); v != "" {
		cfg.AssetsDir = v
	}
	if v := strings.TrimSpace(os.Getenv(envTemplatesDir)); v != "" {
		cfg.TemplatesDir = v
	}
	if v := strings.TrimSpace(os.Getenv(envAPITarget)); v != "" {
		cfg.APITarget = v
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(envVariant)); v != "" {
		page, err := FromAttributes(map[string]string{AttrVariant: v})
		if err != nil {
			return Server{}, err
		}
		cfg.Page = page
	}
	if v := strings.TrimSpace(os.Getenv(envLang)); v != "" {
		cfg.Page.Languages = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv(envPaymentRate)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Server{}, fmt.Errorf("%w: %s: %v", ErrInvalid, envPaymentRate, err)
		}
		cfg.PaymentRate = n
	}

	return cfg, nil
}

// Validate ensures the server configuration is usable.
func (c Server) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("%w: listen address is required", ErrInvalid)
	}
	if strings.TrimSpace(c.AssetsDir) == "" {
		return fmt.Errorf("%w: assets directory is required", ErrInvalid)
	}
	if strings.TrimSpace(c.TemplatesDir) == "" {
		return fmt.Errorf("%w: templates directory is required", ErrInvalid)
	}
	target, err := url.Parse(c.APITarget)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return fmt.Errorf("%w: invalid API target %q", ErrInvalid, c.APITarget)
	}
	if c.PaymentRate < 0 {
		return fmt.Errorf("%w: payment rate must not be negative", ErrInvalid)
	}
	return c.Page.Validate()
}
