//go:build !js && !wasm

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Its-donkey/climbcam-live/internal/logx"
	"github.com/Its-donkey/climbcam-live/internal/ui/config"
	"github.com/Its-donkey/climbcam-live/internal/ui/server"
)

func main() {
	cfg, err := loadConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ui-serve: %v\n", err)
		os.Exit(2)
	}

	logger := logx.Configure(logx.Config{Level: cfg.LogLevel, Service: "climbcam-ui"})

	apiURL, _ := url.Parse(cfg.APITarget)
	srv, err := server.New(server.Options{
		Listen:       cfg.ListenAddr,
		AssetsDir:    cfg.AssetsDir,
		TemplatesDir: cfg.TemplatesDir,
		APITarget:    apiURL,
		Page:         cfg.Page,
		PaymentRate:  cfg.PaymentRate,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}

// loadConfig reads UI_* environment defaults and applies flag overrides.
func loadConfig(args []string, output io.Writer) (config.Server, error) {
	cfg, err := config.ServerFromEnv()
	if err != nil {
		return config.Server{}, err
	}

	fs := flag.NewFlagSet("ui-serve", flag.ContinueOnError)
	fs.SetOutput(output)
	listen := fs.String("listen", cfg.ListenAddr, "address to serve the paywall page")
	assetsDir := fs.String("dir", cfg.AssetsDir, "directory containing main.wasm, wasm_exec.js and styles.css")
	templatesDir := fs.String("templates", cfg.TemplatesDir, "directory holding an optional page.tmpl override")
	apiTarget := fs.String("api", cfg.APITarget, "base URL of the camera backend")
	variant := fs.String("variant", string(cfg.Page.Variant), "page variant: primary or legacy")
	lang := fs.String("lang", strings.Join(cfg.Page.Languages, ","), "comma separated preferred languages")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level for the server and the page runtime")
	paymentRate := fs.Int("payment-rate", cfg.PaymentRate, "payment requests allowed per client IP per minute (0 disables)")
	if err := fs.Parse(args); err != nil {
		return config.Server{}, err
	}

	page, err := config.FromAttributes(map[string]string{
		config.AttrVariant:  *variant,
		config.AttrLang:     *lang,
		config.AttrLogLevel: *logLevel,
	})
	if err != nil {
		return config.Server{}, err
	}
	cfg.Page = page
	cfg.ListenAddr = *listen
	cfg.AssetsDir = *assetsDir
	cfg.TemplatesDir = *templatesDir
	cfg.APITarget = *apiTarget
	cfg.LogLevel = *logLevel
	cfg.PaymentRate = *paymentRate

	if err := cfg.Validate(); err != nil {
		return config.Server{}, err
	}
	return cfg, nil
}
