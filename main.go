// Command climbcam-live is the local development runner: it builds the page
// runtime for the browser, then serves it against a camera backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

type procConfig struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

func main() {
	listen := flag.String("listen", "127.0.0.1:4173", "address for the UI server")
	apiTarget := flag.String("api", "http://127.0.0.1:8000", "base URL of the camera backend")
	variant := flag.String("variant", "primary", "page variant: primary or legacy")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runSteps(ctx, buildSteps("ui")); err != nil {
		fmt.Fprintf(os.Stderr, "climbcam-live build failed: %v\n", err)
		os.Exit(1)
	}
	if err := runAll(ctx, serveProcs(*listen, *apiTarget, *variant)); err != nil {
		fmt.Fprintf(os.Stderr, "climbcam-live exited with error: %v\n", err)
		os.Exit(1)
	}
}

// buildSteps compiles the wasm bundle into assetsDir and copies the matching
// wasm_exec.js shim from the local Go installation.
func buildSteps(assetsDir string) []procConfig {
	return []procConfig{
		{
			Name: "build-ui-wasm",
			Args: []string{"go", "build", "-o", filepath.Join(assetsDir, "main.wasm"), "./cmd/ui-wasm"},
			Env:  []string{"GOOS=js", "GOARCH=wasm"},
		},
		{
			Name: "copy-wasm-exec",
			Args: []string{"sh", "-c", `cp "$(go env GOROOT)/lib/wasm/wasm_exec.js" "$0"`, filepath.Join(assetsDir, "wasm_exec.js")},
		},
	}
}

func serveProcs(listen, apiTarget, variant string) []procConfig {
	return []procConfig{
		{
			Name: "ui",
			Args: []string{
				"go", "run", "./cmd/ui-serve",
				"-listen", listen,
				"-api", apiTarget,
				"-variant", strings.ToLower(strings.TrimSpace(variant)),
				"-dir", "ui",
				"-templates", "ui/templates",
			},
		},
	}
}

func command(ctx context.Context, cfg procConfig) *exec.Cmd {
	cmd := exec.CommandContext(ctx, cfg.Args[0], cfg.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if cfg.Dir != "" {
		cmd.Dir = cfg.Dir
	}
	if len(cfg.Env) > 0 {
		cmd.Env = append(append([]string{}, os.Environ()...), cfg.Env...)
	}
	return cmd
}

// runSteps runs each process to completion in order, stopping at the first failure.
func runSteps(ctx context.Context, steps []procConfig) error {
	for _, step := range steps {
		if err := command(ctx, step).Run(); err != nil {
			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}
	return nil
}

// runAll runs long-lived processes together until one fails or ctx is cancelled.
func runAll(ctx context.Context, procs []procConfig) error {
	if len(procs) == 0 {
		return fmt.Errorf("no processes configured")
	}
	var wg sync.WaitGroup
	errCh := make(chan error, len(procs))

	for _, cfg := range procs {
		wg.Add(1)
		go func(cfg procConfig) {
			defer wg.Done()
			cmd := command(ctx, cfg)
			if err := cmd.Start(); err != nil {
				errCh <- fmt.Errorf("%s start: %w", cfg.Name, err)
				return
			}
			if err := cmd.Wait(); err != nil {
				// Exits caused by cancellation are expected.
				select {
				case <-ctx.Done():
					return
				default:
				}
				errCh <- fmt.Errorf("%s exited: %w", cfg.Name, err)
			}
		}(cfg)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	case err := <-errCh:
		return err
	case <-done:
	}
	return nil
}
