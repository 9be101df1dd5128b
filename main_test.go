package main

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeProcsPassFlags(t *testing.T) {
	procs := serveProcs("0.0.0.0:8080", "http://cam:8000", " Legacy ")
	require.Len(t, procs, 1)
	assert.Equal(t, []string{
		"go", "run", "./cmd/ui-serve",
		"-listen", "0.0.0.0:8080",
		"-api", "http://cam:8000",
		"-variant", "legacy",
		"-dir", "ui",
		"-templates", "ui/templates",
	}, procs[0].Args)
}

func TestBuildStepsTargetAssetsDir(t *testing.T) {
	steps := buildSteps("dist")
	require.Len(t, steps, 2)
	assert.Contains(t, steps[0].Args, "dist/main.wasm")
	assert.Equal(t, []string{"GOOS=js", "GOARCH=wasm"}, steps[0].Env)
	assert.Equal(t, "dist/wasm_exec.js", steps[1].Args[len(steps[1].Args)-1])
}

func TestRunStepsStopsAtFirstFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	err := runSteps(context.Background(), []procConfig{
		{Name: "fails", Args: []string{"false"}},
		{Name: "never", Args: []string{"does-not-exist-binary"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fails")
}

func TestRunAllRequiresProcesses(t *testing.T) {
	assert.Error(t, runAll(context.Background(), nil))
}
