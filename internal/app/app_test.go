package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/orbitscene/internal/config"
	"github.com/Faultbox/orbitscene/internal/control"
	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/internal/engine/device/devicetest"
	"github.com/Faultbox/orbitscene/internal/engine/input"
	"github.com/Faultbox/orbitscene/pkg/math"
)

const triangle = `{"vertices": [0,0,0, 1,0,0, 0,1,0], "indices": [0,1,2]}`

func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, *devicetest.Recorder) {
	t.Helper()
	cfg := config.Default()
	cfg.Models = nil
	if mutate != nil {
		mutate(cfg)
	}

	dev := devicetest.New()
	a := &App{config: cfg, input: input.New()}
	require.NoError(t, a.build(dev, 640, 480))
	t.Cleanup(a.Close)
	return a, dev
}

func TestHandleZoomMovesDistance(t *testing.T) {
	a, _ := newTestApp(t, nil)

	assert.False(t, a.handle([]input.Event{{Type: input.EventZoom, Steps: input.ZoomSteps}}))
	assert.InDelta(t, -69, a.renderer.Distance(), 1e-4)

	c, ok := a.panel.Get(control.Distance)
	require.True(t, ok)
	assert.InDelta(t, -69, c.Scalar(), 1e-4)

	// Far past the range clamps at the near limit.
	a.handle([]input.Event{{Type: input.EventZoom, Steps: 10000}})
	assert.InDelta(t, -50, a.renderer.Distance(), 1e-4)
}

func TestHandleResizeAndQuit(t *testing.T) {
	a, dev := newTestApp(t, nil)
	before := dev.Count("SetViewport")

	quit := a.handle([]input.Event{
		{Type: input.EventResize, Width: 800, Height: 600},
		{Type: input.EventQuit},
		{Type: input.EventResize, Width: 10, Height: 10},
	})
	assert.True(t, quit)
	assert.Equal(t, before+1, dev.Count("SetViewport"))
}

func TestBuildFailsOnShaderError(t *testing.T) {
	cfg := config.Default()
	dev := devicetest.New()
	dev.FailCompile = map[device.Stage]string{device.StageVertex: "0:1: syntax error"}

	a := &App{config: cfg}
	err := a.build(dev, 640, 480)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create renderer")
	a.Close()
}

func TestStartLoadsConfiguredModels(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.json"), []byte(triangle), 0o644))

	a, _ := newTestApp(t, func(cfg *config.Config) {
		cfg.Loader.Root = dir
		cfg.Models = []config.ModelConfig{
			{Alias: "cone", Path: "tri.json"},
			{Alias: "cube1", Path: "tri.json"},
			{Alias: "broken", Path: "missing.json"},
		}
	})

	a.start(context.Background())

	now := 0.0
	assert.Eventually(t, func() bool {
		now += 16
		if err := a.renderer.Frame(now); err != nil {
			return false
		}
		return a.registry.Len() == 2 && a.registry.Failed("broken") != nil
	}, 5*time.Second, 10*time.Millisecond)

	_, err := a.registry.Lookup("cone")
	assert.NoError(t, err)
}

func TestStartWatchesTuningFile(t *testing.T) {
	dir := t.TempDir()
	tuning := filepath.Join(dir, "tuning.yaml")
	require.NoError(t, os.WriteFile(tuning, []byte("Distance: -120\n"), 0o644))

	a, _ := newTestApp(t, func(cfg *config.Config) {
		cfg.Tuning.File = tuning
	})
	a.start(context.Background())

	assert.Eventually(t, func() bool {
		return a.renderer.Distance() == -120
	}, 5*time.Second, 10*time.Millisecond)
}

func TestTuningReachesObjectsPublishedLater(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.json"), []byte(triangle), 0o644))
	tuning := filepath.Join(dir, "tuning.yaml")
	require.NoError(t, os.WriteFile(tuning, []byte("Top Color: [0, 255, 0]\n"), 0o644))

	a, _ := newTestApp(t, func(cfg *config.Config) {
		cfg.Loader.Root = dir
		cfg.Tuning.File = tuning
		cfg.Models = []config.ModelConfig{{Alias: "cone", Path: "tri.json"}}
	})
	a.start(context.Background())

	now := 0.0
	assert.Eventually(t, func() bool {
		now += 16
		if err := a.renderer.Frame(now); err != nil {
			return false
		}
		a.notifyPublished()
		obj, err := a.registry.Lookup("cone")
		if err != nil {
			return false
		}
		return obj.Material().Diffuse == math.Vec4{0, 1, 0, 1}
	}, 5*time.Second, 10*time.Millisecond)
}
