// Package app wires the window, device, loaders and renderer into the
// host frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitscene/internal/assets"
	"github.com/Faultbox/orbitscene/internal/config"
	"github.com/Faultbox/orbitscene/internal/control"
	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/internal/engine/device/gldevice"
	"github.com/Faultbox/orbitscene/internal/engine/input"
	"github.com/Faultbox/orbitscene/internal/engine/renderer"
	"github.com/Faultbox/orbitscene/internal/engine/scene"
	"github.com/Faultbox/orbitscene/internal/engine/window"
	"github.com/Faultbox/orbitscene/internal/logger"
)

// App is one scene run.
type App struct {
	config   *config.Config
	window   *window.Window
	device   *gldevice.Device
	manager  *assets.Manager
	pool     *assets.Pool
	registry *scene.Registry
	renderer *renderer.Renderer
	panel    *control.Panel
	input    *input.Input

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	published chan struct{}
	seen      int
}

// New opens the window and GL context and builds the scene. Shader
// failures are returned and leave nothing open.
func New(cfg *config.Config) (*App, error) {
	logger.Info("initializing scene",
		zap.String("title", cfg.Window.Title),
		zap.Int("models", len(cfg.Models)),
	)

	a := &App{config: cfg, input: input.New()}

	var err error
	a.window, err = window.New(cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The device needs the GL context the window just made current.
	a.device, err = gldevice.New()
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	w, h := a.window.DrawableSize()
	if err := a.build(a.device, w, h); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("scene initialized")
	return a, nil
}

// build creates the loaders, renderer and control panel on dev.
func (a *App) build(dev device.Device, width, height int) error {
	a.manager = assets.NewManager(a.config.Loader.Root)
	a.pool = assets.NewPool(a.config.Loader.Workers)
	a.registry = scene.NewRegistry(a.manager, a.pool.Submit)

	rcfg := renderer.NewConfig(a.config)
	rcfg.Width, rcfg.Height = width, height

	var err error
	a.renderer, err = renderer.New(dev, rcfg, a.registry)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	a.panel = control.NewPanel(control.Defaults(a.renderer,
		a.config.Scene.Shininess, a.config.Scene.Camera.Distance)...)
	for _, c := range control.LightControls(a.renderer, a.renderer.LightPosition()) {
		a.panel.Add(c)
	}
	return nil
}

// start requests every configured load and arms the tuning watcher.
// Nothing here blocks on I/O.
func (a *App) start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	for _, m := range a.config.Models {
		if err := a.registry.RequestLoad(m.Path, m.Alias); err != nil {
			logger.Warn("load request rejected", zap.String("alias", m.Alias), zap.Error(err))
		}
	}

	if sky := a.renderer.Skybox(); sky != nil {
		sky.LoadFaces(ctx, a.manager, a.pool.Submit, a.config.Skybox.Faces)
	}

	if path := a.config.Tuning.File; path != "" {
		a.published = make(chan struct{}, 1)
		a.wg.Add(2)
		go func() {
			defer a.wg.Done()
			if err := a.panel.Watch(ctx, path, nil); err != nil {
				logger.Warn("tuning watcher stopped", zap.String("path", path), zap.Error(err))
			}
		}()
		go func() {
			defer a.wg.Done()
			a.reapply(ctx, path)
		}()
	}
}

// reapply re-reads the tuning file whenever new objects publish, so values
// that named an object before it existed reach it.
func (a *App) reapply(ctx context.Context, path string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.published:
			if err := a.panel.ApplyFile(path); err != nil {
				logger.Debug("tuning values still pending", zap.String("path", path), zap.Error(err))
			}
		}
	}
}

// notifyPublished signals reapply when the registry has grown since the
// last call. It never blocks the frame loop.
func (a *App) notifyPublished() {
	n := a.registry.Len()
	if n <= a.seen || a.published == nil {
		return
	}
	a.seen = n
	select {
	case a.published <- struct{}{}:
	default:
	}
}

// handle applies one frame of input. Returns true when the scene should quit.
func (a *App) handle(events []input.Event) bool {
	for _, e := range events {
		switch e.Type {
		case input.EventQuit:
			return true
		case input.EventResize:
			w, h := e.Width, e.Height
			if a.window != nil {
				w, h = a.window.DrawableSize()
			}
			a.renderer.Resize(w, h)
		case input.EventZoom:
			if err := a.panel.Nudge(control.Distance, e.Steps); err != nil {
				logger.Warn("zoom failed", zap.Error(err))
			}
		}
	}
	return false
}

// Run drives one frame per host tick until quit or ctx is done. Frame
// errors are logged by the renderer and do not stop the loop.
func (a *App) Run(ctx context.Context) error {
	a.start(ctx)

	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting frame loop")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		quit := a.input.Update()
		if a.handle(a.input.Events()) || quit {
			return nil
		}

		if err := a.renderer.Frame(a.window.Ticks()); errors.Is(err, renderer.ErrNotRunning) {
			return err
		}

		a.notifyPublished()
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			frames, dropped := a.renderer.Stats()
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.Uint64("frames", frames),
				zap.Uint64("dropped", dropped),
				zap.Int("objects", a.registry.Len()),
			)
			a.window.SetTitle(fmt.Sprintf("%s (%d fps)", a.config.Window.Title, frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
}

// Close stops the watcher and workers and releases every resource.
func (a *App) Close() {
	logger.Info("closing scene")

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.manager != nil {
		a.manager.Close()
	}
	if a.device != nil {
		a.device.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
