// Package renderer runs the per-frame scene loop.
package renderer

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitscene/internal/config"
	"github.com/Faultbox/orbitscene/internal/engine/animation"
	"github.com/Faultbox/orbitscene/internal/engine/camera"
	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/internal/engine/lighting"
	"github.com/Faultbox/orbitscene/internal/engine/scene"
	"github.com/Faultbox/orbitscene/internal/engine/shader"
	"github.com/Faultbox/orbitscene/internal/engine/shader/shaders"
	"github.com/Faultbox/orbitscene/internal/engine/skybox"
	"github.com/Faultbox/orbitscene/internal/engine/transform"
	"github.com/Faultbox/orbitscene/internal/logger"
	"github.com/Faultbox/orbitscene/pkg/math"
)

// Slot names of the Phong program besides the lighting uniforms.
const (
	UniformModelView  = "uModelViewMatrix"
	UniformProjection = "uProjectionMatrix"
	UniformNormal     = "uNormalMatrix"
	AttribPosition    = "aVertexPosition"
	AttribNormal      = "aVertexNormal"
)

// ErrNotRunning is returned by Frame outside the Running state.
var ErrNotRunning = errors.New("renderer is not running")

// State is the frame loop lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	ClearColor math.Vec4

	Camera     config.CameraConfig
	Light      lighting.Light
	Shininess  float32
	Transforms transform.Table

	Skybox         bool
	SkyboxFaceSize int
}

// NewConfig derives the renderer configuration from the application config.
func NewConfig(c *config.Config) Config {
	l := c.Scene.Light
	return Config{
		Width:      c.Window.Width,
		Height:     c.Window.Height,
		ClearColor: math.Vec4(c.Scene.ClearColor),
		Camera:     c.Scene.Camera,
		Light: lighting.Light{
			Position:  l.LightPosition(),
			OrbitSign: l.OrbitSign,
			Ambient:   math.Vec4(l.Ambient),
			Diffuse:   math.Vec4(l.Diffuse),
			Specular:  math.Vec4(l.Specular),
		},
		Shininess:      c.Scene.Shininess,
		Transforms:     c.Transforms,
		Skybox:         c.Skybox.Enabled,
		SkyboxFaceSize: c.Skybox.FaceSize,
	}
}

// Renderer owns every piece of per-run scene state. Frame must be called
// from the thread that owns the device; the tuning setters may be called
// from any goroutine.
type Renderer struct {
	dev      device.Device
	config   Config
	state    State
	programs *shader.Cache
	phong    device.Program
	locs     shader.Locations

	registry *scene.Registry
	pipeline *transform.Pipeline
	lights   *lighting.Model
	skybox   *skybox.Skybox
	frame    *camera.Frame
	clock    animation.Clock
	angle    float64

	tuneMu   sync.RWMutex
	distance float32

	frames  uint64
	dropped uint64
}

// New builds the shader programs and scene state and enters Running.
// Shader compile or link failures are returned as is and are fatal.
func New(dev device.Device, cfg Config, registry *scene.Registry) (*Renderer, error) {
	r := &Renderer{
		dev:      dev,
		config:   cfg,
		programs: shader.NewCache(dev),
		registry: registry,
		pipeline: transform.NewPipeline(cfg.Transforms),
		lights:   lighting.NewModel(cfg.Light, cfg.Shininess),
		frame:    newFrame(cfg.Camera),
	}
	r.distance = r.frame.Distance

	var err error
	r.phong, err = r.programs.Program("phong", shaders.PhongVertexShader, shaders.PhongFragmentShader)
	if err != nil {
		logger.Error("phong program failed", zap.Error(err))
		return nil, err
	}
	names := append([]string{UniformModelView, UniformProjection, UniformNormal, AttribPosition, AttribNormal}, lighting.UniformNames...)
	r.locs = r.programs.ResolveLocations(r.phong, names...)

	if cfg.Skybox {
		r.skybox, err = skybox.New(dev, r.programs, cfg.SkyboxFaceSize)
		if err != nil {
			logger.Error("skybox program failed", zap.Error(err))
			r.programs.Close()
			return nil, err
		}
	}

	dev.SetDepthFunc(device.DepthLessEqual)
	r.Resize(cfg.Width, cfg.Height)
	r.state = StateRunning

	logger.Info("renderer ready",
		zap.Bool("skybox", r.skybox != nil),
		zap.Int("transforms", len(cfg.Transforms)))
	return r, nil
}

// newFrame copies the camera section as is; a zero pitch is a level camera.
// Projection bounds are checked by config.Validate.
func newFrame(c config.CameraConfig) *camera.Frame {
	f := camera.NewFrame(c.Distance)
	f.Pitch = c.Pitch
	f.FovY = c.FovY
	f.Near = c.Near
	f.Far = c.Far
	return f
}

// State returns the lifecycle state.
func (r *Renderer) State() State { return r.state }

// Angle returns the accumulated orbit angle in degrees.
func (r *Renderer) Angle() float64 { return r.angle }

// Registry returns the scene object registry.
func (r *Renderer) Registry() *scene.Registry { return r.registry }

// Lights returns the lighting model.
func (r *Renderer) Lights() *lighting.Model { return r.lights }

// Pipeline returns the transform pipeline.
func (r *Renderer) Pipeline() *transform.Pipeline { return r.pipeline }

// Skybox returns the skybox, or nil when disabled.
func (r *Renderer) Skybox() *skybox.Skybox { return r.skybox }

// Stats returns the number of completed and abandoned frames.
func (r *Renderer) Stats() (frames, dropped uint64) { return r.frames, r.dropped }

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	r.dev.SetViewport(width, height)
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// SetDistance moves the camera along the view axis, clamped to the zoom
// range. Takes effect on the next frame.
func (r *Renderer) SetDistance(d float32) {
	r.tuneMu.Lock()
	r.distance = d
	r.tuneMu.Unlock()
}

// Distance returns the requested camera distance.
func (r *Renderer) Distance() float32 {
	r.tuneMu.RLock()
	defer r.tuneMu.RUnlock()
	return r.distance
}

// SetShininess replaces the global specular exponent.
func (r *Renderer) SetShininess(v float32) { r.lights.SetShininess(v) }

// SetLightPosition moves the light's base position; the orbit continues
// from there.
func (r *Renderer) SetLightPosition(p math.Vec3) { r.lights.SetBasePosition(p) }

// LightPosition returns the light's base position.
func (r *Renderer) LightPosition() math.Vec3 { return r.lights.BasePosition() }

// SetDiffuse replaces the diffuse color of a published object.
func (r *Renderer) SetDiffuse(alias string, c math.Vec4) error {
	return r.registry.SetDiffuse(alias, c)
}

// Frame renders one frame at host time nowMs. Any error or panic abandons
// the frame and is returned; the loop stays Running. The clock is not
// ticked for an abandoned frame, so the next one catches up.
func (r *Renderer) Frame(nowMs float64) (err error) {
	if r.state != StateRunning {
		return ErrNotRunning
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("frame panic: %v", p)
		}
		if err != nil {
			r.dropped++
			logger.Error("frame abandoned", zap.Uint64("frame", r.frames), zap.Error(err))
		}
	}()

	r.registry.Drain(r.dev)
	if r.skybox != nil {
		r.skybox.Drain()
	}

	r.tuneMu.RLock()
	r.frame.SetDistance(r.distance)
	r.tuneMu.RUnlock()

	angle := float32(r.angle)
	w, h := r.config.Width, r.config.Height
	projection := r.frame.Projection(w, h)

	r.dev.Clear(r.config.ClearColor)
	r.dev.SetDepthFunc(device.DepthLessEqual)
	r.dev.UseProgram(r.phong)

	lights := r.lights.Snapshot()
	lightPos := lights.Position(angle)
	position, normal := r.locs.Get(AttribPosition), r.locs.Get(AttribNormal)

	for obj := range r.registry.All() {
		m := r.pipeline.Compute(obj.Alias, r.frame, angle, w, h)
		r.dev.UniformMatrix4(r.locs.Get(UniformModelView), m.ModelView)
		r.dev.UniformMatrix4(r.locs.Get(UniformProjection), m.Projection)
		r.dev.UniformMatrix4(r.locs.Get(UniformNormal), m.Normal)
		lights.Upload(r.dev, r.locs, obj.Material(), lightPos)
		obj.Draw(r.dev, position, normal)
	}
	r.dev.DisableAttribute(normal)

	if r.skybox != nil {
		r.skybox.Draw(projection, angle)
	}

	if err := r.dev.Err(); err != nil {
		return fmt.Errorf("device: %w", err)
	}

	r.angle += r.clock.Tick(nowMs)
	r.frames++
	return nil
}

// Stop leaves the Running state. Frame calls after Stop return
// ErrNotRunning.
func (r *Renderer) Stop() {
	if r.state == StateRunning {
		r.state = StateStopped
		logger.Info("renderer stopped", zap.Uint64("frames", r.frames), zap.Uint64("dropped", r.dropped))
	}
}

// Close stops the loop and releases every device resource.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	r.Stop()
	r.registry.Close(r.dev)
	if r.skybox != nil {
		r.skybox.Close()
	}
	r.programs.Close()
}
