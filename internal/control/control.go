// Package control exposes named live-tuning controls and applies changes
// from a watched YAML file or the keyboard.
package control

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitscene/internal/engine/lighting"
	"github.com/Faultbox/orbitscene/internal/logger"
	"github.com/Faultbox/orbitscene/pkg/math"
)

// ErrUnknownControl is returned for names the panel does not hold.
var ErrUnknownControl = errors.New("unknown control")

// Control is one named tunable. Scalar controls use Value[0] and are
// clamped to [Min, Max] and snapped to Step when Step > 0. Color controls
// hold an RGB triple in 0..255.
type Control struct {
	Name     string
	Color    bool
	Value    [3]float32
	Min      float32
	Max      float32
	Step     float32
	OnChange func(Control) error
}

// Scalar returns the value of a scalar control.
func (c Control) Scalar() float32 { return c.Value[0] }

// RGBA returns a color control as a normalized opaque color.
func (c Control) RGBA() math.Vec4 { return lighting.NormalizeColor(c.Value) }

func (c Control) clampScalar(v float32) float32 {
	if c.Min < c.Max {
		if c.Step > 0 {
			// Values already on the grid are kept bit-exact.
			snapped := c.Min + math32.Round((v-c.Min)/c.Step)*c.Step
			if math32.Abs(snapped-v) > c.Step*1e-3 {
				v = snapped
			}
		}
		v = math32.Max(c.Min, math32.Min(c.Max, v))
	}
	return v
}

// Panel is a set of controls. Setters are safe for concurrent use; OnChange
// runs on the caller's goroutine outside the panel lock.
type Panel struct {
	mu       sync.Mutex
	controls map[string]*Control
	order    []string

	// applyMu serializes whole tuning documents.
	applyMu sync.Mutex
}

// NewPanel creates a panel with the given controls.
func NewPanel(controls ...Control) *Panel {
	p := &Panel{controls: make(map[string]*Control)}
	for _, c := range controls {
		p.Add(c)
	}
	return p
}

// Add registers or replaces a control.
func (p *Panel) Add(c Control) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.controls[c.Name]; !ok {
		p.order = append(p.order, c.Name)
	}
	p.controls[c.Name] = &c
}

// Names returns control names in registration order.
func (p *Panel) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.order)
}

// Get returns a copy of the named control.
func (p *Panel) Get(name string) (Control, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.controls[name]
	if !ok {
		return Control{}, false
	}
	return *c, true
}

// SetScalar sets a scalar control and fires OnChange with the clamped value.
func (p *Panel) SetScalar(name string, v float32) error {
	return p.update(name, false, func(c *Control) {
		c.Value[0] = c.clampScalar(v)
	})
}

// SetColor sets a color control; channels are clamped to 0..255.
func (p *Panel) SetColor(name string, rgb [3]float32) error {
	return p.update(name, true, func(c *Control) {
		for i, ch := range rgb {
			c.Value[i] = math32.Max(0, math32.Min(255, ch))
		}
	})
}

// Nudge moves a scalar control by steps increments of its Step.
func (p *Panel) Nudge(name string, steps float32) error {
	return p.update(name, false, func(c *Control) {
		c.Value[0] = c.clampScalar(c.Value[0] + steps*c.Step)
	})
}

func (p *Panel) update(name string, color bool, set func(*Control)) error {
	p.mu.Lock()
	c, ok := p.controls[name]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownControl, name)
	}
	if c.Color != color {
		p.mu.Unlock()
		return fmt.Errorf("control %q: wrong value kind", name)
	}
	prev := c.Value
	set(c)
	snapshot := *c
	p.mu.Unlock()

	if snapshot.OnChange == nil {
		return nil
	}
	if err := snapshot.OnChange(snapshot); err != nil {
		// The scene did not take the value, so the panel must not show it.
		p.mu.Lock()
		if c.Value == snapshot.Value {
			c.Value = prev
		}
		p.mu.Unlock()
		return fmt.Errorf("control %q: %w", name, err)
	}
	logger.Debug("control changed", zap.String("name", name), zap.Float32s("value", snapshot.Value[:]))
	return nil
}

// Target is what the default controls drive.
type Target interface {
	SetDiffuse(alias string, c math.Vec4) error
	SetShininess(v float32)
	SetDistance(d float32)
}

// Default control names.
const (
	TopColor   = "Top Color"
	PlaneColor = "Plane Color"
	Shininess  = "Shininess"
	Distance   = "Distance"
)

// Defaults returns the standard scene controls wired to t.
func Defaults(t Target, shininess, distance float32) []Control {
	return []Control{
		{
			Name:  TopColor,
			Color: true,
			Value: [3]float32{235, 0, 210},
			OnChange: func(c Control) error {
				return t.SetDiffuse("cone", c.RGBA())
			},
		},
		{
			Name:  PlaneColor,
			Color: true,
			Value: [3]float32{145, 145, 189},
			OnChange: func(c Control) error {
				return t.SetDiffuse("cylinder6", c.RGBA())
			},
		},
		{
			Name:  Shininess,
			Value: [3]float32{shininess},
			Min:   1, Max: 50, Step: 0.1,
			OnChange: func(c Control) error {
				t.SetShininess(c.Scalar())
				return nil
			},
		},
		{
			Name:  Distance,
			Value: [3]float32{distance},
			Min:   -200, Max: -50, Step: 0.1,
			OnChange: func(c Control) error {
				t.SetDistance(c.Scalar())
				return nil
			},
		},
	}
}

// LightTarget is what the light controls drive.
type LightTarget interface {
	LightPosition() math.Vec3
	SetLightPosition(p math.Vec3)
}

// Light control names.
const (
	LightX = "Light X"
	LightY = "Light Y"
	LightZ = "Light Z"
)

// LightControls returns one scalar control per axis of the light's base
// position, starting at base.
func LightControls(t LightTarget, base math.Vec3) []Control {
	axis := func(name string, v float32, set func(p *math.Vec3, v float32)) Control {
		return Control{
			Name:  name,
			Value: [3]float32{v},
			Min:   -100, Max: 100, Step: 0.1,
			OnChange: func(c Control) error {
				p := t.LightPosition()
				set(&p, c.Scalar())
				t.SetLightPosition(p)
				return nil
			},
		}
	}
	return []Control{
		axis(LightX, base.X, func(p *math.Vec3, v float32) { p.X = v }),
		axis(LightY, base.Y, func(p *math.Vec3, v float32) { p.Y = v }),
		axis(LightZ, base.Z, func(p *math.Vec3, v float32) { p.Z = v }),
	}
}
