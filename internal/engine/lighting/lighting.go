// Package lighting provides the single orbiting Phong light and material
// uniforms.
package lighting

import (
	"sync"

	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/internal/engine/shader"
	"github.com/Faultbox/orbitscene/pkg/math"
)

// Uniform names of the Phong program.
const (
	UniformLightPosition    = "uLightPosition"
	UniformLightAmbient     = "uLightAmbient"
	UniformLightDiffuse     = "uLightDiffuse"
	UniformLightSpecular    = "uLightSpecular"
	UniformMaterialAmbient  = "uMaterialAmbient"
	UniformMaterialDiffuse  = "uMaterialDiffuse"
	UniformMaterialSpecular = "uMaterialSpecular"
	UniformShininess        = "uShininess"
)

// UniformNames lists every uniform Upload writes.
var UniformNames = []string{
	UniformLightPosition,
	UniformLightAmbient,
	UniformLightDiffuse,
	UniformLightSpecular,
	UniformMaterialAmbient,
	UniformMaterialDiffuse,
	UniformMaterialSpecular,
	UniformShininess,
}

// Material is the per-object surface response.
type Material struct {
	Ambient   math.Vec4
	Diffuse   math.Vec4
	Specular  math.Vec4
	Shininess float32
}

// DefaultMaterial is assigned to every freshly loaded object.
func DefaultMaterial() Material {
	return Material{
		Ambient:   math.Vec4{0.1, 0.1, 0.1, 1},
		Diffuse:   math.Vec4{0.5, 0.8, 0.1, 1},
		Specular:  math.Vec4{0.6, 0.6, 0.6, 1},
		Shininess: 200,
	}
}

// Light is the scene light configuration.
type Light struct {
	Position  math.Vec3 // base world position
	OrbitSign float32   // +1 or -1, direction of revolution relative to the camera
	Ambient   math.Vec4
	Diffuse   math.Vec4
	Specular  math.Vec4
}

// Model holds the scene-wide lighting state. Setters may be called from a
// control goroutine while the frame loop reads a Snapshot.
type Model struct {
	mu        sync.RWMutex
	light     Light
	shininess float32
}

// NewModel creates a lighting model.
func NewModel(light Light, shininess float32) *Model {
	if light.OrbitSign == 0 {
		light.OrbitSign = -1
	}
	return &Model{light: light, shininess: shininess}
}

// Snapshot is a consistent copy of the model for one frame.
type Snapshot struct {
	Light     Light
	Shininess float32
}

// Snapshot reads the whole state at once.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Light: m.light, Shininess: m.shininess}
}

// SetShininess replaces the global specular exponent.
func (m *Model) SetShininess(v float32) {
	m.mu.Lock()
	m.shininess = v
	m.mu.Unlock()
}

// Shininess returns the global specular exponent.
func (m *Model) Shininess() float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shininess
}

// SetBasePosition moves the light's base world position.
func (m *Model) SetBasePosition(p math.Vec3) {
	m.mu.Lock()
	m.light.Position = p
	m.mu.Unlock()
}

// BasePosition returns the light's base world position.
func (m *Model) BasePosition() math.Vec3 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.light.Position
}

// OrbitedPosition places the light at base and revolves it about the world
// Y axis by sign*angle degrees: the point is translated to base, then rotated.
// base itself is not modified.
func OrbitedPosition(base math.Vec3, angle, sign float32) math.Vec3 {
	m := math.RotateAxis(math.AxisY, math.Radians(sign*angle)).
		Mul(math.Translate(base.X, base.Y, base.Z))
	return m.Translation()
}

// Position returns the orbited light position for this snapshot.
func (s Snapshot) Position(angle float32) math.Vec3 {
	return OrbitedPosition(s.Light.Position, angle, s.Light.OrbitSign)
}

// Upload pushes one Phong uniform set: material terms from mat, light
// position and colors and shininess from the snapshot.
func (s Snapshot) Upload(dev device.Device, locs shader.Locations, mat Material, lightPosition math.Vec3) {
	dev.Uniform3(locs.Get(UniformLightPosition), lightPosition)
	dev.Uniform4(locs.Get(UniformLightAmbient), s.Light.Ambient)
	dev.Uniform4(locs.Get(UniformLightDiffuse), s.Light.Diffuse)
	dev.Uniform4(locs.Get(UniformLightSpecular), s.Light.Specular)
	dev.Uniform4(locs.Get(UniformMaterialAmbient), mat.Ambient)
	dev.Uniform4(locs.Get(UniformMaterialDiffuse), mat.Diffuse)
	dev.Uniform4(locs.Get(UniformMaterialSpecular), mat.Specular)
	dev.Uniform1(locs.Get(UniformShininess), s.Shininess)
}

// NormalizeColor converts a 0-255 RGB triple to an opaque RGBA color.
func NormalizeColor(rgb [3]float32) math.Vec4 {
	return math.Vec4{rgb[0] / 255, rgb[1] / 255, rgb[2] / 255, 1}
}
