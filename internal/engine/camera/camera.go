// Package camera provides the fixed-pitch orbit camera frame.
package camera

import (
	"github.com/Faultbox/orbitscene/pkg/math"
)

// Frame is a camera that sits Distance units along the view axis, pitched
// down by a constant angle, and yawed by the orbit angle every frame.
type Frame struct {
	// Distance along the view axis. Negative values move the scene away.
	Distance float32
	// Pitch in degrees.
	Pitch float32

	// Projection
	FovY float32 // degrees
	Near float32
	Far  float32

	// Zoom constraints
	MinDistance float32
	MaxDistance float32
}

// NewFrame creates a frame at the given distance with default settings.
func NewFrame(distance float32) *Frame {
	return &Frame{
		Distance:    distance,
		Pitch:       30,
		FovY:        45,
		Near:        0.1,
		Far:         1000,
		MinDistance: -200,
		MaxDistance: -50,
	}
}

// View returns the camera transform for the given orbit angle in degrees:
// Translate(0,0,Distance), then pitch about X, then yaw about Y. Yaw must
// follow pitch so the camera circles the scene instead of tilting with it.
func (f *Frame) View(angle float32) math.Mat4 {
	return math.Identity().
		Translated(math.Vec3{Z: f.Distance}).
		Rotated(math.Radians(f.Pitch), math.AxisX).
		Rotated(math.Radians(angle), math.AxisY)
}

// Projection returns the perspective matrix for the current viewport.
// A degenerate viewport falls back to a square aspect.
func (f *Frame) Projection(width, height int) math.Mat4 {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	return math.Perspective(math.Radians(f.FovY), aspect, f.Near, f.Far)
}

// SetDistance sets the distance, clamped to the zoom constraints.
func (f *Frame) SetDistance(d float32) {
	f.Distance = f.clamp(d)
}

func (f *Frame) clamp(d float32) float32 {
	if f.MinDistance == 0 && f.MaxDistance == 0 {
		return d
	}
	if d < f.MinDistance {
		return f.MinDistance
	}
	if d > f.MaxDistance {
		return f.MaxDistance
	}
	return d
}
