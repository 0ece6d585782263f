package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/orbitscene/pkg/math"
)

func TestNewFrameDefaults(t *testing.T) {
	f := NewFrame(-70)

	assert.Equal(t, float32(-70), f.Distance)
	assert.Equal(t, float32(30), f.Pitch)
	assert.Equal(t, float32(45), f.FovY)
	assert.Equal(t, float32(0.1), f.Near)
	assert.Equal(t, float32(1000), f.Far)
}

func TestViewComposition(t *testing.T) {
	f := NewFrame(-70)

	got := f.View(25)
	want := math.Translate(0, 0, -70).
		Mul(math.RotateX(math.Radians(30))).
		Mul(math.RotateY(math.Radians(25)))

	assert.True(t, got.ApproxEqual(want, 1e-5), "got %v, want %v", got, want)
}

func TestViewOrderMatters(t *testing.T) {
	f := NewFrame(-70)

	yawThenPitch := math.Translate(0, 0, -70).
		Mul(math.RotateY(math.Radians(60))).
		Mul(math.RotateX(math.Radians(30)))

	assert.False(t, f.View(60).ApproxEqual(yawThenPitch, 1e-3))
}

func TestViewKeepsSceneOriginOnAxis(t *testing.T) {
	// The scene origin stays at the camera distance regardless of the orbit angle.
	f := NewFrame(-70)
	for _, angle := range []float32{0, 45, 180, 725} {
		p := f.View(angle).TransformPoint(math.Vec3{})
		assert.InDelta(t, 0, p.X, 1e-4)
		assert.InDelta(t, 0, p.Y, 1e-4)
		assert.InDelta(t, -70, p.Z, 1e-4)
	}
}

func TestProjectionAspect(t *testing.T) {
	f := NewFrame(-70)

	wide := f.Projection(1600, 800)
	square := f.Projection(800, 800)
	assert.InDelta(t, square[0]/2, wide[0], 1e-6)

	assert.Equal(t, square, f.Projection(0, 0), "degenerate viewport uses a square aspect")
}

func TestZoomClamps(t *testing.T) {
	f := NewFrame(-70)

	f.SetDistance(-500)
	assert.Equal(t, float32(-200), f.Distance)

	f.SetDistance(-10)
	assert.Equal(t, float32(-50), f.Distance)

	f.SetDistance(-100)
	assert.Equal(t, float32(-100), f.Distance)
}
