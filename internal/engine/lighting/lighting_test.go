package lighting

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/internal/engine/device/devicetest"
	"github.com/Faultbox/orbitscene/internal/engine/shader"
	"github.com/Faultbox/orbitscene/pkg/math"
)

func white() math.Vec4 { return math.Vec4{1, 1, 1, 1} }

func TestDefaultMaterial(t *testing.T) {
	m := DefaultMaterial()
	assert.Equal(t, math.Vec4{0.1, 0.1, 0.1, 1}, m.Ambient)
	assert.Equal(t, math.Vec4{0.5, 0.8, 0.1, 1}, m.Diffuse)
	assert.Equal(t, math.Vec4{0.6, 0.6, 0.6, 1}, m.Specular)
	assert.Equal(t, float32(200), m.Shininess)
}

func TestOrbitedPosition(t *testing.T) {
	base := math.Vec3{X: -50, Y: 50, Z: -14}

	assert.Equal(t, base, OrbitedPosition(base, 0, -1))

	// Quarter turn about Y: (x, z) -> (z, -x) for a positive rotation.
	p := OrbitedPosition(math.Vec3{X: 10, Y: 5}, 90, 1)
	assert.InDelta(t, 0, p.X, 1e-4)
	assert.InDelta(t, 5, p.Y, 1e-4)
	assert.InDelta(t, -10, p.Z, 1e-4)

	// The opposite sign revolves the other way.
	q := OrbitedPosition(math.Vec3{X: 10, Y: 5}, 90, -1)
	assert.InDelta(t, 10, q.Z, 1e-4)
}

func TestOrbitedPositionKeepsRadiusAndHeight(t *testing.T) {
	base := math.Vec3{X: -50, Y: 50, Z: -14}
	radius := math.Vec3{X: base.X, Z: base.Z}.Length()

	for _, angle := range []float32{13, 90, 271.5, 4000} {
		p := OrbitedPosition(base, angle, -1)
		assert.InDelta(t, base.Y, p.Y, 1e-4)
		assert.InDelta(t, radius, math.Vec3{X: p.X, Z: p.Z}.Length(), 1e-3)
	}
	assert.Equal(t, math.Vec3{X: -50, Y: 50, Z: -14}, base, "base is never mutated")
}

func TestNewModelDefaultsSign(t *testing.T) {
	m := NewModel(Light{Position: math.Vec3{X: 1}}, 200)
	assert.Equal(t, float32(-1), m.Snapshot().Light.OrbitSign)
}

func TestUpload(t *testing.T) {
	dev := devicetest.New()
	cache := shader.NewCache(dev)
	p, err := cache.Program("phong", "vs", "fs")
	require.NoError(t, err)
	locs := cache.ResolveLocations(p, UniformNames...)

	m := NewModel(Light{Position: math.Vec3{X: -50, Y: 50, Z: -14}, Ambient: white(), Diffuse: white(), Specular: white()}, 200)
	m.SetShininess(12.5)

	mat := DefaultMaterial()
	mat.Diffuse = math.Vec4{1, 0, 0, 1}

	dev.Reset()
	snap := m.Snapshot()
	snap.Upload(dev, locs, mat, snap.Position(0))

	assert.Equal(t, 1, dev.Count("Uniform3"))
	assert.Equal(t, 6, dev.Count("Uniform4"))
	assert.Equal(t, 1, dev.Count("Uniform1"))

	for _, c := range dev.Calls {
		switch c.Loc {
		case locs.Get(UniformMaterialDiffuse):
			assert.Equal(t, math.Vec4{1, 0, 0, 1}, c.Vec4)
		case locs.Get(UniformShininess):
			assert.Equal(t, float32(12.5), c.Float)
		case locs.Get(UniformLightPosition):
			assert.Equal(t, math.Vec3{X: -50, Y: 50, Z: -14}, c.Vec3)
		}
	}
}

func TestUploadSkipsNothingWhenSlotsAbsent(t *testing.T) {
	dev := devicetest.New()
	// Every slot missing: uploads still happen against Absent and are ignored by the device.
	locs := shader.Locations{}
	NewModel(Light{}, 1).Snapshot().Upload(dev, locs, DefaultMaterial(), math.Vec3{})

	for _, c := range dev.Calls {
		assert.Equal(t, device.Absent, c.Loc)
	}
}

func TestConcurrentTuning(t *testing.T) {
	m := NewModel(Light{}, 1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.SetShininess(float32(i))
			m.SetBasePosition(math.Vec3{X: float32(i)})
			_ = m.Snapshot()
		}(i)
	}
	wg.Wait()
	assert.GreaterOrEqual(t, m.Shininess(), float32(0))
}

func TestNormalizeColor(t *testing.T) {
	c := NormalizeColor([3]float32{235, 0, 210})
	assert.InDelta(t, 235.0/255, c[0], 1e-6)
	assert.Equal(t, float32(0), c[1])
	assert.Equal(t, float32(1), c[3])
}
