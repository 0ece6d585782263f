package scene

import (
	"sync"

	"github.com/Faultbox/orbitscene/internal/assets"
	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/internal/engine/lighting"
	"github.com/Faultbox/orbitscene/pkg/math"
)

// Object is a renderable mesh published under a unique alias. Geometry and
// buffers are immutable once published; the material may be tuned live.
type Object struct {
	Alias string
	Path  string

	Positions [][3]float32
	Indices   [][3]uint16
	Normals   [][3]float32

	positions device.Buffer
	normals   device.Buffer
	indices   device.Buffer
	count     int

	mu       sync.RWMutex
	material lighting.Material
}

// Material returns a copy of the current material.
func (o *Object) Material() lighting.Material {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.material
}

// SetDiffuse replaces the diffuse color.
func (o *Object) SetDiffuse(c math.Vec4) {
	o.mu.Lock()
	o.material.Diffuse = c
	o.mu.Unlock()
}

// IndexCount is the number of indices drawn per frame.
func (o *Object) IndexCount() int { return o.count }

// Draw binds the object's buffers to the given attribute slots and issues
// one indexed triangle draw. Absent slots are skipped by the device.
func (o *Object) Draw(dev device.Device, position, normal device.Location) {
	dev.BindAttribute(o.positions, position, 3)
	dev.BindAttribute(o.normals, normal, 3)
	dev.BindIndices(o.indices)
	dev.DrawIndexed(o.count)
}

// upload creates the three GPU buffers. On failure every buffer created so
// far is released and the object stays unusable.
func (o *Object) upload(dev device.Device) error {
	g := assets.Geometry{Positions: o.Positions, Indices: o.Indices}

	var err error
	if o.positions, err = dev.CreateArrayBuffer(g.FlatPositions()); err != nil {
		return err
	}
	if o.normals, err = dev.CreateArrayBuffer(assets.Flatten(o.Normals)); err != nil {
		dev.DeleteBuffer(o.positions)
		return err
	}
	if o.indices, err = dev.CreateIndexBuffer(g.FlatIndices()); err != nil {
		dev.DeleteBuffer(o.positions)
		dev.DeleteBuffer(o.normals)
		return err
	}
	o.count = g.IndexCount()
	return nil
}

func (o *Object) release(dev device.Device) {
	dev.DeleteBuffer(o.positions)
	dev.DeleteBuffer(o.normals)
	dev.DeleteBuffer(o.indices)
}

// ComputeNormals derives smooth per-vertex normals: each vertex gets the
// normalized sum of the face normals of the triangles that use it. Triangles
// are counter-clockwise. Vertices used by no triangle, or only by degenerate
// ones, get a zero normal.
func ComputeNormals(positions [][3]float32, indices [][3]uint16) [][3]float32 {
	sums := make([]math.Vec3, len(positions))
	for _, t := range indices {
		p0 := math.V3(positions[t[0]])
		p1 := math.V3(positions[t[1]])
		p2 := math.V3(positions[t[2]])
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, i := range t {
			sums[i] = sums[i].Add(n)
		}
	}

	normals := make([][3]float32, len(positions))
	for i, s := range sums {
		normals[i] = s.Normalize().Array()
	}
	return normals
}
