package assets

import (
	"errors"
	"fmt"
	"math"
)

// Geometry is decoded mesh data: ordered vertex positions and triangle
// index triples. Normals are derived later by the scene.
type Geometry struct {
	Positions [][3]float32
	Indices   [][3]uint16
}

// LoadError reports a failed fetch or decode for one path.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var (
	ErrEmptyMesh     = errors.New("mesh has no triangles")
	ErrIndexRange    = errors.New("index out of range")
	ErrTooManyPoints = errors.New("mesh exceeds 16-bit index range")
	ErrAccessorRange = errors.New("accessor does not exist")
)

// Validate checks that the geometry can be drawn with 16-bit indices.
func (g *Geometry) Validate() error {
	if len(g.Positions) == 0 || len(g.Indices) == 0 {
		return ErrEmptyMesh
	}
	if len(g.Positions) > math.MaxUint16+1 {
		return ErrTooManyPoints
	}
	n := len(g.Positions)
	for i, tri := range g.Indices {
		for _, idx := range tri {
			if int(idx) >= n {
				return fmt.Errorf("triangle %d: %w: %d >= %d", i, ErrIndexRange, idx, n)
			}
		}
	}
	return nil
}

// FlatPositions returns positions as x,y,z,x,y,z,...
func (g *Geometry) FlatPositions() []float32 {
	return Flatten(g.Positions)
}

// Flatten lays out 3-component vectors as x,y,z,x,y,z,...
func Flatten(v [][3]float32) []float32 {
	out := make([]float32, 0, len(v)*3)
	for _, p := range v {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

// FlatIndices returns indices as a, b, c, a, b, c, ...
func (g *Geometry) FlatIndices() []uint16 {
	out := make([]uint16, 0, len(g.Indices)*3)
	for _, t := range g.Indices {
		out = append(out, t[0], t[1], t[2])
	}
	return out
}

// IndexCount is the number of indices a draw call covers.
func (g *Geometry) IndexCount() int {
	return len(g.Indices) * 3
}
