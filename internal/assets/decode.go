package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Format is a mesh file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatGLTF
	FormatGLB
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatGLTF:
		return "gltf"
	case FormatGLB:
		return "glb"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// FormatOf picks the decoder from the path extension. URLs are matched on
// their path, ignoring any query string.
func FormatOf(p string) (Format, error) {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return FormatJSON, nil
	case ".gltf":
		return FormatGLTF, nil
	case ".glb":
		return FormatGLB, nil
	default:
		return 0, fmt.Errorf("unsupported mesh extension %q", path.Ext(p))
	}
}

// jsonMesh is the flat model file layout: vertices as x,y,z triples and
// indices as triangle triples.
type jsonMesh struct {
	Vertices []float32 `json:"vertices"`
	Indices  []int     `json:"indices"`
}

// DecodeJSON decodes a flat JSON model.
func DecodeJSON(data []byte) (*Geometry, error) {
	var m jsonMesh
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding json mesh: %w", err)
	}
	if len(m.Vertices)%3 != 0 {
		return nil, fmt.Errorf("vertex array length %d is not a multiple of 3", len(m.Vertices))
	}
	if len(m.Indices)%3 != 0 {
		return nil, fmt.Errorf("index array length %d is not a multiple of 3", len(m.Indices))
	}

	g := &Geometry{
		Positions: make([][3]float32, len(m.Vertices)/3),
		Indices:   make([][3]uint16, len(m.Indices)/3),
	}
	for i := range g.Positions {
		copy(g.Positions[i][:], m.Vertices[i*3:i*3+3])
	}
	for i := range g.Indices {
		for j := 0; j < 3; j++ {
			idx := m.Indices[i*3+j]
			if idx < 0 || idx > math.MaxUint16 {
				return nil, fmt.Errorf("triangle %d: %w: %d", i, ErrIndexRange, idx)
			}
			g.Indices[i][j] = uint16(idx)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// DecodeGLB decodes a self-contained binary glTF.
func DecodeGLB(data []byte) (*Geometry, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding glb: %w", err)
	}
	return geometryFromDocument(doc)
}

// OpenGLTF reads a .gltf or .glb file from disk, resolving external buffers
// relative to it.
func OpenGLTF(name string) (*Geometry, error) {
	doc, err := gltf.Open(name)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", name, err)
	}
	return geometryFromDocument(doc)
}

// geometryFromDocument merges every triangle primitive of every mesh into a
// single geometry.
func geometryFromDocument(doc *gltf.Document) (*Geometry, error) {
	g := &Geometry{}
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			if err := appendPrimitive(g, doc, prim); err != nil {
				return nil, fmt.Errorf("mesh %d prim %d: %w", mi, pi, err)
			}
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func appendPrimitive(g *Geometry, doc *gltf.Document, prim *gltf.Primitive) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return errors.New("no POSITION attribute")
	}
	if posIdx < 0 || posIdx >= len(doc.Accessors) {
		return fmt.Errorf("POSITION accessor %d of %d: %w", posIdx, len(doc.Accessors), ErrAccessorRange)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}

	var indices []uint32
	if prim.Indices != nil {
		if *prim.Indices < 0 || *prim.Indices >= len(doc.Accessors) {
			return fmt.Errorf("index accessor %d of %d: %w", *prim.Indices, len(doc.Accessors), ErrAccessorRange)
		}
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}

	base := uint32(len(g.Positions))
	if int(base)+len(positions) > math.MaxUint16+1 {
		return ErrTooManyPoints
	}
	// Indices must stay inside this primitive's own vertices.
	for i, idx := range indices {
		if idx >= uint32(len(positions)) {
			return fmt.Errorf("triangle %d: %w: %d >= %d", i/3, ErrIndexRange, idx, len(positions))
		}
	}
	g.Positions = append(g.Positions, positions...)
	for i := 0; i < len(indices); i += 3 {
		g.Indices = append(g.Indices, [3]uint16{
			uint16(base + indices[i]),
			uint16(base + indices[i+1]),
			uint16(base + indices[i+2]),
		})
	}
	return nil
}
