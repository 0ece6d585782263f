// Package device defines the GPU operations the renderer needs. The GL
// implementation lives in gldevice; devicetest provides a recording fake.
package device

import (
	"image"

	"github.com/Faultbox/orbitscene/pkg/math"
)

// Handles are opaque device resource names. Zero is never a valid handle.
type (
	Shader  uint32
	Program uint32
	Buffer  uint32
	Texture uint32
)

// Location is a resolved uniform or attribute slot.
type Location int32

// Absent marks a uniform or attribute the program does not expose.
const Absent Location = -1

// Valid reports whether the location names a real slot.
func (l Location) Valid() bool { return l >= 0 }

// Stage identifies a shader pipeline stage.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// DepthFunc selects the depth comparison.
type DepthFunc int

const (
	DepthLess DepthFunc = iota
	DepthLessEqual
)

// CubeFace indexes the six faces of a cube map in +X, -X, +Y, -Y, +Z, -Z order.
type CubeFace int

// CubeFaces is the number of faces in a cube map.
const CubeFaces = 6

// Device is the GPU contract consumed by the renderer. All calls must be made
// from the thread that owns the context.
type Device interface {
	SetViewport(width, height int)
	Clear(color math.Vec4)
	SetDepthFunc(fn DepthFunc)

	CompileShader(stage Stage, source string) (id Shader, infoLog string, ok bool)
	LinkProgram(vertex, fragment Shader) (id Program, infoLog string, ok bool)
	DeleteShader(id Shader)
	DeleteProgram(id Program)
	UseProgram(id Program)
	UniformLocation(p Program, name string) Location
	AttribLocation(p Program, name string) Location

	CreateArrayBuffer(data []float32) (Buffer, error)
	CreateIndexBuffer(data []uint16) (Buffer, error)
	DeleteBuffer(id Buffer)
	BindAttribute(buf Buffer, loc Location, components int)
	DisableAttribute(loc Location)
	BindIndices(buf Buffer)

	UniformMatrix4(loc Location, m math.Mat4)
	Uniform4(loc Location, v math.Vec4)
	Uniform3(loc Location, v math.Vec3)
	Uniform1(loc Location, f float32)
	Uniform1i(loc Location, i int32)

	CreateCubeTexture() (Texture, error)
	// UploadCubeFace replaces one face. A nil img allocates the face at the
	// given size without committing pixel data.
	UploadCubeFace(tex Texture, face CubeFace, width, height int, img *image.RGBA)
	BindCubeTexture(unit int, tex Texture)
	DeleteTexture(id Texture)

	DrawIndexed(count int)
	DrawArrays(first, count int)

	// Err returns and clears the first pending device error, if any.
	Err() error
}
