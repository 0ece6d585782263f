// Package gldevice implements device.Device on OpenGL 4.1 core.
package gldevice

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/internal/logger"
	"github.com/Faultbox/orbitscene/pkg/math"
)

// Device issues GL calls against the current context.
type Device struct {
	vao uint32
}

var _ device.Device = (*Device)(nil)

// New loads GL function pointers and sets up default state.
// IMPORTANT: Must be called AFTER the OpenGL context is created and current!
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	d := &Device{}

	// Core profile needs a bound VAO for any attribute setup; one is enough
	// because attributes are rebound for every draw.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.ClearDepth(1.0)

	return d, nil
}

// Close releases the shared vertex array.
func (d *Device) Close() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

func (d *Device) SetViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Device) Clear(color math.Vec4) {
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (d *Device) SetDepthFunc(fn device.DepthFunc) {
	switch fn {
	case device.DepthLessEqual:
		gl.DepthFunc(gl.LEQUAL)
	default:
		gl.DepthFunc(gl.LESS)
	}
}

func (d *Device) CompileShader(stage device.Stage, source string) (device.Shader, string, bool) {
	kind := uint32(gl.VERTEX_SHADER)
	if stage == device.StageFragment {
		kind = gl.FRAGMENT_SHADER
	}

	shader := gl.CreateShader(kind)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, strings.TrimRight(log, "\x00"), false
	}

	return device.Shader(shader), "", true
}

func (d *Device) LinkProgram(vertex, fragment device.Shader) (device.Program, string, bool) {
	program := gl.CreateProgram()
	gl.AttachShader(program, uint32(vertex))
	gl.AttachShader(program, uint32(fragment))
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, strings.TrimRight(log, "\x00"), false
	}

	return device.Program(program), "", true
}

func (d *Device) DeleteShader(id device.Shader) { gl.DeleteShader(uint32(id)) }

func (d *Device) DeleteProgram(id device.Program) { gl.DeleteProgram(uint32(id)) }

func (d *Device) UseProgram(id device.Program) { gl.UseProgram(uint32(id)) }

func (d *Device) UniformLocation(p device.Program, name string) device.Location {
	return device.Location(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

func (d *Device) AttribLocation(p device.Program, name string) device.Location {
	return device.Location(gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00")))
}

func (d *Device) CreateArrayBuffer(data []float32) (device.Buffer, error) {
	if len(data) == 0 {
		return 0, errors.New("empty array buffer")
	}
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return device.Buffer(buf), d.Err()
}

func (d *Device) CreateIndexBuffer(data []uint16) (device.Buffer, error) {
	if len(data) == 0 {
		return 0, errors.New("empty index buffer")
	}
	var buf uint32
	gl.GenBuffers(1, &buf)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data)*2, gl.Ptr(data), gl.STATIC_DRAW)
	return device.Buffer(buf), d.Err()
}

func (d *Device) DeleteBuffer(id device.Buffer) {
	buf := uint32(id)
	gl.DeleteBuffers(1, &buf)
}

func (d *Device) BindAttribute(buf device.Buffer, loc device.Location, components int) {
	if !loc.Valid() {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.EnableVertexAttribArray(uint32(loc))
	gl.VertexAttribPointer(uint32(loc), int32(components), gl.FLOAT, false, 0, gl.PtrOffset(0))
}

func (d *Device) DisableAttribute(loc device.Location) {
	if loc.Valid() {
		gl.DisableVertexAttribArray(uint32(loc))
	}
}

func (d *Device) BindIndices(buf device.Buffer) {
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(buf))
}

func (d *Device) UniformMatrix4(loc device.Location, m math.Mat4) {
	gl.UniformMatrix4fv(int32(loc), 1, false, m.Ptr())
}

func (d *Device) Uniform4(loc device.Location, v math.Vec4) {
	gl.Uniform4f(int32(loc), v[0], v[1], v[2], v[3])
}

func (d *Device) Uniform3(loc device.Location, v math.Vec3) {
	gl.Uniform3f(int32(loc), v.X, v.Y, v.Z)
}

func (d *Device) Uniform1(loc device.Location, f float32) {
	gl.Uniform1f(int32(loc), f)
}

func (d *Device) Uniform1i(loc device.Location, i int32) {
	gl.Uniform1i(int32(loc), i)
}

func (d *Device) CreateCubeTexture() (device.Texture, error) {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, tex)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	return device.Texture(tex), d.Err()
}

func (d *Device) UploadCubeFace(tex device.Texture, face device.CubeFace, width, height int, img *image.RGBA) {
	var pixels unsafe.Pointer
	if img != nil {
		width, height = img.Rect.Dx(), img.Rect.Dy()
		pixels = gl.Ptr(img.Pix)
	}

	gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(tex))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), 0, gl.RGBA,
		int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, pixels)
}

func (d *Device) BindCubeTexture(unit int, tex device.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(tex))
}

func (d *Device) DeleteTexture(id device.Texture) {
	tex := uint32(id)
	gl.DeleteTextures(1, &tex)
}

func (d *Device) DrawIndexed(count int) {
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_SHORT, gl.PtrOffset(0))
}

func (d *Device) DrawArrays(first, count int) {
	gl.DrawArrays(gl.TRIANGLES, int32(first), int32(count))
}

func (d *Device) Err() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%04x", code)
	}
	return nil
}
