// Package devicetest provides an in-memory device.Device that records calls.
package devicetest

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/pkg/math"
)

// Call is one recorded device operation.
type Call struct {
	Op    string
	Loc   device.Location
	Mat   math.Mat4
	Vec4  math.Vec4
	Vec3  math.Vec3
	Float float32
	Count int
	Face  device.CubeFace
	Data  bool // UploadCubeFace carried pixel data
}

// Recorder implements device.Device without a GPU. Uniform and attribute
// names resolve to stable locations unless listed in Missing.
type Recorder struct {
	mu sync.Mutex

	Calls []Call

	// Failure injection.
	FailCompile map[device.Stage]string
	FailLink    string
	FailBuffers bool
	FailDraw    error
	PanicDraw   bool

	// Missing lists uniform/attribute names that resolve to device.Absent.
	Missing map[string]bool

	next      uint32
	locations map[string]device.Location
	buffers   map[device.Buffer]bool
	pending   error
}

var _ device.Device = (*Recorder)(nil)

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{
		locations: make(map[string]device.Location),
		buffers:   make(map[device.Buffer]bool),
		Missing:   make(map[string]bool),
	}
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	r.Calls = append(r.Calls, c)
	r.mu.Unlock()
}

func (r *Recorder) handle() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	return r.next
}

// Count returns how many calls with the given op were recorded.
func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Ops returns the recorded op names in order.
func (r *Recorder) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Reset clears recorded calls but keeps resources and locations.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.Calls = nil
	r.mu.Unlock()
}

// LiveBuffers returns the number of buffers created and not yet deleted.
func (r *Recorder) LiveBuffers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffers)
}

// Location returns the location a name resolves to.
func (r *Recorder) Location(name string) device.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Missing[name] {
		return device.Absent
	}
	loc, ok := r.locations[name]
	if !ok {
		loc = device.Location(len(r.locations))
		r.locations[name] = loc
	}
	return loc
}

func (r *Recorder) SetViewport(width, height int) {
	r.record(Call{Op: "SetViewport", Count: width * height})
}

func (r *Recorder) Clear(color math.Vec4) {
	r.record(Call{Op: "Clear", Vec4: color})
}

func (r *Recorder) SetDepthFunc(fn device.DepthFunc) {
	r.record(Call{Op: "SetDepthFunc", Count: int(fn)})
}

func (r *Recorder) CompileShader(stage device.Stage, source string) (device.Shader, string, bool) {
	r.record(Call{Op: "CompileShader", Count: int(stage)})
	if log, ok := r.FailCompile[stage]; ok {
		return 0, log, false
	}
	return device.Shader(r.handle()), "", true
}

func (r *Recorder) LinkProgram(vertex, fragment device.Shader) (device.Program, string, bool) {
	r.record(Call{Op: "LinkProgram"})
	if r.FailLink != "" {
		return 0, r.FailLink, false
	}
	return device.Program(r.handle()), "", true
}

func (r *Recorder) DeleteShader(id device.Shader)   { r.record(Call{Op: "DeleteShader"}) }
func (r *Recorder) DeleteProgram(id device.Program) { r.record(Call{Op: "DeleteProgram"}) }
func (r *Recorder) UseProgram(id device.Program)    { r.record(Call{Op: "UseProgram", Count: int(id)}) }

func (r *Recorder) UniformLocation(p device.Program, name string) device.Location {
	return r.Location(name)
}

func (r *Recorder) AttribLocation(p device.Program, name string) device.Location {
	return r.Location(name)
}

func (r *Recorder) newBuffer(op string) (device.Buffer, error) {
	if r.FailBuffers {
		return 0, errors.New("out of memory")
	}
	b := device.Buffer(r.handle())
	r.mu.Lock()
	r.buffers[b] = true
	r.mu.Unlock()
	r.record(Call{Op: op})
	return b, nil
}

func (r *Recorder) CreateArrayBuffer(data []float32) (device.Buffer, error) {
	return r.newBuffer("CreateArrayBuffer")
}

func (r *Recorder) CreateIndexBuffer(data []uint16) (device.Buffer, error) {
	return r.newBuffer("CreateIndexBuffer")
}

func (r *Recorder) DeleteBuffer(id device.Buffer) {
	r.mu.Lock()
	delete(r.buffers, id)
	r.mu.Unlock()
	r.record(Call{Op: "DeleteBuffer"})
}

func (r *Recorder) BindAttribute(buf device.Buffer, loc device.Location, components int) {
	r.record(Call{Op: "BindAttribute", Loc: loc, Count: components})
}

func (r *Recorder) DisableAttribute(loc device.Location) {
	r.record(Call{Op: "DisableAttribute", Loc: loc})
}

func (r *Recorder) BindIndices(buf device.Buffer) { r.record(Call{Op: "BindIndices"}) }

func (r *Recorder) UniformMatrix4(loc device.Location, m math.Mat4) {
	r.record(Call{Op: "UniformMatrix4", Loc: loc, Mat: m})
}

func (r *Recorder) Uniform4(loc device.Location, v math.Vec4) {
	r.record(Call{Op: "Uniform4", Loc: loc, Vec4: v})
}

func (r *Recorder) Uniform3(loc device.Location, v math.Vec3) {
	r.record(Call{Op: "Uniform3", Loc: loc, Vec3: v})
}

func (r *Recorder) Uniform1(loc device.Location, f float32) {
	r.record(Call{Op: "Uniform1", Loc: loc, Float: f})
}

func (r *Recorder) Uniform1i(loc device.Location, i int32) {
	r.record(Call{Op: "Uniform1i", Loc: loc, Count: int(i)})
}

func (r *Recorder) CreateCubeTexture() (device.Texture, error) {
	r.record(Call{Op: "CreateCubeTexture"})
	return device.Texture(r.handle()), nil
}

func (r *Recorder) UploadCubeFace(tex device.Texture, face device.CubeFace, width, height int, img *image.RGBA) {
	r.record(Call{Op: "UploadCubeFace", Face: face, Count: width * height, Data: img != nil})
}

func (r *Recorder) BindCubeTexture(unit int, tex device.Texture) {
	r.record(Call{Op: "BindCubeTexture", Count: unit})
}

func (r *Recorder) DeleteTexture(id device.Texture) { r.record(Call{Op: "DeleteTexture"}) }

func (r *Recorder) DrawIndexed(count int) {
	if r.PanicDraw {
		panic("draw with no program bound")
	}
	r.record(Call{Op: "DrawIndexed", Count: count})
	if r.FailDraw != nil {
		r.mu.Lock()
		r.pending = r.FailDraw
		r.mu.Unlock()
	}
}

func (r *Recorder) DrawArrays(first, count int) {
	r.record(Call{Op: "DrawArrays", Count: count})
}

func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.pending
	r.pending = nil
	return err
}

// UniformsAt returns every matrix uploaded to loc, in order.
func (r *Recorder) UniformsAt(loc device.Location) []math.Mat4 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []math.Mat4
	for _, c := range r.Calls {
		if c.Op == "UniformMatrix4" && c.Loc == loc {
			out = append(out, c.Mat)
		}
	}
	return out
}

func (c Call) String() string {
	return fmt.Sprintf("%s(loc=%d count=%d)", c.Op, c.Loc, c.Count)
}
