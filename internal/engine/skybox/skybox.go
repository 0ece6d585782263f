// Package skybox draws a cube-mapped background behind the scene.
package skybox

import (
	"context"
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitscene/internal/assets"
	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/internal/engine/shader"
	"github.com/Faultbox/orbitscene/internal/engine/shader/shaders"
	"github.com/Faultbox/orbitscene/internal/engine/texture"
	"github.com/Faultbox/orbitscene/internal/logger"
	"github.com/Faultbox/orbitscene/pkg/math"
)

// Slot names of the skybox program.
const (
	AttribPosition  = "aPosition"
	UniformSampler  = "uSkybox"
	UniformInverse  = "uViewDirectionProjectionInverse"
	DefaultFaceSize = 512
)

// quad covers clip space with two triangles.
var quad = []float32{
	-1, -1,
	1, -1,
	-1, 1,
	-1, 1,
	1, -1,
	1, 1,
}

type decodedFace struct {
	face device.CubeFace
	img  *image.RGBA
}

// Skybox owns the cube texture, the fullscreen quad and the skybox program.
// The texture is sampleable from construction on: every face starts as an
// empty placeholder and is replaced once its image has decoded.
type Skybox struct {
	dev     device.Device
	program device.Program
	locs    shader.Locations
	quad    device.Buffer
	tex     device.Texture
	size    int

	mu     sync.Mutex
	ready  []decodedFace
	loaded [device.CubeFaces]bool

	warnedSingular bool
}

// New builds the skybox program and uploads placeholder faces of size x size.
func New(dev device.Device, programs *shader.Cache, size int) (*Skybox, error) {
	if size <= 0 {
		size = DefaultFaceSize
	}

	program, err := programs.Program("skybox", shaders.SkyboxVertexShader, shaders.SkyboxFragmentShader)
	if err != nil {
		return nil, err
	}

	buf, err := dev.CreateArrayBuffer(quad)
	if err != nil {
		return nil, fmt.Errorf("skybox quad: %w", err)
	}
	tex, err := dev.CreateCubeTexture()
	if err != nil {
		dev.DeleteBuffer(buf)
		return nil, fmt.Errorf("skybox texture: %w", err)
	}
	for f := device.CubeFace(0); f < device.CubeFaces; f++ {
		dev.UploadCubeFace(tex, f, size, size, nil)
	}

	return &Skybox{
		dev:     dev,
		program: program,
		locs:    programs.ResolveLocations(program, AttribPosition, UniformSampler, UniformInverse),
		quad:    buf,
		tex:     tex,
		size:    size,
	}, nil
}

// LoadFaces fetches and decodes the six face images in +X, -X, +Y, -Y, +Z,
// -Z order on background workers. Faces that fail keep their placeholder.
func (s *Skybox) LoadFaces(ctx context.Context, fetcher assets.Fetcher, submit func(func()), paths [device.CubeFaces]string) {
	for i, path := range paths {
		face := device.CubeFace(i)
		submit(func() {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("skybox face load panicked", zap.Int("face", i), zap.String("path", path), zap.Any("panic", p))
				}
			}()
			data, err := fetcher.Fetch(ctx, path)
			if err != nil {
				logger.Warn("skybox face fetch failed", zap.Int("face", i), zap.String("path", path), zap.Error(err))
				return
			}
			img, err := texture.Decode(path, data)
			if err != nil {
				logger.Warn("skybox face decode failed", zap.Int("face", i), zap.Error(err))
				return
			}

			s.mu.Lock()
			s.ready = append(s.ready, decodedFace{face: face, img: texture.Fit(img, s.size)})
			s.mu.Unlock()
		})
	}
}

// Drain uploads faces decoded since the last call. Render thread only.
func (s *Skybox) Drain() int {
	s.mu.Lock()
	batch := s.ready
	s.ready = nil
	s.mu.Unlock()

	for _, f := range batch {
		s.dev.UploadCubeFace(s.tex, f.face, s.size, s.size, f.img)
		s.mu.Lock()
		s.loaded[f.face] = true
		s.mu.Unlock()
	}
	if len(batch) > 0 {
		logger.Debug("skybox faces uploaded", zap.Int("count", len(batch)), zap.Int("loaded", s.Loaded()))
	}
	return len(batch)
}

// Loaded returns how many faces hold decoded images.
func (s *Skybox) Loaded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ok := range s.loaded {
		if ok {
			n++
		}
	}
	return n
}

// ViewDirectionInverse returns invert(projection * RotateY(angle)). ok is
// false when that matrix is singular.
func ViewDirectionInverse(projection math.Mat4, angle float32) (math.Mat4, bool) {
	return projection.Rotated(math.Radians(angle), math.AxisY).Invert()
}

// Draw renders the background with one draw call. It must run after every
// scene object so the depth test keeps the background behind them.
func (s *Skybox) Draw(projection math.Mat4, angle float32) {
	inv, ok := ViewDirectionInverse(projection, angle)
	if !ok {
		inv = math.Identity()
		if !s.warnedSingular {
			s.warnedSingular = true
			logger.Warn("skybox view-direction matrix is singular, using identity")
		}
	}

	s.dev.UseProgram(s.program)
	s.dev.SetDepthFunc(device.DepthLessEqual)
	s.dev.BindAttribute(s.quad, s.locs.Get(AttribPosition), 2)
	s.dev.BindCubeTexture(0, s.tex)
	s.dev.Uniform1i(s.locs.Get(UniformSampler), 0)
	s.dev.UniformMatrix4(s.locs.Get(UniformInverse), inv)
	s.dev.DrawArrays(0, len(quad)/2)
}

// Close releases the quad and the cube texture. The program belongs to the
// shader cache.
func (s *Skybox) Close() {
	s.dev.DeleteBuffer(s.quad)
	s.dev.DeleteTexture(s.tex)
}
