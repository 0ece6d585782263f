// Package shader compiles and links device programs and resolves their
// uniform and attribute slots.
package shader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/internal/logger"
)

// CompileError reports a shader stage the device refused to compile.
type CompileError struct {
	Stage device.Stage
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s shader: %s", e.Stage, e.Log)
}

// LinkError reports a program the device refused to link.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link: %s", e.Log)
}

// Locations maps names to resolved slots.
type Locations map[string]device.Location

// Get returns the slot for name, or device.Absent if it was never resolved or
// the program does not use it.
func (l Locations) Get(name string) device.Location {
	loc, ok := l[name]
	if !ok {
		return device.Absent
	}
	return loc
}

// Cache builds programs once per name and owns them until Close.
type Cache struct {
	dev      device.Device
	programs map[string]device.Program
}

// NewCache creates an empty program cache on dev.
func NewCache(dev device.Device) *Cache {
	return &Cache{
		dev:      dev,
		programs: make(map[string]device.Program),
	}
}

// Compile compiles a single shader stage.
func (c *Cache) Compile(source string, stage device.Stage) (device.Shader, error) {
	id, log, ok := c.dev.CompileShader(stage, source)
	if !ok {
		return 0, &CompileError{Stage: stage, Log: log}
	}
	return id, nil
}

// Link links a vertex and fragment stage into a program.
func (c *Cache) Link(vertex, fragment device.Shader) (device.Program, error) {
	id, log, ok := c.dev.LinkProgram(vertex, fragment)
	if !ok {
		return 0, &LinkError{Log: log}
	}
	return id, nil
}

// Program returns the program registered under name, compiling and linking
// it from the given sources on first use. Errors are *CompileError or
// *LinkError and are fatal to initialization.
func (c *Cache) Program(name, vertexSrc, fragmentSrc string) (device.Program, error) {
	if p, ok := c.programs[name]; ok {
		return p, nil
	}

	vs, err := c.Compile(vertexSrc, device.StageVertex)
	if err != nil {
		return 0, fmt.Errorf("program %s: %w", name, err)
	}
	defer c.dev.DeleteShader(vs)

	fs, err := c.Compile(fragmentSrc, device.StageFragment)
	if err != nil {
		return 0, fmt.Errorf("program %s: %w", name, err)
	}
	defer c.dev.DeleteShader(fs)

	p, err := c.Link(vs, fs)
	if err != nil {
		return 0, fmt.Errorf("program %s: %w", name, err)
	}

	c.programs[name] = p
	logger.Debug("shader program created", zap.String("name", name), zap.Uint32("program", uint32(p)))
	return p, nil
}

// ResolveLocations looks each name up as a uniform, then as an attribute.
// Names the program does not expose resolve to device.Absent.
func (c *Cache) ResolveLocations(p device.Program, names ...string) Locations {
	locs := make(Locations, len(names))
	for _, name := range names {
		loc := c.dev.UniformLocation(p, name)
		if !loc.Valid() {
			loc = c.dev.AttribLocation(p, name)
		}
		if !loc.Valid() {
			logger.Debug("shader slot not found", zap.String("name", name))
			loc = device.Absent
		}
		locs[name] = loc
	}
	return locs
}

// Close deletes every cached program.
func (c *Cache) Close() {
	for name, p := range c.programs {
		c.dev.DeleteProgram(p)
		delete(c.programs, name)
	}
}
