// Package transform places scene objects in view space. Each alias maps to a
// fixed list of primitive ops that is evaluated after the camera frame every
// frame.
package transform

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitscene/internal/engine/camera"
	"github.com/Faultbox/orbitscene/internal/logger"
	"github.com/Faultbox/orbitscene/pkg/math"
)

// Descriptor is the ordered op list for one alias.
type Descriptor []Op

// Table maps aliases to descriptors.
type Table map[string]Descriptor

// Matrices holds everything the shader needs to place one object.
type Matrices struct {
	ModelView  math.Mat4
	Projection math.Mat4
	Normal     math.Mat4
}

// Pipeline evaluates descriptors. Aliases without a descriptor are drawn
// with the camera frame alone.
type Pipeline struct {
	mu     sync.RWMutex
	table  Table
	warned map[string]bool
}

// NewPipeline creates a pipeline over a copy of table.
func NewPipeline(table Table) *Pipeline {
	p := &Pipeline{
		table:  make(Table, len(table)),
		warned: make(map[string]bool),
	}
	for alias, d := range table {
		p.table[alias] = append(Descriptor(nil), d...)
	}
	return p
}

// Set installs or replaces the descriptor for alias.
func (p *Pipeline) Set(alias string, d Descriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table[alias] = append(Descriptor(nil), d...)
	delete(p.warned, alias)
}

// Descriptor returns the ops registered for alias.
func (p *Pipeline) Descriptor(alias string) (Descriptor, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.table[alias]
	return d, ok
}

// ModelView composes the camera frame for angle (degrees) with the alias's
// ops, each right-multiplied in declared order.
func (p *Pipeline) ModelView(alias string, frame *camera.Frame, angle float32) math.Mat4 {
	mv := frame.View(angle)

	p.mu.RLock()
	ops := p.table[alias]
	p.mu.RUnlock()

	for _, op := range ops {
		mv = op.Apply(mv, angle)
	}
	return mv
}

// Compute returns the model-view, projection and normal matrices for alias.
func (p *Pipeline) Compute(alias string, frame *camera.Frame, angle float32, width, height int) Matrices {
	mv := p.ModelView(alias, frame, angle)

	normal, ok := NormalMatrix(mv)
	if !ok {
		p.warnSingular(alias)
	}

	return Matrices{
		ModelView:  mv,
		Projection: frame.Projection(width, height),
		Normal:     normal,
	}
}

func (p *Pipeline) warnSingular(alias string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warned[alias] {
		return
	}
	p.warned[alias] = true
	logger.Warn("model-view is singular, using identity normal matrix", zap.String("alias", alias))
}

// NormalMatrix returns transpose(inverse(linear part of mv)). When the
// linear part is singular it returns identity and false.
func NormalMatrix(mv math.Mat4) (math.Mat4, bool) {
	inv, ok := mv.Linear().Invert()
	if !ok {
		return math.Identity(), false
	}
	return inv.Transpose(), true
}
