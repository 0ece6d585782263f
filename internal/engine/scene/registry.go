// Package scene owns the renderable objects of the scene, keyed by alias.
package scene

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/orbitscene/internal/assets"
	"github.com/Faultbox/orbitscene/internal/engine/device"
	"github.com/Faultbox/orbitscene/internal/engine/lighting"
	"github.com/Faultbox/orbitscene/internal/logger"
	"github.com/Faultbox/orbitscene/pkg/math"
)

// ErrNotFound is returned for aliases that are not (yet) published.
var ErrNotFound = errors.New("scene object not found")

// ErrDuplicateAlias is returned when an alias is requested twice.
var ErrDuplicateAlias = errors.New("alias already requested")

// Submitter runs a task off the render thread.
type Submitter func(task func())

// completion is a finished background load waiting for GPU upload.
type completion struct {
	alias   string
	path    string
	geom    *assets.Geometry
	normals [][3]float32
	err     error
}

// Registry tracks scene objects from load request to publication.
//
// Fetching, decoding and normal generation run on background workers. GPU
// upload and publication happen in Drain, which must be called on the
// render thread. An object is visible to Lookup and All only after all of
// its buffers exist.
type Registry struct {
	loader assets.Loader
	submit Submitter
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	requested map[string]bool
	objects   map[string]*Object
	order     []*Object
	pending   []completion
	failed    map[string]error
}

// NewRegistry creates a registry that loads through loader and runs load
// tasks with submit.
func NewRegistry(loader assets.Loader, submit Submitter) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		loader:    loader,
		submit:    submit,
		ctx:       ctx,
		cancel:    cancel,
		requested: make(map[string]bool),
		objects:   make(map[string]*Object),
		failed:    make(map[string]error),
	}
}

// RequestLoad starts an asynchronous load of path published as alias.
// It returns immediately.
func (r *Registry) RequestLoad(path, alias string) error {
	r.mu.Lock()
	if r.requested[alias] {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateAlias, alias)
	}
	r.requested[alias] = true
	r.mu.Unlock()

	logger.Debug("load requested", zap.String("alias", alias), zap.String("path", path))

	r.submit(func() {
		c := r.load(path, alias)
		r.mu.Lock()
		r.pending = append(r.pending, c)
		r.mu.Unlock()
	})
	return nil
}

// load runs on a worker. A panic in the loader becomes the alias's load
// error; the worker goroutine has no recover of its own.
func (r *Registry) load(path, alias string) (c completion) {
	c = completion{alias: alias, path: path}
	defer func() {
		if p := recover(); p != nil {
			c.geom, c.normals = nil, nil
			c.err = &assets.LoadError{Path: path, Err: fmt.Errorf("loader panic: %v", p)}
		}
	}()

	c.geom, c.err = r.loader.Load(r.ctx, path)
	if c.err == nil {
		c.normals = ComputeNormals(c.geom.Positions, c.geom.Indices)
	}
	return c
}

// Drain uploads every completed load and publishes it. Failed loads are
// logged and their alias never publishes. It returns the number of objects
// published by this call.
func (r *Registry) Drain(dev device.Device) int {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	published := 0
	for _, c := range batch {
		if c.err != nil {
			r.fail(c.alias, c.err)
			continue
		}

		obj := &Object{
			Alias:     c.alias,
			Path:      c.path,
			Positions: c.geom.Positions,
			Indices:   c.geom.Indices,
			Normals:   c.normals,
			material:  lighting.DefaultMaterial(),
		}
		if err := obj.upload(dev); err != nil {
			r.fail(c.alias, fmt.Errorf("uploading buffers: %w", err))
			continue
		}

		r.mu.Lock()
		r.objects[c.alias] = obj
		r.order = append(r.order, obj)
		r.mu.Unlock()
		published++

		logger.Info("object published",
			zap.String("alias", c.alias),
			zap.Int("vertices", len(obj.Positions)),
			zap.Int("indices", obj.IndexCount()))
	}
	return published
}

func (r *Registry) fail(alias string, err error) {
	r.mu.Lock()
	r.failed[alias] = err
	r.mu.Unlock()
	logger.Error("load failed", zap.String("alias", alias), zap.Error(err))
}

// Lookup returns the published object for alias.
func (r *Registry) Lookup(alias string) (*Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, alias)
	}
	return obj, nil
}

// All iterates the objects published at the moment iteration starts, in
// publication order.
func (r *Registry) All() iter.Seq[*Object] {
	return func(yield func(*Object) bool) {
		r.mu.Lock()
		snapshot := make([]*Object, len(r.order))
		copy(snapshot, r.order)
		r.mu.Unlock()

		for _, obj := range snapshot {
			if !yield(obj) {
				return
			}
		}
	}
}

// Len returns the number of published objects.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Failed returns the load error for alias, if its load failed.
func (r *Registry) Failed(alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed[alias]
}

// SetDiffuse replaces the diffuse color of a published object.
func (r *Registry) SetDiffuse(alias string, c math.Vec4) error {
	obj, err := r.Lookup(alias)
	if err != nil {
		return err
	}
	obj.SetDiffuse(c)
	return nil
}

// Close cancels outstanding loads and releases every object's buffers.
func (r *Registry) Close(dev device.Device) {
	r.cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, obj := range r.order {
		obj.release(dev)
	}
	r.order = nil
	r.objects = make(map[string]*Object)
	r.pending = nil
}
