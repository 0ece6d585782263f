package control

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/orbitscene/internal/logger"
)

// Apply decodes a tuning document and sets every control it names:
//
//	Top Color: [235, 0, 210]
//	Shininess: 20
//	Distance: -90
//
// Unknown names and bad values are collected and returned together; the
// remaining controls are still applied.
func (p *Panel) Apply(data []byte) error {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding tuning file: %w", err)
	}

	var errs []error
	for _, name := range p.Names() {
		node, ok := doc[name]
		if !ok {
			continue
		}
		delete(doc, name)

		c, _ := p.Get(name)
		if c.Color {
			var rgb [3]float32
			if err := node.Decode(&rgb); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				continue
			}
			if c.Value == rgb {
				continue
			}
			errs = append(errs, p.SetColor(name, rgb))
			continue
		}

		var v float32
		if err := node.Decode(&v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if c.Scalar() == v {
			continue
		}
		errs = append(errs, p.SetScalar(name, v))
	}
	for name := range doc {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownControl, name))
	}
	return errors.Join(errs...)
}

// ApplyFile reads and applies a tuning file.
func (p *Panel) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return p.Apply(data)
}

// Watch applies the tuning file now and again whenever it is written or
// replaced, until ctx is done. The parent directory is watched so editors
// that save by rename are seen too. ready, if non-nil, is closed once the
// watch is armed.
func (p *Panel) Watch(ctx context.Context, path string, ready chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	if err := p.ApplyFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("tuning file rejected", zap.String("path", path), zap.Error(err))
	}
	logger.Info("watching tuning file", zap.String("path", path))
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := p.ApplyFile(path); err != nil {
				logger.Warn("tuning file rejected", zap.String("path", path), zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("tuning watcher error", zap.Error(err))
		}
	}
}
