// Package input turns SDL2 events into scene actions.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// ZoomSteps is how many Distance steps one PageUp/PageDown press moves.
const ZoomSteps = 10

// EventType is the kind of scene action.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventResize
	EventZoom
)

// Event is a processed input event.
type Event struct {
	Type EventType

	// Resize
	Width  int
	Height int

	// Zoom, in control steps; positive moves the camera closer.
	Steps float32
}

// Translate maps one SDL event to a scene action. ok is false for events
// the scene ignores.
func Translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			return Event{Type: EventResize, Width: int(e.Data1), Height: int(e.Data2)}, true
		}

	case *sdl.KeyboardEvent:
		if e.Type != sdl.KEYDOWN {
			break
		}
		switch e.Keysym.Sym {
		case sdl.K_ESCAPE:
			return Event{Type: EventQuit}, true
		case sdl.K_PAGEUP:
			return Event{Type: EventZoom, Steps: ZoomSteps}, true
		case sdl.K_PAGEDOWN:
			return Event{Type: EventZoom, Steps: -ZoomSteps}, true
		}

	case *sdl.MouseWheelEvent:
		if e.Y != 0 {
			return Event{Type: EventZoom, Steps: float32(e.Y)}, true
		}
	}
	return Event{}, false
}

// Input collects the scene actions of one frame.
type Input struct {
	events []Event
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update drains the SDL event queue. Returns true if the scene should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.Push(event) {
			quit = true
		}
	}
	return quit
}

// Push translates and records one SDL event. Returns true for quit.
func (i *Input) Push(event sdl.Event) bool {
	e, ok := Translate(event)
	if !ok {
		return false
	}
	i.events = append(i.events, e)
	return e.Type == EventQuit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}
