// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package surface owns the drop region: an idle/active state machine driven
// by four drag signals, plus a manual picker as the alternate input path.
// Dropped or picked files go to the dispatcher unvalidated; the conversion
// service decides what it accepts.
package surface

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/pdiddy/convert-drop/pkg/types"
)

// State is the visual state of the drop region.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Kind identifies a drag signal.
type Kind int

const (
	DragEnter Kind = iota
	DragOver
	DragLeave
	Drop
)

func (k Kind) String() string {
	switch k {
	case DragEnter:
		return "dragenter"
	case DragOver:
		return "dragover"
	case DragLeave:
		return "dragleave"
	case Drop:
		return "drop"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one drag signal delivered to the region. Files is set on Drop.
type Event struct {
	Kind  Kind
	Files []types.FileHandle

	defaultPrevented bool
	propagationDone  bool
}

// PreventDefault suppresses the source's own handling of the event.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation keeps the event from reaching any enclosing region.
func (e *Event) StopPropagation() { e.propagationDone = true }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.propagationDone }

// Dispatcher receives every file selection, dropped or picked.
type Dispatcher interface {
	Dispatch(ctx context.Context, files []types.FileHandle)
}

// Picker is the manual file-selection affordance behind Click.
type Picker interface {
	Pick() ([]types.FileHandle, error)
}

// Surface is the drop region. Only its own handlers change its state.
type Surface struct {
	dispatch Dispatcher
	picker   Picker
	onChange func(State)

	mu    sync.Mutex
	state State
}

// Option configures a Surface.
type Option func(*Surface)

// WithPicker sets the picker opened by Click.
func WithPicker(p Picker) Option {
	return func(s *Surface) { s.picker = p }
}

// OnStateChange registers a callback run on every idle/active transition,
// the equivalent of toggling the region's highlight.
func OnStateChange(fn func(State)) Option {
	return func(s *Surface) { s.onChange = fn }
}

// New returns an idle Surface forwarding selections to d.
func New(d Dispatcher, opts ...Option) *Surface {
	s := &Surface{dispatch: d}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current region state.
func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Handle processes one drag signal. Every signal has its default handling
// suppressed. DragEnter and DragOver activate the region, DragLeave and
// Drop return it to idle, and Drop forwards its files to the dispatcher.
func (s *Surface) Handle(ctx context.Context, ev *Event) {
	ev.PreventDefault()
	ev.StopPropagation()

	switch ev.Kind {
	case DragEnter, DragOver:
		s.setState(Active)
	case DragLeave:
		s.setState(Idle)
	case Drop:
		s.setState(Idle)
		s.dispatch.Dispatch(ctx, slices.Clone(ev.Files))
	}
}

// Click opens the picker and forwards whatever was chosen through the same
// dispatcher entry point as a drop. The region state is not touched.
func (s *Surface) Click(ctx context.Context) error {
	if s.picker == nil {
		return fmt.Errorf("no file picker configured")
	}
	files, err := s.picker.Pick()
	if err != nil {
		return fmt.Errorf("picking files: %w", err)
	}
	s.dispatch.Dispatch(ctx, files)
	return nil
}

func (s *Surface) setState(next State) {
	s.mu.Lock()
	changed := s.state != next
	s.state = next
	s.mu.Unlock()

	if changed && s.onChange != nil {
		s.onChange(next)
	}
}
