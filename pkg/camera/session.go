package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// State is the lifecycle state of a Session.
type State int

// Session states.
const (
	Idle State = iota
	Acquiring
	Active
	Stopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Acquiring:
		return "acquiring"
	case Active:
		return "active"
	case Stopped:
		return "stopped"
	default:
		return "invalid"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	st, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseState returns the State named name.
func ParseState(name string) (State, error) {
	for _, st := range []State{Idle, Acquiring, Active, Stopped} {
		if st.String() == name {
			return st, nil
		}
	}
	return Idle, fmt.Errorf("camera: unknown state %q", name)
}

// Controls is the enablement of the camera UI controls.
type Controls struct {
	Start   bool `json:"start"`
	Capture bool `json:"capture"`
	Stop    bool `json:"stop"`
}

// ControlsFor derives control enablement from a session state.
func ControlsFor(s State) Controls {
	return Controls{
		Start:   s == Idle || s == Stopped,
		Capture: s == Active,
		Stop:    s == Active,
	}
}

// Transition describes a state change.
type Transition struct {
	From     State
	To       State
	Controls Controls
}

// Session owns one camera stream at a time.
//
// Start and Stop may be called from any goroutine. The mutex is released while
// the backend acquires the device, so a Stop issued during Acquiring wins and
// the late stream is released as soon as it arrives.
type Session struct {
	id          string
	devices     MediaDevices
	constraints Constraints
	logger      *slog.Logger

	mu        sync.Mutex
	state     State
	attempt   uint64
	stream    Stream
	width     int
	height    int
	buffer    *image.RGBA
	observers []func(Transition)
}

// Option configures a Session.
type Option func(*Session)

// WithConstraints overrides the default 640x480 front-facing request.
func WithConstraints(c Constraints) Option {
	return func(s *Session) { s.constraints = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates an Idle session backed by devices.
func NewSession(devices MediaDevices, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		devices:     devices,
		constraints: DefaultConstraints(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "camera.session", "session", s.id)
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Constraints returns the constraints requested on Start.
func (s *Session) Constraints() Constraints { return s.constraints }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Controls returns the control enablement for the current state.
func (s *Session) Controls() Controls {
	return ControlsFor(s.State())
}

// Size returns the negotiated frame dimensions, zero unless Active.
func (s *Session) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// OnTransition registers fn to be called after every state change.
// Callbacks run outside the session lock.
func (s *Session) OnTransition(fn func(Transition)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Start acquires the camera. It is a no-op while Acquiring or Active.
// On failure the session returns to Idle and the error is an *AcquisitionError.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Acquiring || s.state == Active {
		state := s.state
		s.mu.Unlock()
		s.logger.Debug("start ignored", "state", state)
		return nil
	}
	s.attempt++
	attempt := s.attempt
	t := s.transitionLocked(Acquiring)
	s.mu.Unlock()
	s.notify(t)

	s.logger.Info("acquiring camera",
		"width", s.constraints.Width,
		"height", s.constraints.Height,
		"facing", s.constraints.FacingMode)

	stream, err := s.devices.GetUserMedia(ctx, s.constraints)
	var width, height int
	if err == nil {
		width, height, err = stream.Metadata(ctx)
		if err != nil {
			s.release(stream)
		}
	}
	if err != nil {
		acqErr := Classify(err)
		s.mu.Lock()
		var ts []Transition
		if s.state == Acquiring && s.attempt == attempt {
			ts = append(ts, s.transitionLocked(Idle))
		}
		s.mu.Unlock()
		s.notify(ts...)
		s.logger.Warn("camera acquisition failed", "category", acqErr.Category, "error", acqErr.Message)
		return acqErr
	}

	s.mu.Lock()
	if s.state != Acquiring || s.attempt != attempt {
		s.mu.Unlock()
		s.logger.Info("camera stopped during acquisition, releasing stream")
		s.release(stream)
		return nil
	}
	s.stream = stream
	s.width, s.height = width, height
	t = s.transitionLocked(Active)
	s.mu.Unlock()
	s.notify(t)

	s.logger.Info("camera active", "width", width, "height", height)
	return nil
}

// Stop releases every track of the stream, clears the surface and the visual
// buffer and moves to Stopped. It is a no-op when Idle or Stopped.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == Idle || s.state == Stopped {
		s.mu.Unlock()
		return
	}
	stream := s.stream
	s.stream = nil
	s.width, s.height = 0, 0
	s.buffer = nil
	t := s.transitionLocked(Stopped)
	s.mu.Unlock()

	if stream != nil {
		s.release(stream)
	}
	s.notify(t)
	s.logger.Info("camera stopped")
}

// Snapshot draws the current frame into the visual buffer at the negotiated
// dimensions and returns a copy of it. The frame is read without holding the
// session lock; a Stop or restart during the read yields ErrNotActive.
func (s *Session) Snapshot() (image.Image, error) {
	s.mu.Lock()
	if s.state != Active || s.stream == nil {
		s.mu.Unlock()
		return nil, ErrNotActive
	}
	stream, attempt := s.stream, s.attempt
	s.mu.Unlock()

	frame, err := stream.ReadFrame()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active || s.attempt != attempt || s.stream != stream {
		return nil, ErrNotActive
	}
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, errors.New("camera: empty frame")
	}

	if s.buffer == nil {
		s.buffer = image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	}
	draw.ApproxBiLinear.Scale(s.buffer, s.buffer.Bounds(), frame, frame.Bounds(), draw.Src, nil)

	out := image.NewRGBA(s.buffer.Bounds())
	copy(out.Pix, s.buffer.Pix)
	return out, nil
}

func (s *Session) transitionLocked(to State) Transition {
	t := Transition{From: s.state, To: to, Controls: ControlsFor(to)}
	s.state = to
	return t
}

func (s *Session) notify(ts ...Transition) {
	if len(ts) == 0 {
		return
	}
	s.mu.Lock()
	observers := make([]func(Transition), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, t := range ts {
		s.logger.Debug("state transition", "from", t.From, "to", t.To)
		for _, fn := range observers {
			fn(t)
		}
	}
}

func (s *Session) release(stream Stream) {
	for _, track := range stream.Tracks() {
		if err := track.Stop(); err != nil {
			s.logger.Warn("failed to stop track", "track", track.ID(), "error", err)
		}
	}
}
