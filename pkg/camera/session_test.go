package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"
)

func TestSessionStartStop(t *testing.T) {
	m := NewMock()
	s := NewSession(m)

	if s.State() != Idle {
		t.Fatalf("initial state: got %v, want idle", s.State())
	}
	if c := s.Controls(); !c.Start || c.Capture || c.Stop {
		t.Errorf("idle controls: got %+v", c)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s.State() != Active {
		t.Fatalf("state: got %v, want active", s.State())
	}
	if w, h := s.Size(); w != 640 || h != 480 {
		t.Errorf("Size: got %dx%d, want 640x480", w, h)
	}
	if c := s.Controls(); c.Start || !c.Capture || !c.Stop {
		t.Errorf("active controls: got %+v", c)
	}

	s.Stop()
	if s.State() != Stopped {
		t.Fatalf("state: got %v, want stopped", s.State())
	}
	if !m.Streams()[0].Released() {
		t.Error("stream tracks should be released on stop")
	}
	if w, h := s.Size(); w != 0 || h != 0 {
		t.Errorf("Size after stop: got %dx%d", w, h)
	}
	if c := s.Controls(); !c.Start || c.Capture || c.Stop {
		t.Errorf("stopped controls: got %+v", c)
	}
}

func TestSessionStartIsGuarded(t *testing.T) {
	m := NewMock()
	s := NewSession(m)

	for i := 0; i < 5; i++ {
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("Start %d failed: %v", i, err)
		}
	}
	if s.State() != Active {
		t.Errorf("state: got %v, want active", s.State())
	}
	if m.Calls() != 1 {
		t.Errorf("GetUserMedia calls: got %d, want 1", m.Calls())
	}
}

func TestSessionStartWhileAcquiring(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	m := NewMock()
	m.GetUserMediaFunc = func(ctx context.Context, c Constraints) (Stream, error) {
		close(entered)
		<-release
		return NewMockStream(320, 240, color.Black), nil
	}
	s := NewSession(m)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.Start(context.Background()); err != nil {
			t.Errorf("Start failed: %v", err)
		}
	}()

	<-entered
	if s.State() != Acquiring {
		t.Fatalf("state: got %v, want acquiring", s.State())
	}
	if c := s.Controls(); c.Start || c.Capture || c.Stop {
		t.Errorf("acquiring controls: got %+v", c)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Errorf("second Start should be a no-op, got %v", err)
	}

	close(release)
	wg.Wait()

	if m.Calls() != 1 {
		t.Errorf("GetUserMedia calls: got %d, want 1", m.Calls())
	}
	if w, h := s.Size(); w != 320 || h != 240 {
		t.Errorf("Size: got %dx%d, want 320x240", w, h)
	}
}

func TestSessionStopDuringAcquisition(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	m := NewMock()
	stream := NewMockStream(640, 480, color.White)
	m.GetUserMediaFunc = func(ctx context.Context, c Constraints) (Stream, error) {
		close(entered)
		<-release
		return stream, nil
	}
	s := NewSession(m)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	<-entered
	s.Stop()
	if s.State() != Stopped {
		t.Fatalf("state: got %v, want stopped", s.State())
	}
	close(release)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start: got %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return")
	}

	if s.State() != Stopped {
		t.Errorf("state: got %v, want stopped", s.State())
	}
	if !stream.Released() {
		t.Error("late stream should be released")
	}
}

func TestSessionStartFailure(t *testing.T) {
	m := NewMock()
	m.GetUserMediaFunc = func(ctx context.Context, c Constraints) (Stream, error) {
		return nil, &MediaError{Name: NameNotAllowed, Message: "Permission denied"}
	}
	s := NewSession(m)

	var transitions []Transition
	s.OnTransition(func(tr Transition) { transitions = append(transitions, tr) })

	err := s.Start(context.Background())
	var acq *AcquisitionError
	if !errors.As(err, &acq) {
		t.Fatalf("expected AcquisitionError, got %v", err)
	}
	if acq.Category != PermissionDenied {
		t.Errorf("Category: got %v, want permission_denied", acq.Category)
	}
	if s.State() != Idle {
		t.Errorf("state: got %v, want idle", s.State())
	}
	if c := s.Controls(); c.Capture {
		t.Error("capture should stay disabled after a failed start")
	}

	want := []State{Acquiring, Idle}
	if len(transitions) != len(want) {
		t.Fatalf("transitions: got %+v", transitions)
	}
	for i, st := range want {
		if transitions[i].To != st {
			t.Errorf("transition %d: got %v, want %v", i, transitions[i].To, st)
		}
	}
}

func TestSessionMetadataFailureReleasesStream(t *testing.T) {
	stream := NewMockStream(640, 480, color.White)
	stream.MetadataErr = &MediaError{Name: NameNotReadable, Message: "no frames"}
	m := NewMock()
	m.GetUserMediaFunc = func(ctx context.Context, c Constraints) (Stream, error) { return stream, nil }
	s := NewSession(m)

	err := s.Start(context.Background())
	var acq *AcquisitionError
	if !errors.As(err, &acq) || acq.Category != DeviceBusy {
		t.Fatalf("expected device busy, got %v", err)
	}
	if !stream.Released() {
		t.Error("stream should be released when metadata fails")
	}
	if s.State() != Idle {
		t.Errorf("state: got %v, want idle", s.State())
	}
}

func TestSessionStopIsIdempotent(t *testing.T) {
	tests := []struct {
		name  string
		start bool
		want  State
	}{
		{"from idle", false, Idle},
		{"from active", true, Stopped},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession(NewMock())
			if tc.start {
				if err := s.Start(context.Background()); err != nil {
					t.Fatalf("Start failed: %v", err)
				}
			}

			var count int
			s.OnTransition(func(Transition) { count++ })

			s.Stop()
			once := s.State()
			s.Stop()
			if s.State() != once || once != tc.want {
				t.Errorf("state: got %v then %v, want %v", once, s.State(), tc.want)
			}
			if tc.start && count != 1 {
				t.Errorf("transitions: got %d, want 1", count)
			}
		})
	}
}

func TestSessionRestart(t *testing.T) {
	m := NewMock()
	s := NewSession(m)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	s.Stop()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if s.State() != Active {
		t.Errorf("state: got %v, want active", s.State())
	}
	if m.Calls() != 2 {
		t.Errorf("GetUserMedia calls: got %d, want 2", m.Calls())
	}
}

func TestSessionSnapshot(t *testing.T) {
	m := NewMock()
	m.GetUserMediaFunc = func(ctx context.Context, c Constraints) (Stream, error) {
		return NewMockStream(64, 48, color.RGBA{R: 10, G: 20, B: 30, A: 255}), nil
	}
	s := NewSession(m)

	if _, err := s.Snapshot(); !errors.Is(err, ErrNotActive) {
		t.Errorf("Snapshot before start: got %v, want ErrNotActive", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	img, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("bounds: got %v, want 64x48", b)
	}
	r, g, b, _ := img.At(10, 10).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Errorf("pixel: got %d,%d,%d", r>>8, g>>8, b>>8)
	}

	s.Stop()
	if _, err := s.Snapshot(); !errors.Is(err, ErrNotActive) {
		t.Errorf("Snapshot after stop: got %v, want ErrNotActive", err)
	}
}

type slowStream struct {
	*MockStream
	reading chan struct{}
	resume  chan struct{}
}

func (s *slowStream) ReadFrame() (image.Image, error) {
	close(s.reading)
	<-s.resume
	return s.MockStream.ReadFrame()
}

func TestSessionSnapshotDoesNotBlockStop(t *testing.T) {
	stream := &slowStream{
		MockStream: NewMockStream(32, 24, color.White),
		reading:    make(chan struct{}),
		resume:     make(chan struct{}),
	}
	m := NewMock()
	m.GetUserMediaFunc = func(ctx context.Context, c Constraints) (Stream, error) {
		return stream, nil
	}
	s := NewSession(m)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := s.Snapshot()
		errc <- err
	}()
	<-stream.reading

	stopped := make(chan struct{})
	go func() {
		if s.State() != Active {
			t.Errorf("state during read: got %v, want active", s.State())
		}
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked behind a frame read")
	}

	close(stream.resume)
	if err := <-errc; !errors.Is(err, ErrNotActive) {
		t.Errorf("Snapshot across Stop: got %v, want ErrNotActive", err)
	}
}

func TestControlsFor(t *testing.T) {
	tests := []struct {
		state State
		want  Controls
	}{
		{Idle, Controls{Start: true}},
		{Acquiring, Controls{}},
		{Active, Controls{Capture: true, Stop: true}},
		{Stopped, Controls{Start: true}},
	}

	for _, tc := range tests {
		t.Run(tc.state.String(), func(t *testing.T) {
			if got := ControlsFor(tc.state); got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestConstraints(t *testing.T) {
	c := DefaultConstraints()
	if c.Width != 640 || c.Height != 480 || c.FacingMode != FacingUser || c.Audio {
		t.Errorf("DefaultConstraints: got %+v", c)
	}
	if errs := c.Validate(); len(errs) != 0 {
		t.Errorf("default should validate: %v", errs)
	}

	bad := Constraints{Width: 10, Height: 10, FacingMode: "side", Audio: true}
	if errs := bad.Validate(); len(errs) != 4 {
		t.Errorf("Validate: got %d errors (%v), want 4", len(errs), errs)
	}

	for _, name := range PresetNames() {
		p := GetPreset(name)
		if p == nil {
			t.Fatalf("preset %q missing", name)
		}
		if errs := p.Validate(); len(errs) != 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if GetPreset("8k") != nil {
		t.Error("unknown preset should be nil")
	}
}

func TestStateText(t *testing.T) {
	for _, want := range []State{Idle, Acquiring, Active, Stopped} {
		text, err := want.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", want, err)
		}
		var got State
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if got != want {
			t.Errorf("round trip %v -> %s -> %v", want, text, got)
		}
	}

	if _, err := ParseState("paused"); err == nil {
		t.Error("ParseState accepted an unknown name")
	}
}
