package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
)

// Mock implements MediaDevices for testing.
type Mock struct {
	// GetUserMediaFunc is called when GetUserMedia is invoked.
	GetUserMediaFunc func(ctx context.Context, c Constraints) (Stream, error)

	mu      sync.Mutex
	calls   int
	streams []*MockStream
}

// NewMock creates a mock that grants a 640x480 stream filled with a solid color.
func NewMock() *Mock {
	m := &Mock{}
	m.GetUserMediaFunc = func(ctx context.Context, c Constraints) (Stream, error) {
		return NewMockStream(640, 480, color.RGBA{R: 200, G: 40, B: 40, A: 255}), nil
	}
	return m
}

// GetUserMedia implements MediaDevices.
func (m *Mock) GetUserMedia(ctx context.Context, c Constraints) (Stream, error) {
	m.mu.Lock()
	m.calls++
	fn := m.GetUserMediaFunc
	m.mu.Unlock()

	stream, err := fn(ctx, c)
	if err != nil {
		return nil, err
	}
	if ms, ok := stream.(*MockStream); ok {
		m.mu.Lock()
		m.streams = append(m.streams, ms)
		m.mu.Unlock()
	}
	return stream, nil
}

// Calls returns how many times GetUserMedia was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Streams returns the mock streams handed out so far.
func (m *Mock) Streams() []*MockStream {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MockStream, len(m.streams))
	copy(out, m.streams)
	return out
}

// MockStream is an in-memory Stream producing a solid-color frame.
type MockStream struct {
	Width  int
	Height int
	Color  color.Color

	// ReadErr, when set, is returned by ReadFrame.
	ReadErr error
	// MetadataErr, when set, is returned by Metadata.
	MetadataErr error

	tracks []*MockTrack
}

// NewMockStream creates a stream with one video track.
func NewMockStream(width, height int, c color.Color) *MockStream {
	return &MockStream{
		Width:  width,
		Height: height,
		Color:  c,
		tracks: []*MockTrack{{id: "video-0"}},
	}
}

// Tracks implements Stream.
func (s *MockStream) Tracks() []Track {
	out := make([]Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

// Metadata implements Stream.
func (s *MockStream) Metadata(ctx context.Context) (int, int, error) {
	if s.MetadataErr != nil {
		return 0, 0, s.MetadataErr
	}
	return s.Width, s.Height, nil
}

// ReadFrame implements Stream.
func (s *MockStream) ReadFrame() (image.Image, error) {
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	if s.Released() {
		return nil, fmt.Errorf("mock stream released")
	}
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			img.Set(x, y, s.Color)
		}
	}
	return img, nil
}

// Released reports whether every track was stopped.
func (s *MockStream) Released() bool {
	for _, t := range s.tracks {
		if !t.Stopped() {
			return false
		}
	}
	return true
}

// MockTrack records Stop calls.
type MockTrack struct {
	id    string
	mu    sync.Mutex
	stops int
}

// ID implements Track.
func (t *MockTrack) ID() string { return t.id }

// Stop implements Track.
func (t *MockTrack) Stop() error {
	t.mu.Lock()
	t.stops++
	t.mu.Unlock()
	return nil
}

// Stopped reports whether Stop was called at least once.
func (t *MockTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops > 0
}
