package detect

import (
	"context"
	"sync"

	"github.com/teslashibe/go-posecam/pkg/pose"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	DetectFunc func(ctx context.Context, img pose.EncodedImage) (*pose.Result, error)

	mu     sync.Mutex
	images []pose.EncodedImage
}

// NewMock creates a mock that reports a standing pose with no landmarks.
func NewMock() *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, img pose.EncodedImage) (*pose.Result, error) {
			return &pose.Result{
				Type:        pose.Standing,
				Landmarks:   []pose.Landmark{},
				Connections: []pose.Connection{},
			}, nil
		},
	}
}

// Detect implements Detector.
func (m *Mock) Detect(ctx context.Context, img pose.EncodedImage) (*pose.Result, error) {
	m.mu.Lock()
	m.images = append(m.images, img)
	fn := m.DetectFunc
	m.mu.Unlock()
	return fn(ctx, img)
}

// Calls returns how many images were sent.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images)
}

// Images returns the images sent so far.
func (m *Mock) Images() []pose.EncodedImage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pose.EncodedImage, len(m.images))
	copy(out, m.images)
	return out
}
