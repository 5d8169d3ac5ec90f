//go:build gocv

// Package gocvcam provides an OpenCV-backed camera.MediaDevices. It needs
// the OpenCV system libraries and is only built with the gocv tag.
package gocvcam

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-posecam/pkg/camera"
)

var _ camera.MediaDevices = (*Backend)(nil)

// Backend opens a camera by device index through OpenCV.
type Backend struct {
	DeviceID int
}

// New returns a backend for the given device index.
func New(deviceID int) *Backend {
	return &Backend{DeviceID: deviceID}
}

// GetUserMedia implements camera.MediaDevices.
func (b *Backend) GetUserMedia(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &camera.MediaError{Name: camera.NameAbort, Message: "camera request cancelled", Cause: err}
	}

	capture, err := gocv.OpenVideoCapture(b.DeviceID)
	if err != nil {
		return nil, &camera.MediaError{Name: camera.NameNotFound, Message: err.Error(), Cause: err}
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, &camera.MediaError{Name: camera.NameNotReadable, Message: fmt.Sprintf("device %d could not be opened", b.DeviceID)}
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(c.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(c.Height))

	return &gocvStream{capture: capture, id: fmt.Sprintf("gocv-%d", b.DeviceID)}, nil
}

type gocvStream struct {
	id      string
	mu      sync.Mutex
	capture *gocv.VideoCapture
	closed  bool
}

func (s *gocvStream) Tracks() []camera.Track {
	return []camera.Track{gocvTrack{s}}
}

func (s *gocvStream) Metadata(ctx context.Context) (int, int, error) {
	s.mu.Lock()
	w := int(s.capture.Get(gocv.VideoCaptureFrameWidth))
	h := int(s.capture.Get(gocv.VideoCaptureFrameHeight))
	s.mu.Unlock()
	if w > 0 && h > 0 {
		return w, h, nil
	}

	img, err := s.ReadFrame()
	if err != nil {
		return 0, 0, err
	}
	return img.Bounds().Dx(), img.Bounds().Dy(), nil
}

func (s *gocvStream) ReadFrame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, camera.ErrNotActive
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := s.capture.Read(&mat); !ok {
		return nil, errors.New("camera: failed to read frame")
	}
	if mat.Empty() {
		return nil, errors.New("camera: captured frame is empty")
	}
	return mat.ToImage()
}

func (s *gocvStream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.capture.Close()
}

type gocvTrack struct {
	stream *gocvStream
}

func (t gocvTrack) ID() string { return t.stream.id }
func (t gocvTrack) Stop() error { return t.stream.close() }
