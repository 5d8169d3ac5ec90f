package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"strings"
	"sync"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/driver/availability"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/prop"
	"golang.org/x/image/draw"

	// Registers the platform camera driver.
	_ "github.com/pion/mediadevices/pkg/driver/camera"
)

// MediaDevicesBackend acquires cameras through pion/mediadevices, the Go
// counterpart of the browser getUserMedia API.
type MediaDevicesBackend struct{}

// NewMediaDevices returns the default camera backend.
func NewMediaDevices() *MediaDevicesBackend {
	return &MediaDevicesBackend{}
}

// GetUserMedia implements MediaDevices. The underlying call cannot be
// cancelled; if ctx ends first the stream is closed once it arrives.
func (b *MediaDevicesBackend) GetUserMedia(ctx context.Context, c Constraints) (Stream, error) {
	type result struct {
		stream mediadevices.MediaStream
		err    error
	}
	done := make(chan result, 1)

	go func() {
		ms, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
			Video: func(t *mediadevices.MediaTrackConstraints) {
				t.Width = prop.Int(c.Width)
				t.Height = prop.Int(c.Height)
			},
		})
		done <- result{stream: ms, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil {
				for _, t := range r.stream.GetTracks() {
					t.Close()
				}
			}
		}()
		return nil, &MediaError{Name: NameAbort, Message: "camera request cancelled", Cause: ctx.Err()}
	case r := <-done:
		if r.err != nil {
			return nil, mediaDevicesError(r.err)
		}
		return newMediaDevicesStream(r.stream)
	}
}

func mediaDevicesError(err error) error {
	msg := err.Error()
	switch {
	case errors.Is(err, fs.ErrPermission):
		return &MediaError{Name: NameNotAllowed, Message: msg, Cause: err}
	case errors.Is(err, availability.ErrNoDevice):
		return &MediaError{Name: NameNotFound, Message: msg, Cause: err}
	case strings.Contains(msg, "busy"):
		return &MediaError{Name: NameNotReadable, Message: msg, Cause: err}
	case strings.Contains(msg, "failed to find"):
		return &MediaError{Name: NameNotFound, Message: msg, Cause: err}
	}
	return err
}

type mediaDevicesStream struct {
	stream mediadevices.MediaStream
	reader video.Reader
	mu     sync.Mutex
}

func newMediaDevicesStream(ms mediadevices.MediaStream) (*mediaDevicesStream, error) {
	tracks := ms.GetVideoTracks()
	if len(tracks) == 0 {
		return nil, ErrNoVideoTrack
	}
	vt, ok := tracks[0].(*mediadevices.VideoTrack)
	if !ok {
		for _, t := range ms.GetTracks() {
			t.Close()
		}
		return nil, fmt.Errorf("camera: unexpected track type %T", tracks[0])
	}
	return &mediaDevicesStream{
		stream: ms,
		reader: vt.NewReader(false),
	}, nil
}

func (s *mediaDevicesStream) Tracks() []Track {
	var out []Track
	for _, t := range s.stream.GetTracks() {
		out = append(out, mediaDevicesTrack{t})
	}
	return out
}

// Metadata reads one frame: the driver only reports the negotiated size
// through the frames it delivers.
func (s *mediaDevicesStream) Metadata(ctx context.Context) (int, int, error) {
	img, err := s.ReadFrame()
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

func (s *mediaDevicesStream) ReadFrame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, release, err := s.reader.Read()
	if release != nil {
		defer release()
	}
	if err != nil {
		return nil, fmt.Errorf("camera: read frame: %w", err)
	}

	// The reader reuses its buffer after release.
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out, nil
}

type mediaDevicesTrack struct {
	track mediadevices.Track
}

func (t mediaDevicesTrack) ID() string { return t.track.ID() }
func (t mediaDevicesTrack) Stop() error { return t.track.Close() }
