package camera

import (
	"context"
	"image"
)

// MediaDevices is the platform media API: it grants access to a camera stream.
// Failures should be reported as *MediaError so they classify precisely.
type MediaDevices interface {
	GetUserMedia(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an acquired camera stream. Session is its only owner.
type Stream interface {
	// Tracks returns every underlying track; all must be stopped on release.
	Tracks() []Track

	// Metadata blocks until the negotiated frame size is known.
	Metadata(ctx context.Context) (width, height int, err error)

	// ReadFrame returns the current frame. The image is owned by the caller.
	ReadFrame() (image.Image, error)
}

// Track is one media track of a Stream.
type Track interface {
	ID() string
	Stop() error
}
