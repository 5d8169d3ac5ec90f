// Package capture turns the current visual state, a live camera frame or a
// user-supplied file, into an EncodedImage ready for detection.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"strings"

	"github.com/teslashibe/go-posecam/pkg/camera"
	"github.com/teslashibe/go-posecam/pkg/pose"
)

// Sentinel errors for the capture package.
var (
	// ErrNotCapturing indicates a live capture while the camera is not active.
	ErrNotCapturing = errors.New("capture: camera is not capturing")

	// ErrUnsupportedFileType indicates a file whose declared type is not an image.
	ErrUnsupportedFileType = errors.New("capture: unsupported file type")

	// ErrFileTooLarge indicates a file above the configured size limit.
	ErrFileTooLarge = errors.New("capture: file too large")
)

// DefaultMaxFileSize caps file captures when no limit is given.
const DefaultMaxFileSize = 20 << 20

// Source is the live surface a frame is snapshotted from.
type Source interface {
	State() camera.State
	Snapshot() (image.Image, error)
}

// Live snapshots the session's current frame at its negotiated dimensions and
// encodes it as JPEG at quality 0.8.
func Live(src Source) (pose.EncodedImage, error) {
	return LiveWithQuality(src, pose.DefaultJPEGQuality)
}

// LiveWithQuality is Live with an explicit quality factor on a 0-1 scale.
func LiveWithQuality(src Source, quality float64) (pose.EncodedImage, error) {
	if src.State() != camera.Active {
		return pose.EncodedImage{}, ErrNotCapturing
	}

	frame, err := src.Snapshot()
	if errors.Is(err, camera.ErrNotActive) {
		return pose.EncodedImage{}, ErrNotCapturing
	}
	if err != nil {
		return pose.EncodedImage{}, fmt.Errorf("capture: snapshot: %w", err)
	}

	return EncodeJPEG(frame, quality)
}

// EncodeJPEG encodes img as JPEG with a 0-1 quality factor.
func EncodeJPEG(img image.Image, quality float64) (pose.EncodedImage, error) {
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return pose.EncodedImage{}, fmt.Errorf("capture: encode jpeg: %w", err)
	}
	return pose.NewEncodedImage(pose.MIMEJPEG, quality, buf.Bytes()), nil
}

// File is a user-supplied file with a declared MIME type.
type File interface {
	Name() string
	Type() string
	Open() (io.ReadCloser, error)
}

// IsImageType reports whether a declared type is accepted for upload.
func IsImageType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
}

// FromFile reads the whole file and wraps it with its declared type. The read
// either completes or fails; no partial image is ever returned. maxSize <= 0
// uses DefaultMaxFileSize.
func FromFile(ctx context.Context, f File, maxSize int64) (pose.EncodedImage, error) {
	mimeType := f.Type()
	if !IsImageType(mimeType) {
		return pose.EncodedImage{}, fmt.Errorf("%w: %q", ErrUnsupportedFileType, mimeType)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		rc, err := f.Open()
		if err != nil {
			done <- result{err: err}
			return
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxSize+1))
		if err == nil && int64(len(data)) > maxSize {
			err = fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, f.Name(), maxSize)
		}
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return pose.EncodedImage{}, fmt.Errorf("capture: read %s: %w", f.Name(), ctx.Err())
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, ErrFileTooLarge) {
				return pose.EncodedImage{}, r.err
			}
			return pose.EncodedImage{}, fmt.Errorf("capture: read %s: %w", f.Name(), r.err)
		}
		return pose.NewEncodedImage(strings.ToLower(mimeType), 0, r.data), nil
	}
}
