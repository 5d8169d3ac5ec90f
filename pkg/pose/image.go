package pose

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Common image MIME types.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

// DefaultJPEGQuality is the quality factor used for live captures.
const DefaultJPEGQuality = 0.8

// ErrInvalidDataURL is returned when a string is not a base64 image data URL.
var ErrInvalidDataURL = errors.New("pose: invalid image data url")

// EncodedImage is a compressed still image plus its encoding.
// It is immutable after creation.
type EncodedImage struct {
	mimeType string
	quality  float64
	data     []byte
}

// NewEncodedImage copies data into a new EncodedImage.
// quality is on a 0-1 scale; pass 0 when the source encoding is unknown.
func NewEncodedImage(mimeType string, quality float64, data []byte) EncodedImage {
	return EncodedImage{
		mimeType: mimeType,
		quality:  quality,
		data:     bytes.Clone(data),
	}
}

// MIMEType returns the declared MIME type, e.g. "image/jpeg".
func (e EncodedImage) MIMEType() string { return e.mimeType }

// Quality returns the quality factor, 0 if not applicable.
func (e EncodedImage) Quality() float64 { return e.quality }

// Len returns the size of the encoded payload in bytes.
func (e EncodedImage) Len() int { return len(e.data) }

// Bytes returns a copy of the encoded payload.
func (e EncodedImage) Bytes() []byte { return bytes.Clone(e.data) }

// DataURL returns the self-describing "data:<mime>;base64,<payload>" form.
func (e EncodedImage) DataURL() string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(e.mimeType) + base64.StdEncoding.EncodedLen(len(e.data)))
	b.WriteString("data:")
	b.WriteString(e.mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(e.data))
	return b.String()
}

// ParseDataURL decodes a base64 image data URL.
func ParseDataURL(s string) (EncodedImage, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return EncodedImage{}, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURL)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return EncodedImage{}, fmt.Errorf("%w: missing payload", ErrInvalidDataURL)
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return EncodedImage{}, fmt.Errorf("%w: payload is not base64", ErrInvalidDataURL)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return EncodedImage{}, fmt.Errorf("%w: unexpected type %q", ErrInvalidDataURL, mimeType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return EncodedImage{mimeType: mimeType, data: data}, nil
}

// MarshalText encodes the image as a data URL.
func (e EncodedImage) MarshalText() ([]byte, error) {
	return []byte(e.DataURL()), nil
}

// UnmarshalText decodes a data URL produced by MarshalText.
func (e *EncodedImage) UnmarshalText(text []byte) error {
	img, err := ParseDataURL(string(text))
	if err != nil {
		return err
	}
	*e = img
	return nil
}
