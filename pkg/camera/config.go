// Package camera owns the live camera session: acquiring a stream from a
// media backend, binding its negotiated dimensions, snapshotting frames and
// releasing the device.
package camera

import "fmt"

// FacingMode selects which camera to prefer on devices with several.
type FacingMode string

// Facing modes understood by backends. Single-camera backends ignore them.
const (
	FacingUser        FacingMode = "user"
	FacingEnvironment FacingMode = "environment"
)

// Constraints are the stream parameters requested from the media backend.
// Width and Height are ideal values; the device may negotiate something else.
type Constraints struct {
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	FacingMode FacingMode `json:"facing_mode"`
	Audio      bool       `json:"audio"`
}

// Limits for requested dimensions.
const (
	MinWidth  = 160
	MinHeight = 120
	MaxWidth  = 4096
	MaxHeight = 2160
)

// DefaultConstraints returns the front-facing 640x480 video-only request.
func DefaultConstraints() Constraints {
	return Constraints{
		Width:      640,
		Height:     480,
		FacingMode: FacingUser,
		Audio:      false,
	}
}

// Validate checks if the constraint values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Constraints) Validate() []string {
	var errors []string

	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	switch c.FacingMode {
	case FacingUser, FacingEnvironment, "":
	default:
		errors = append(errors, "facing_mode must be user or environment")
	}
	if c.Audio {
		errors = append(errors, "audio capture is not supported")
	}

	return errors
}
