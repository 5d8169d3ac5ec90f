package camera

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// Sentinel errors for the camera package.
var (
	// ErrNotActive indicates a frame was requested while no stream is bound.
	ErrNotActive = errors.New("camera: session is not active")

	// ErrNoDevice is returned by backends when no camera is attached.
	ErrNoDevice = errors.New("camera: no video device")

	// ErrNoVideoTrack indicates the backend returned a stream without video.
	ErrNoVideoTrack = errors.New("camera: stream has no video track")
)

// Category is the user-facing class of an acquisition failure.
type Category int

// Acquisition failure categories.
const (
	Unknown Category = iota
	PermissionDenied
	DeviceNotFound
	UnsupportedDevice
	DeviceBusy
	ConstraintsNotSatisfiable
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case PermissionDenied:
		return "permission_denied"
	case DeviceNotFound:
		return "device_not_found"
	case UnsupportedDevice:
		return "unsupported_device"
	case DeviceBusy:
		return "device_busy"
	case ConstraintsNotSatisfiable:
		return "constraints_not_satisfiable"
	default:
		return "unknown"
	}
}

// Description is a human-readable explanation of the category.
func (c Category) Description() string {
	switch c {
	case PermissionDenied:
		return "camera access was denied, allow camera permission and try again"
	case DeviceNotFound:
		return "no camera was found"
	case UnsupportedDevice:
		return "camera capture is not supported on this device"
	case DeviceBusy:
		return "the camera is already in use by another application"
	case ConstraintsNotSatisfiable:
		return "the camera does not support the requested settings"
	default:
		return "the camera could not be started"
	}
}

// Failure names as reported by media backends. They follow the names the
// platform media API uses for getUserMedia rejections.
const (
	NameNotAllowed             = "NotAllowedError"
	NameSecurity               = "SecurityError"
	NameNotFound               = "NotFoundError"
	NameDevicesNotFound        = "DevicesNotFoundError"
	NameNotSupported           = "NotSupportedError"
	NameType                   = "TypeError"
	NameNotReadable            = "NotReadableError"
	NameTrackStart             = "TrackStartError"
	NameAbort                  = "AbortError"
	NameOverconstrained        = "OverconstrainedError"
	NameConstraintNotSatisfied = "ConstraintNotSatisfiedError"
)

var categoryByName = map[string]Category{
	NameNotAllowed:             PermissionDenied,
	NameSecurity:               PermissionDenied,
	NameNotFound:               DeviceNotFound,
	NameDevicesNotFound:        DeviceNotFound,
	NameNotSupported:           UnsupportedDevice,
	NameType:                   UnsupportedDevice,
	NameNotReadable:            DeviceBusy,
	NameTrackStart:             DeviceBusy,
	NameAbort:                  DeviceBusy,
	NameOverconstrained:        ConstraintsNotSatisfiable,
	NameConstraintNotSatisfied: ConstraintsNotSatisfiable,
}

// MediaError is a failure reported by a media backend under a named category.
type MediaError struct {
	Name    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *MediaError) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// Unwrap returns the underlying backend error.
func (e *MediaError) Unwrap() error {
	return e.Cause
}

// AcquisitionError is a classified camera acquisition failure.
type AcquisitionError struct {
	Category Category
	// Message is the raw failure text from the backend.
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AcquisitionError) Error() string {
	if e.Category == Unknown && e.Message != "" {
		return fmt.Sprintf("camera: acquisition failed: %s", e.Message)
	}
	return fmt.Sprintf("camera: acquisition failed (%s): %s", e.Category, e.Category.Description())
}

// Unwrap returns the original failure.
func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// Classify maps an acquisition failure to a Category. Named media errors map by
// name; well-known Go errors map by identity; anything else is Unknown and
// keeps the raw message.
func Classify(err error) *AcquisitionError {
	if err == nil {
		return nil
	}

	var acq *AcquisitionError
	if errors.As(err, &acq) {
		return acq
	}

	out := &AcquisitionError{Category: Unknown, Message: err.Error(), Err: err}

	var me *MediaError
	if errors.As(err, &me) {
		if me.Message != "" {
			out.Message = me.Message
		}
		if cat, ok := categoryByName[me.Name]; ok {
			out.Category = cat
		}
		return out
	}

	switch {
	case errors.Is(err, fs.ErrPermission):
		out.Category = PermissionDenied
	case errors.Is(err, ErrNoDevice), errors.Is(err, fs.ErrNotExist):
		out.Category = DeviceNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out.Category = Unknown
	}
	return out
}
