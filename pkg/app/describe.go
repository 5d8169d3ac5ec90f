package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/teslashibe/go-posecam/pkg/camera"
	"github.com/teslashibe/go-posecam/pkg/capture"
	"github.com/teslashibe/go-posecam/pkg/detect"
)

// Describe turns an operation error into the text shown to the user.
func Describe(err error) string {
	var (
		acqErr     *camera.AcquisitionError
		serverErr  *detect.ServerError
		failedErr  *detect.DetectionFailedError
		networkErr *detect.NetworkError
		invalidErr *detect.InvalidResponseError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &acqErr):
		if acqErr.Category == camera.Unknown && acqErr.Message != "" {
			return "Camera error: " + acqErr.Message
		}
		return "Camera error: " + acqErr.Category.Description()
	case errors.Is(err, ErrBusy):
		return "A detection is already in progress"
	case errors.Is(err, capture.ErrNotCapturing):
		return "Start the camera before capturing"
	case errors.Is(err, capture.ErrUnsupportedFileType):
		return "Please choose an image file"
	case errors.Is(err, capture.ErrFileTooLarge):
		return "The image file is too large"
	case errors.As(err, &serverErr):
		return fmt.Sprintf("Server error (HTTP %d), please try again", serverErr.Status)
	case errors.As(err, &failedErr):
		if failedErr.Message == "" {
			return detect.DefaultFailureMessage
		}
		return failedErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out"
	case errors.Is(err, context.Canceled):
		return "The request was cancelled"
	case errors.As(err, &networkErr):
		return "Could not reach the detection service"
	case errors.As(err, &invalidErr):
		return "The detection service returned an invalid response"
	default:
		return "Error: " + err.Error()
	}
}
