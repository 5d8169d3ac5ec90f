//go:build !gocv

package main

import (
	"errors"

	"github.com/teslashibe/go-posecam/pkg/camera"
)

// errNoGoCV is returned when the gocv backend is selected in a build without it.
var errNoGoCV = errors.New("gocv backend not available: rebuild with -tags gocv")

// newGoCV returns an error in builds without OpenCV.
func newGoCV(device int) (camera.MediaDevices, error) {
	return nil, errNoGoCV
}
