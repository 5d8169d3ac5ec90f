//go:build gocv

package main

import (
	"github.com/teslashibe/go-posecam/pkg/camera"
	"github.com/teslashibe/go-posecam/pkg/camera/gocvcam"
)

// newGoCV opens the OpenCV camera backend.
func newGoCV(device int) (camera.MediaDevices, error) {
	return gocvcam.New(device), nil
}
