package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecam/internal/config"
	"github.com/teslashibe/go-posecam/pkg/camera"
)

// cameraFlags are the camera selection flags shared by serve and snap.
type cameraFlags struct {
	backend string
	device  int
	preset  string
	locale  string
}

func (f *cameraFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.backend, "backend", "", "camera backend: mediadevices or gocv (env POSECAM_CAMERA_BACKEND)")
	cmd.Flags().IntVar(&f.device, "device", -1, "camera device index for the gocv backend (env POSECAM_CAMERA_DEVICE)")
	cmd.Flags().StringVar(&f.preset, "preset", "default", "capture preset: "+strings.Join(camera.PresetNames(), ", "))
	cmd.Flags().StringVar(&f.locale, "locale", "", "language for pose names (env POSECAM_LOCALE)")
}

// apply copies explicitly set flags over the environment configuration.
func (f *cameraFlags) apply(cfg *config.Config) error {
	if f.backend != "" {
		cfg.CameraBackend = f.backend
	}
	if f.device >= 0 {
		cfg.CameraDevice = f.device
	}
	if f.locale != "" {
		cfg.Locale = f.locale
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (f *cameraFlags) constraints() (camera.Constraints, error) {
	c := camera.GetPreset(f.preset)
	if c == nil {
		return camera.Constraints{}, fmt.Errorf("unknown preset %q (have %s)", f.preset, strings.Join(camera.PresetNames(), ", "))
	}
	if problems := c.Validate(); len(problems) > 0 {
		return camera.Constraints{}, fmt.Errorf("invalid preset %q: %s", f.preset, strings.Join(problems, "; "))
	}
	return *c, nil
}

// openDevices returns the media backend selected by cfg.
func openDevices(cfg config.Config) (camera.MediaDevices, error) {
	switch cfg.CameraBackend {
	case config.BackendMediaDevices:
		return camera.NewMediaDevices(), nil
	case config.BackendGoCV:
		return newGoCV(cfg.CameraDevice)
	default:
		return nil, fmt.Errorf("unknown camera backend %q", cfg.CameraBackend)
	}
}
