// Package config provides configuration helpers for posecam commands.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Defaults used when the environment does not say otherwise.
const (
	DefaultDetectURL       = "http://localhost:5000"
	DefaultPort            = "8080"
	DefaultCameraBackend   = "mediadevices"
	DefaultLocale          = "en"
	DefaultMaxUpload       = 20 << 20
	DefaultPreviewInterval = 100 * time.Millisecond
)

// Camera backends understood by the serve and snap commands.
const (
	BackendMediaDevices = "mediadevices"
	BackendGoCV         = "gocv"
)

// Config holds process configuration read from the environment.
// CLI flags override individual fields after Load.
type Config struct {
	// DetectURL is the base URL of the pose-detection service.
	DetectURL string `env:"POSECAM_DETECT_URL" envDefault:"http://localhost:5000"`

	// DetectTimeout bounds one detection round trip. Zero means no limit.
	DetectTimeout time.Duration `env:"POSECAM_DETECT_TIMEOUT" envDefault:"0s"`

	// Port is the local web UI port.
	Port string `env:"POSECAM_PORT" envDefault:"8080"`

	// WebDir is an optional directory of static files served at "/".
	WebDir string `env:"POSECAM_WEB_DIR"`

	// CameraBackend selects the media backend: "mediadevices" or "gocv".
	CameraBackend string `env:"POSECAM_CAMERA_BACKEND" envDefault:"mediadevices"`

	// CameraDevice is the device index used by the gocv backend.
	CameraDevice int `env:"POSECAM_CAMERA_DEVICE" envDefault:"0"`

	// Locale selects the language of pose display names.
	Locale string `env:"POSECAM_LOCALE" envDefault:"en"`

	// MaxUpload caps uploaded file size in bytes.
	MaxUpload int64 `env:"POSECAM_MAX_UPLOAD" envDefault:"20971520"`

	// PreviewInterval is the period of live preview frames on /ws/camera.
	PreviewInterval time.Duration `env:"POSECAM_PREVIEW_INTERVAL" envDefault:"100ms"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DetectURL:       DefaultDetectURL,
		Port:            DefaultPort,
		CameraBackend:   DefaultCameraBackend,
		Locale:          DefaultLocale,
		MaxUpload:       DefaultMaxUpload,
		PreviewInterval: DefaultPreviewInterval,
		LogLevel:        "info",
	}
}

// Validate checks if the config values are usable.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	u, err := url.Parse(c.DetectURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, "detect url must be an absolute http(s) URL")
	}
	if c.DetectTimeout < 0 {
		errors = append(errors, "detect timeout must not be negative")
	}
	if strings.TrimSpace(c.Port) == "" {
		errors = append(errors, "port is required")
	}
	switch c.CameraBackend {
	case BackendMediaDevices, BackendGoCV:
	default:
		errors = append(errors, "camera backend must be mediadevices or gocv")
	}
	if c.CameraDevice < 0 {
		errors = append(errors, "camera device must not be negative")
	}
	if c.MaxUpload <= 0 {
		errors = append(errors, "max upload must be positive")
	}
	if c.PreviewInterval <= 0 {
		errors = append(errors, "preview interval must be positive")
	}

	return errors
}

// DetectEndpoint returns the detection base URL without a trailing slash.
func (c *Config) DetectEndpoint() string {
	return strings.TrimSuffix(c.DetectURL, "/")
}
