// Package app drives one camera session through capture, detection and
// rendering, and publishes the resulting ui.State after every change.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-posecam/pkg/camera"
	"github.com/teslashibe/go-posecam/pkg/capture"
	"github.com/teslashibe/go-posecam/pkg/detect"
	"github.com/teslashibe/go-posecam/pkg/pose"
	"github.com/teslashibe/go-posecam/pkg/render"
	"github.com/teslashibe/go-posecam/pkg/ui"
)

// ErrBusy is returned when a capture is requested while another one is in flight.
var ErrBusy = errors.New("app: a detection is already in progress")

// Status texts.
const (
	StatusStarting  = "Starting camera..."
	StatusReady     = "Camera ready"
	StatusStopped   = "Camera stopped"
	StatusCapturing = "Capturing frame..."
	StatusReading   = "Reading image..."
	StatusDetecting = "Detecting pose..."
)

// Camera is the session the controller drives. *camera.Session implements it.
type Camera interface {
	capture.Source
	Start(ctx context.Context) error
	Stop()
	Size() (width, height int)
	OnTransition(fn func(camera.Transition))
}

// Controller serializes user actions against one camera and one detector.
type Controller struct {
	cam       Camera
	detector  detect.Detector
	renderer  *render.Renderer
	maxUpload int64
	logger    *slog.Logger

	mu        sync.Mutex
	busy      bool
	status    ui.StatusMessage
	result    *render.View
	listeners []func(ui.State)
}

// Option configures a Controller.
type Option func(*Controller)

// WithRenderer sets the result renderer. The default renders in English.
func WithRenderer(r *render.Renderer) Option {
	return func(c *Controller) { c.renderer = r }
}

// WithMaxUpload caps file captures in bytes.
func WithMaxUpload(n int64) Option {
	return func(c *Controller) { c.maxUpload = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a controller and subscribes to the camera's transitions.
func New(cam Camera, detector detect.Detector, opts ...Option) *Controller {
	c := &Controller{
		cam:       cam,
		detector:  detector,
		maxUpload: capture.DefaultMaxFileSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.renderer == nil {
		c.renderer = render.New("en")
	}
	c.logger = c.logger.With("component", "app.controller")

	cam.OnTransition(func(camera.Transition) { c.emit() })
	return c
}

// OnChange registers fn to receive the ui.State after every change.
func (c *Controller) OnChange(fn func(ui.State)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// State returns the current presentation.
func (c *Controller) State() ui.State {
	width, height := c.cam.Size()
	c.mu.Lock()
	in := ui.Input{
		Session: c.cam.State(),
		Busy:    c.busy,
		Status:  c.status,
		Result:  c.result,
		Width:   width,
		Height:  height,
	}
	c.mu.Unlock()
	return ui.Render(in)
}

// Start acquires the camera. Repeated calls while acquiring or active do nothing.
func (c *Controller) Start(ctx context.Context) error {
	if st := c.cam.State(); st == camera.Acquiring || st == camera.Active {
		return nil
	}

	c.setStatus(ui.LoadingStatus(StatusStarting))
	if err := c.cam.Start(ctx); err != nil {
		c.fail("start camera", err)
		return err
	}
	if c.cam.State() == camera.Active {
		c.setStatus(ui.SuccessStatus(StatusReady))
	}
	return nil
}

// Stop releases the camera. A detection already in flight still completes.
func (c *Controller) Stop() {
	if st := c.cam.State(); st == camera.Idle || st == camera.Stopped {
		return
	}
	c.cam.Stop()
	c.setStatus(ui.SuccessStatus(StatusStopped))
}

// CaptureLive snapshots the live camera and runs detection on the frame.
func (c *Controller) CaptureLive(ctx context.Context) (*render.View, error) {
	if !c.acquire() {
		return nil, ErrBusy
	}
	defer c.release()

	c.setStatus(ui.LoadingStatus(StatusCapturing))
	img, err := capture.Live(c.cam)
	if err != nil {
		c.fail("capture frame", err)
		return nil, err
	}
	return c.detect(ctx, img)
}

// CaptureFile reads a user-supplied image and runs detection on it.
// Files that are not images are rejected before any request is made.
func (c *Controller) CaptureFile(ctx context.Context, f capture.File) (*render.View, error) {
	if !c.acquire() {
		return nil, ErrBusy
	}
	defer c.release()

	c.setStatus(ui.LoadingStatus(StatusReading))
	img, err := capture.FromFile(ctx, f, c.maxUpload)
	if err != nil {
		c.fail("read file", err)
		return nil, err
	}
	return c.detect(ctx, img)
}

// Preview encodes the current frame without touching status or the busy gate.
func (c *Controller) Preview(quality float64) (pose.EncodedImage, error) {
	return capture.LiveWithQuality(c.cam, quality)
}

func (c *Controller) detect(ctx context.Context, img pose.EncodedImage) (*render.View, error) {
	c.setStatus(ui.LoadingStatus(StatusDetecting))
	c.logger.Debug("sending image", "type", img.MIMEType(), "bytes", img.Len())

	res, err := c.detector.Detect(ctx, img)
	if err != nil {
		c.fail("detect pose", err)
		return nil, err
	}

	view := c.renderer.Render(res)
	c.mu.Lock()
	c.result = &view
	c.status = ui.SuccessStatus(fmt.Sprintf("Pose detected: %s", view.PoseName))
	c.mu.Unlock()
	c.emit()

	c.logger.Info("pose detected",
		"pose", res.Type,
		"landmarks", view.LandmarkCount,
		"connections", view.ConnectionCount)
	return &view, nil
}

func (c *Controller) acquire() bool {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return false
	}
	c.busy = true
	c.mu.Unlock()
	c.emit()
	return true
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
	c.emit()
}

func (c *Controller) fail(op string, err error) {
	c.logger.Warn(op+" failed", "error", err)
	c.setStatus(ui.ErrorStatus(Describe(err)))
}

func (c *Controller) setStatus(m ui.StatusMessage) {
	c.mu.Lock()
	c.status = m
	c.mu.Unlock()
	c.emit()
}

func (c *Controller) emit() {
	st := c.State()
	c.mu.Lock()
	listeners := make([]func(ui.State), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}
