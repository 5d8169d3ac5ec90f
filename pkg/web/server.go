// Package web serves the posecam control surface: a JSON API over the
// controller plus websocket feeds for state changes and the live preview.
package web

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-posecam/pkg/app"
	"github.com/teslashibe/go-posecam/pkg/camera"
	"github.com/teslashibe/go-posecam/pkg/detect"
	"github.com/teslashibe/go-posecam/pkg/hub"
	"github.com/teslashibe/go-posecam/pkg/ui"
)

// PreviewQuality is the JPEG quality of preview frames. Captures sent for
// detection always use pose.DefaultJPEGQuality.
const PreviewQuality = 0.6

// HealthChecker reports the health of the detection service.
type HealthChecker interface {
	Health(ctx context.Context) (*detect.Health, error)
}

// Config configures a Server.
type Config struct {
	Port            string
	WebDir          string
	PreviewInterval time.Duration
	MaxUpload       int64
	// AccessLog enables the fiber request logger on stderr.
	AccessLog bool
	Logger    *slog.Logger
	// Detector, when set, is probed by GET /health.
	Detector HealthChecker
}

// Server is the web control surface for one controller.
type Server struct {
	app    *fiber.App
	ctrl   *app.Controller
	cfg    Config
	logger *slog.Logger

	stateHub  *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates a server and subscribes it to the controller's changes.
func NewServer(ctrl *app.Controller, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PreviewInterval <= 0 {
		cfg.PreviewInterval = 100 * time.Millisecond
	}

	s := &Server{
		ctrl:      ctrl,
		cfg:       cfg,
		logger:    cfg.Logger.With("component", "web"),
		stateHub:  hub.New("state", hub.WithLogger(cfg.Logger), hub.WithReplay()),
		cameraHub: hub.New("camera", hub.WithLogger(cfg.Logger)),
	}

	bodyLimit := 4 * 1024 * 1024
	if cfg.MaxUpload > 0 {
		// Leave room for multipart framing so oversize files reach the
		// capture size check instead of fiber's generic 413.
		bodyLimit = int(cfg.MaxUpload) + 1<<20
	}

	a := fiber.New(fiber.Config{
		AppName:               "posecam",
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
	})

	a.Use(recover.New())
	if cfg.AccessLog {
		a.Use(logger.New(logger.Config{Output: os.Stderr}))
	}
	a.Use(cors.New())

	a.Get("/health", s.handleHealth)

	api := a.Group("/api")
	api.Get("/state", s.handleState)
	api.Post("/camera/start", s.handleStart)
	api.Post("/camera/stop", s.handleStop)
	api.Post("/capture", s.handleCapture)
	api.Post("/upload", s.handleUpload)
	api.Get("/frame", s.handleFrame)

	a.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	a.Get("/ws/state", websocket.New(s.handleStateWS))
	a.Get("/ws/camera", websocket.New(s.handleCameraWS))

	if cfg.WebDir != "" {
		a.Static("/", cfg.WebDir)
	}

	ctrl.OnChange(func(st ui.State) {
		if err := s.stateHub.BroadcastJSON(st); err != nil {
			s.logger.Warn("encode state", "error", err)
		}
	})

	s.app = a
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the hubs and the preview pump, then serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.stateHub.Run(ctx)
	go s.cameraHub.Run(ctx)
	go s.pumpPreview(ctx)

	// Seed replay so the first subscriber sees the current state.
	if err := s.stateHub.BroadcastJSON(s.ctrl.State()); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", "http://localhost:"+s.cfg.Port)
		errCh <- s.app.Listen(":" + s.cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}

// pumpPreview pushes JPEG frames to /ws/camera subscribers while the camera
// is active.
func (s *Server) pumpPreview(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PreviewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.cameraHub.ClientCount() == 0 || s.ctrl.State().Session != camera.Active {
				continue
			}
			img, err := s.ctrl.Preview(PreviewQuality)
			if err != nil {
				s.logger.Debug("preview frame", "error", err)
				continue
			}
			s.cameraHub.BroadcastBinary(img.Bytes())
		}
	}
}
