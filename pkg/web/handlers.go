package web

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-posecam/pkg/app"
	"github.com/teslashibe/go-posecam/pkg/camera"
	"github.com/teslashibe/go-posecam/pkg/capture"
	"github.com/teslashibe/go-posecam/pkg/detect"
	"github.com/teslashibe/go-posecam/pkg/hub"
	"github.com/teslashibe/go-posecam/pkg/render"
	"github.com/teslashibe/go-posecam/pkg/ui"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string   `json:"error"`
	State ui.State `json:"state"`
}

// CaptureResponse is the body of a successful capture or upload.
type CaptureResponse struct {
	Result *render.View `json:"result"`
	State  ui.State     `json:"state"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string       `json:"status"`
	Camera   camera.State `json:"camera"`
	Detector string       `json:"detector,omitempty"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := HealthResponse{Status: "ok", Camera: s.ctrl.State().Session}
	if s.cfg.Detector != nil {
		h, err := s.cfg.Detector.Health(c.UserContext())
		switch {
		case err != nil:
			resp.Detector = "unreachable"
		case h.Healthy():
			resp.Detector = "ok"
		default:
			resp.Detector = h.Status
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.State())
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	if err := s.ctrl.Start(c.UserContext()); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(s.ctrl.State())
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	s.ctrl.Stop()
	return c.JSON(s.ctrl.State())
}

func (s *Server) handleCapture(c *fiber.Ctx) error {
	view, err := s.ctrl.CaptureLive(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(CaptureResponse{Result: view, State: s.ctrl.State()})
}

func (s *Server) handleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "expected one image in form field \"file\"",
			State: s.ctrl.State(),
		})
	}

	view, err := s.ctrl.CaptureFile(c.UserContext(), capture.MultipartFile{Header: fh})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(CaptureResponse{Result: view, State: s.ctrl.State()})
}

func (s *Server) handleFrame(c *fiber.Ctx) error {
	img, err := s.ctrl.Preview(PreviewQuality)
	if err != nil {
		return s.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, img.MIMEType())
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(img.Bytes())
}

func (s *Server) handleStateWS(c *websocket.Conn) {
	s.serveHub(s.stateHub, c)
}

func (s *Server) handleCameraWS(c *websocket.Conn) {
	s.serveHub(s.cameraHub, c)
}

func (s *Server) serveHub(h *hub.Hub, c *websocket.Conn) {
	client := hub.NewClient(h, c)
	if client == nil {
		return
	}
	client.Run()
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(ErrorResponse{
		Error: app.Describe(err),
		State: s.ctrl.State(),
	})
}

// statusFor maps an operation error to an HTTP status.
func statusFor(err error) int {
	var (
		acqErr     *camera.AcquisitionError
		serverErr  *detect.ServerError
		failedErr  *detect.DetectionFailedError
		networkErr *detect.NetworkError
		invalidErr *detect.InvalidResponseError
	)

	switch {
	case errors.Is(err, app.ErrBusy), errors.Is(err, capture.ErrNotCapturing):
		return fiber.StatusConflict
	case errors.Is(err, capture.ErrUnsupportedFileType):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, capture.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.As(err, &acqErr):
		if acqErr.Category == camera.PermissionDenied {
			return fiber.StatusForbidden
		}
		return fiber.StatusServiceUnavailable
	case errors.As(err, &failedErr):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.As(err, &serverErr), errors.As(err, &networkErr), errors.As(err, &invalidErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
