package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-posecam/internal/log"
	"github.com/teslashibe/go-posecam/pkg/app"
	"github.com/teslashibe/go-posecam/pkg/camera"
	"github.com/teslashibe/go-posecam/pkg/capture"
	"github.com/teslashibe/go-posecam/pkg/detect"
	"github.com/teslashibe/go-posecam/pkg/pose"
	"github.com/teslashibe/go-posecam/pkg/ui"
)

type fixture struct {
	srv     *Server
	devices *camera.Mock
	det     *detect.Mock
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	devices := camera.NewMock()
	det := detect.NewMock()
	det.DetectFunc = func(ctx context.Context, img pose.EncodedImage) (*pose.Result, error) {
		return &pose.Result{
			Type:        pose.HandsUp,
			Landmarks:   []pose.Landmark{{Index: 0, X: 0.12, Y: 0.34, Visibility: 0.91}},
			Connections: []pose.Connection{},
		}, nil
	}

	session := camera.NewSession(devices, camera.WithLogger(log.Discard()))
	opts := []app.Option{app.WithLogger(log.Discard())}
	if cfg.MaxUpload > 0 {
		opts = append(opts, app.WithMaxUpload(cfg.MaxUpload))
	}
	ctrl := app.New(session, det, opts...)
	cfg.Logger = log.Discard()
	return &fixture{srv: NewServer(ctrl, cfg), devices: devices, det: det}
}

func (f *fixture) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := f.srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func uploadRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	part.Write(data)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestState(t *testing.T) {
	f := newFixture(t, Config{})

	resp, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	st := decode[ui.State](t, body)
	if st.Session != camera.Idle || !st.Controls.Start || st.Controls.Capture || st.Controls.Stop {
		t.Errorf("state = %+v", st)
	}
}

func TestStartCaptureStop(t *testing.T) {
	f := newFixture(t, Config{})

	resp, body := f.do(t, httptest.NewRequest(http.MethodPost, "/api/camera/start", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("start status = %d: %s", resp.StatusCode, body)
	}
	if st := decode[ui.State](t, body); st.Session != camera.Active || !st.Controls.Capture {
		t.Errorf("after start = %+v", st)
	}

	resp, body = f.do(t, httptest.NewRequest(http.MethodPost, "/api/capture", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("capture status = %d: %s", resp.StatusCode, body)
	}
	cr := decode[CaptureResponse](t, body)
	if cr.Result == nil || cr.Result.PoseName != "Hands Up" || cr.Result.LandmarkCount != 1 {
		t.Fatalf("result = %+v", cr.Result)
	}
	if row := cr.Result.Landmarks[0]; row.X != "0.12" || row.Y != "0.34" || row.Visibility != "91%" {
		t.Errorf("row = %+v", row)
	}
	if cr.State.Status == nil || cr.State.Status.Severity != ui.Success {
		t.Errorf("status = %v", cr.State.Status)
	}

	resp, body = f.do(t, httptest.NewRequest(http.MethodPost, "/api/camera/stop", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("stop status = %d", resp.StatusCode)
	}
	if st := decode[ui.State](t, body); st.Session != camera.Stopped || !st.ShowResult {
		t.Errorf("after stop = %+v", st)
	}
	if !f.devices.Streams()[0].Released() {
		t.Error("stream not released")
	}
}

func TestStartPermissionDenied(t *testing.T) {
	f := newFixture(t, Config{})
	f.devices.GetUserMediaFunc = func(ctx context.Context, _ camera.Constraints) (camera.Stream, error) {
		return nil, &camera.MediaError{Name: camera.NameNotAllowed}
	}

	resp, body := f.do(t, httptest.NewRequest(http.MethodPost, "/api/camera/start", nil))
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}

	er := decode[ErrorResponse](t, body)
	if er.Error != "Camera error: "+camera.PermissionDenied.Description() {
		t.Errorf("error = %q", er.Error)
	}
	if er.State.Controls.Capture || er.State.Status.Severity != ui.Error {
		t.Errorf("state = %+v", er.State)
	}
}

func TestCaptureWithoutCamera(t *testing.T) {
	f := newFixture(t, Config{})

	resp, _ := f.do(t, httptest.NewRequest(http.MethodPost, "/api/capture", nil))
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	if f.det.Calls() != 0 {
		t.Errorf("detector called %d times", f.det.Calls())
	}
}

func TestCaptureServerError(t *testing.T) {
	f := newFixture(t, Config{})
	f.det.DetectFunc = func(ctx context.Context, img pose.EncodedImage) (*pose.Result, error) {
		return nil, &detect.ServerError{Status: http.StatusInternalServerError}
	}
	f.do(t, httptest.NewRequest(http.MethodPost, "/api/camera/start", nil))

	resp, body := f.do(t, httptest.NewRequest(http.MethodPost, "/api/capture", nil))
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	er := decode[ErrorResponse](t, body)
	if er.Error != "Server error (HTTP 500), please try again" {
		t.Errorf("error = %q", er.Error)
	}
	if er.State.Result != nil || !er.State.Controls.Capture {
		t.Errorf("state = %+v", er.State)
	}
}

func TestUpload(t *testing.T) {
	f := newFixture(t, Config{})
	data := []byte{0x89, 0x50, 0x4e, 0x47}

	resp, body := f.do(t, uploadRequest(t, "file", "me.png", "image/png", data))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if cr := decode[CaptureResponse](t, body); cr.Result == nil || cr.Result.PoseName != "Hands Up" {
		t.Errorf("result = %+v", cr.Result)
	}

	images := f.det.Images()
	if len(images) != 1 || images[0].MIMEType() != "image/png" || !bytes.Equal(images[0].Bytes(), data) {
		t.Errorf("images sent = %+v", images)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	f := newFixture(t, Config{})

	resp, body := f.do(t, uploadRequest(t, "file", "notes.txt", "text/plain", []byte("hello")))
	if resp.StatusCode != fiber.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", resp.StatusCode)
	}
	if er := decode[ErrorResponse](t, body); er.Error != "Please choose an image file" {
		t.Errorf("error = %q", er.Error)
	}
	if f.det.Calls() != 0 {
		t.Errorf("detector called %d times, want 0", f.det.Calls())
	}
}

func TestUploadTooLarge(t *testing.T) {
	f := newFixture(t, Config{MaxUpload: 8})

	resp, _ := f.do(t, uploadRequest(t, "file", "big.jpg", "image/jpeg", bytes.Repeat([]byte{1}, 64)))
	if resp.StatusCode != fiber.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestUploadMissingFile(t *testing.T) {
	f := newFixture(t, Config{})

	resp, _ := f.do(t, uploadRequest(t, "other", "me.png", "image/png", []byte{1}))
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFrame(t *testing.T) {
	f := newFixture(t, Config{})

	resp, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/api/frame", nil))
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("frame before start = %d, want 409", resp.StatusCode)
	}

	f.do(t, httptest.NewRequest(http.MethodPost, "/api/camera/start", nil))
	resp, body := f.do(t, httptest.NewRequest(http.MethodGet, "/api/frame", nil))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get(fiber.HeaderContentType); ct != pose.MIMEJPEG {
		t.Errorf("Content-Type = %q", ct)
	}
	if len(body) < 2 || body[0] != 0xff || body[1] != 0xd8 {
		t.Error("body is not a JPEG")
	}
}

type fakeHealth struct {
	health *detect.Health
	err    error
}

func (h fakeHealth) Health(ctx context.Context) (*detect.Health, error) { return h.health, h.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		checker HealthChecker
		want    string
	}{
		{"no detector", nil, ""},
		{"healthy", fakeHealth{health: &detect.Health{Status: "healthy"}}, "ok"},
		{"degraded", fakeHealth{health: &detect.Health{Status: "degraded"}}, "degraded"},
		{"unreachable", fakeHealth{err: &detect.NetworkError{Err: errors.New("refused")}}, "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{Detector: tt.checker})

			resp, body := f.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
			if resp.StatusCode != fiber.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			h := decode[HealthResponse](t, body)
			if h.Status != "ok" || h.Camera != camera.Idle || h.Detector != tt.want {
				t.Errorf("health = %+v", h)
			}
		})
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	f := newFixture(t, Config{})

	for _, path := range []string{"/ws/state", "/ws/camera"} {
		resp, _ := f.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.StatusCode != fiber.StatusUpgradeRequired {
			t.Errorf("%s status = %d, want 426", path, resp.StatusCode)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{app.ErrBusy, fiber.StatusConflict},
		{capture.ErrNotCapturing, fiber.StatusConflict},
		{capture.ErrUnsupportedFileType, fiber.StatusUnsupportedMediaType},
		{capture.ErrFileTooLarge, fiber.StatusRequestEntityTooLarge},
		{&camera.AcquisitionError{Category: camera.PermissionDenied}, fiber.StatusForbidden},
		{&camera.AcquisitionError{Category: camera.DeviceBusy}, fiber.StatusServiceUnavailable},
		{&detect.DetectionFailedError{Message: "no person"}, fiber.StatusUnprocessableEntity},
		{&detect.ServerError{Status: 500}, fiber.StatusBadGateway},
		{&detect.NetworkError{Err: errors.New("refused")}, fiber.StatusBadGateway},
		{&detect.NetworkError{Err: context.DeadlineExceeded}, fiber.StatusGatewayTimeout},
		{&detect.InvalidResponseError{Err: errors.New("bad json")}, fiber.StatusBadGateway},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
