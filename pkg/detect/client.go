// Package detect is the client for the remote pose-detection service.
package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-posecam/pkg/pose"
)

// Endpoint paths on the detection service.
const (
	DetectPath = "/detect"
	HealthPath = "/health"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 4 << 10

// Detector sends an encoded image for pose detection.
type Detector interface {
	Detect(ctx context.Context, img pose.EncodedImage) (*pose.Result, error)
}

// Client talks to the detection service over HTTP.
// It never retries and sets no timeout of its own.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Timeouts belong there or on the context.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "detect.client")
	return c
}

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	Success        bool              `json:"success"`
	Error          string            `json:"error"`
	PoseType       string            `json:"pose_type"`
	Landmarks      []pose.Landmark   `json:"landmarks"`
	Connections    []pose.Connection `json:"connections"`
	AnnotatedImage *string           `json:"annotated_image"`
}

// Detect posts img to the detection endpoint and returns the normalized result.
func (c *Client) Detect(ctx context.Context, img pose.EncodedImage) (*pose.Result, error) {
	start := time.Now()
	requestID := uuid.NewString()
	logger := c.logger.With("request_id", requestID)

	body, err := json.Marshal(detectRequest{Image: img.DataURL()})
	if err != nil {
		return nil, fmt.Errorf("detect: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+DetectPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("detect: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	logger.Debug("sending detection request", "mime", img.MIMEType(), "bytes", img.Len())

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("detection request failed", "error", err)
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &ServerError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
		logger.Warn("detection service error", "status", resp.StatusCode, "message", serr.Message)
		return nil, serr
	}

	var payload detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &InvalidResponseError{Err: fmt.Errorf("decode response: %w", err)}
	}

	if !payload.Success {
		msg := payload.Error
		if msg == "" {
			msg = DefaultFailureMessage
		}
		logger.Info("detection failed", "message", msg)
		return nil, &DetectionFailedError{Message: msg}
	}

	result := &pose.Result{
		Type:        pose.Type(payload.PoseType),
		Landmarks:   payload.Landmarks,
		Connections: payload.Connections,
	}
	if payload.AnnotatedImage != nil && *payload.AnnotatedImage != "" {
		annotated, err := pose.ParseDataURL(*payload.AnnotatedImage)
		if err != nil {
			return nil, &InvalidResponseError{Err: fmt.Errorf("annotated image: %w", err)}
		}
		result.Annotated = &annotated
	}
	if err := result.Normalize(); err != nil {
		return nil, &InvalidResponseError{Err: err}
	}

	logger.Info("pose detected",
		"pose", result.Type,
		"landmarks", len(result.Landmarks),
		"connections", len(result.Connections),
		"latency_ms", time.Since(start).Milliseconds())

	return result, nil
}

// Health is the detection service's health report.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Healthy reports whether the service says it is healthy.
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}

// Health queries the service health endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("detect: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ServerError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, &InvalidResponseError{Err: fmt.Errorf("decode health: %w", err)}
	}
	return &h, nil
}

// errorMessage extracts {"error": "..."} from a failed response, if present.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) != nil {
		return ""
	}
	return body.Error
}
