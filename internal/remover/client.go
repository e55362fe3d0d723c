package remover

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// Config holds the external removal service configuration
type Config struct {
	Endpoint       string
	RequestTimeout time.Duration
}

// HTTPRemover calls a rembg-style HTTP service: the image is posted as a
// multipart form and the response body is the processed PNG.
type HTTPRemover struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPRemover creates a client for the background-removal service
func NewHTTPRemover(cfg *Config, logger *slog.Logger) *HTTPRemover {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &HTTPRemover{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Remove posts the image to the removal service and returns the PNG bytes
func (r *HTTPRemover) Remove(ctx context.Context, filename string, image []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "image/png")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fall through to read the result
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: service rejected image (status %d): %s", ErrInvalidImage, resp.StatusCode, bytes.TrimSpace(msg))
	default:
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrServiceUnavailable, err)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("%w: empty response body", ErrServiceUnavailable)
	}

	r.logger.Debug("Background removal completed",
		slog.String("filename", filename),
		slog.Int("input_bytes", len(image)),
		slog.Int("output_bytes", len(result)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}
