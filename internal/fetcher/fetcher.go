// Package fetcher downloads the source image for labeling.
package fetcher

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pricofy/image-labeler/internal/config"
)

// Fetcher downloads images over HTTP.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	encoding string
	logger   *zap.Logger
}

// New creates a Fetcher from the fetch settings.
func New(cfg config.FetchConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			),
		},
		maxBytes: cfg.MaxBytes,
		encoding: cfg.Encoding,
		logger:   logger,
	}
}

// WithClient replaces the HTTP client, mostly for tests.
func (f *Fetcher) WithClient(client *http.Client) *Fetcher {
	f.client = client
	return f
}

// Fetch downloads imageURL and returns the decoded image bytes.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, fmt.Errorf("imageUrl is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", f.maxBytes)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	data, err := f.decode(body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("image fetched",
		zap.Int("bytes", len(data)),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Duration("latency", time.Since(start)),
	)
	return data, nil
}

// decode turns the response body into raw image bytes according to the
// configured encoding.
func (f *Fetcher) decode(body []byte) ([]byte, error) {
	switch f.encoding {
	case config.EncodingRaw:
		return body, nil
	case config.EncodingBase64:
		return decodeBase64(body)
	}

	if IsImage(body) {
		return body, nil
	}
	data, err := decodeBase64(body)
	if err != nil {
		return nil, fmt.Errorf("body is neither a recognized image nor base64: %w", err)
	}
	f.logger.Debug("image body was base64 encoded")
	return data, nil
}

// IsImage reports whether data sniffs as an image.
func IsImage(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "image/")
}

func decodeBase64(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	data := make([]byte, base64.StdEncoding.DecodedLen(len(trimmed)))
	n, err := base64.StdEncoding.Decode(data, trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	return data[:n], nil
}
