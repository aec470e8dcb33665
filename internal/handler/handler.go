// Package handler provides the request handler for the image labeler.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pricofy/image-labeler/internal/domain"
	"github.com/pricofy/image-labeler/internal/observability"
	"github.com/pricofy/image-labeler/internal/report"
)

// Fetcher downloads the image behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}

// Preparer adapts fetched image bytes for the detector.
type Preparer interface {
	Prepare(data []byte) ([]byte, error)
}

// Detector returns the labels of an image that pass the confidence filter.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]domain.Label, error)
}

// Translator translates label names, one result per name.
type Translator interface {
	Translate(ctx context.Context, names []string) ([]string, error)
}

// Deps are the collaborators a Handler needs for its whole lifetime.
type Deps struct {
	Fetcher    Fetcher
	Preparer   Preparer // optional
	Detector   Detector
	Translator Translator
	Logger     *zap.Logger
}

// Handler runs the fetch, detect, translate and format pipeline.
// It holds no per-request state and is safe for concurrent use.
type Handler struct {
	fetcher    Fetcher
	preparer   Preparer
	detector   Detector
	translator Translator
	logger     *zap.Logger
}

// New creates a Handler. Fetcher, Detector and Translator are required.
func New(deps Deps) (*Handler, error) {
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if deps.Detector == nil {
		return nil, fmt.Errorf("detector is required")
	}
	if deps.Translator == nil {
		return nil, fmt.Errorf("translator is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		fetcher:    deps.Fetcher,
		preparer:   deps.Preparer,
		detector:   deps.Detector,
		translator: deps.Translator,
		logger:     logger,
	}, nil
}

// Handle labels the image at req.ImageURL and returns the Portuguese report.
// Every failure, including a panic, is logged and answered with a bare 500.
func (h *Handler) Handle(ctx context.Context, req domain.Request) (resp domain.Response) {
	ctx, span := observability.StartSpan(ctx, "Handle")
	logger := observability.WithTrace(ctx, h.logger).With(
		zap.String("request_id", requestID(ctx)),
		zap.String("image_url", redactURL(req.ImageURL)),
	)
	start := time.Now()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		observability.EndSpan(span, err)

		if err != nil {
			logger.Error("failed to label image", zap.Error(err), zap.Duration("latency", time.Since(start)))
			resp = domain.Response{
				StatusCode: http.StatusInternalServerError,
				Body:       domain.InternalServerErrorBody,
			}
			return
		}
		logger.Info("image labeled", zap.Duration("latency", time.Since(start)))
	}()

	var body string
	body, err = h.run(ctx, logger, req)
	if err != nil {
		return resp
	}
	return domain.Response{StatusCode: http.StatusOK, Body: body}
}

// run executes the pipeline stages in order, stopping at the first failure.
func (h *Handler) run(ctx context.Context, logger *zap.Logger, req domain.Request) (string, error) {
	image, err := h.fetch(ctx, req.ImageURL)
	if err != nil {
		return "", domain.NewStageError(domain.StageFetch, err)
	}

	labels, err := h.detect(ctx, image)
	if err != nil {
		return "", domain.NewStageError(domain.StageDetect, err)
	}
	logger.Debug("labels detected", zap.Int("count", len(labels)))

	names := report.Names(labels)
	if len(names) == 0 {
		return "", nil
	}

	translated, err := h.translate(ctx, names)
	if err != nil {
		return "", domain.NewStageError(domain.StageTranslate, err)
	}

	body, err := report.Format(labels, translated)
	if err != nil {
		return "", domain.NewStageError(domain.StageFormat, err)
	}
	return body, nil
}

func (h *Handler) fetch(ctx context.Context, imageURL string) (_ []byte, err error) {
	ctx, span := observability.StartSpan(ctx, "FetchImage")
	defer func() { observability.EndSpan(span, err) }()

	image, err := h.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("image.bytes", len(image)))

	if h.preparer != nil {
		image, err = h.preparer.Prepare(image)
		if err != nil {
			return nil, err
		}
	}
	return image, nil
}

func (h *Handler) detect(ctx context.Context, image []byte) (_ []domain.Label, err error) {
	ctx, span := observability.StartSpan(ctx, "DetectLabels")
	defer func() { observability.EndSpan(span, err) }()

	labels, err := h.detector.Detect(ctx, image)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("labels.count", len(labels)))
	return labels, nil
}

func (h *Handler) translate(ctx context.Context, names []string) (_ []string, err error) {
	ctx, span := observability.StartSpan(ctx, "TranslateLabels")
	defer func() { observability.EndSpan(span, err) }()

	return h.translator.Translate(ctx, names)
}

// requestID returns the Lambda request ID, or a fresh one outside Lambda.
func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}

// redactURL keeps the scheme, host and path of raw. Query strings and
// fragments can carry presigned credentials and never reach the logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String()
}
