// Package app wires the image labeler together from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/pricofy/image-labeler/internal/config"
	"github.com/pricofy/image-labeler/internal/detector"
	"github.com/pricofy/image-labeler/internal/fetcher"
	"github.com/pricofy/image-labeler/internal/handler"
	"github.com/pricofy/image-labeler/internal/imageprep"
	"github.com/pricofy/image-labeler/internal/observability"
	"github.com/pricofy/image-labeler/internal/translator"
)

// App is the fully wired labeler plus the resources it owns.
type App struct {
	Handler *handler.Handler
	Logger  *zap.Logger
	AWS     aws.Config

	tracer *sdktrace.TracerProvider
}

// Build constructs the logger, tracing, AWS clients and handler.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.IsDev())
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("service", cfg.ServiceName), zap.String("environment", cfg.Environment))

	tp, err := observability.SetupTracing(ctx, cfg.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	h, err := handler.New(handler.Deps{
		Fetcher:    fetcher.New(cfg.Fetch, logger),
		Preparer:   imageprep.New(cfg.Image),
		Detector:   detector.New(rekognition.NewFromConfig(awsCfg), cfg.Detection),
		Translator: translator.New(translate.NewFromConfig(awsCfg), cfg.Translation),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("image labeler initialized",
		zap.String("source_lang", cfg.Translation.SourceLang),
		zap.String("target_lang", cfg.Translation.TargetLang),
		zap.String("translate_mode", cfg.Translation.Mode),
		zap.String("image_encoding", cfg.Fetch.Encoding),
		zap.Float64("min_confidence", cfg.Detection.MinConfidence),
		zap.Bool("tracing", tp != nil),
	)

	return &App{Handler: h, Logger: logger, AWS: awsCfg, tracer: tp}, nil
}

// Flush exports pending spans and log entries. Lambda freezes the process
// between invocations, so this runs after every request.
func (a *App) Flush(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.ForceFlush(ctx); err != nil {
			a.Logger.Warn("failed to flush traces", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}

// Close shuts down tracing and flushes the logger.
func (a *App) Close(ctx context.Context) {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.Logger.Warn("failed to shut down tracer provider", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
