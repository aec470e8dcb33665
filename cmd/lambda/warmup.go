package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"go.uber.org/zap"
)

const (
	// WarmupSource identifies scheduled warmup events
	WarmupSource = "warmup"

	// WarmupDelay keeps this instance busy long enough for the
	// self-invocations to land on other instances
	WarmupDelay = 75 * time.Millisecond

	// MaxWarmupConcurrency caps self-invocations per warmup event
	MaxWarmupConcurrency = 50

	// maxInFlightInvokes caps concurrent Invoke calls during a fan-out
	maxInFlightInvokes = 10
)

// WarmupEvent is the scheduled event payload that keeps instances warm.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse is returned for warmup events.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// invoker is the subset of the Lambda client used for self-invocation.
type invoker interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

type warmer struct {
	client       invoker
	functionName string
	delay        time.Duration
	logger       *zap.Logger
}

func newWarmer(client invoker, logger *zap.Logger) *warmer {
	return &warmer{
		client:       client,
		functionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		delay:        WarmupDelay,
		logger:       logger,
	}
}

// IsWarmupEvent checks if the event is a warmup event rather than an
// API Gateway request.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var raw struct {
		Source      string   `json:"source"`
		Concurrency *float64 `json:"concurrency"`
	}
	if err := json.Unmarshal(event, &raw); err != nil {
		return nil, false
	}
	if raw.Source != WarmupSource {
		return nil, false
	}

	warmup := &WarmupEvent{Source: raw.Source}
	if raw.Concurrency != nil && *raw.Concurrency > 0 {
		warmup.Concurrency = int(*raw.Concurrency)
	}
	if warmup.Concurrency > MaxWarmupConcurrency {
		warmup.Concurrency = MaxWarmupConcurrency
	}
	return warmup, true
}

// Handle answers a warmup event, fanning out to more instances when asked.
func (w *warmer) Handle(ctx context.Context, warmup *WarmupEvent) (interface{}, error) {
	instancesWarmed := 1 // This instance counts as 1

	if warmup.Concurrency > 0 {
		warmed, err := w.selfInvoke(ctx, warmup.Concurrency)
		if err != nil {
			w.logger.Warn("warmup self-invoke failed",
				zap.Error(err),
				zap.Int("concurrency", warmup.Concurrency),
				zap.Int("invoked", warmed),
			)
		}
		instancesWarmed += warmed
	}

	time.Sleep(w.delay)

	w.logger.Debug("warmup handled", zap.Int("instances_warmed", instancesWarmed))
	return map[string]interface{}{
		"statusCode": 200,
		"body": WarmupResponse{
			Status:          "warm",
			InstancesWarmed: instancesWarmed,
		},
	}, nil
}

// selfInvoke asynchronously invokes this function count times, at most
// maxInFlightInvokes at once, and reports how many invocations were
// accepted. Child payloads carry concurrency 0 so they do not fan out again.
func (w *warmer) selfInvoke(ctx context.Context, count int) (int, error) {
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return 0, err
	}

	sem := make(chan struct{}, maxInFlightInvokes)
	results := make(chan error, count)

	for i := 0; i < count; i++ {
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			_, err := w.client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			results <- err
		}()
	}

	var errs []error
	for i := 0; i < count; i++ {
		if err := <-results; err != nil {
			errs = append(errs, err)
		}
	}
	return count - len(errs), errors.Join(errs...)
}
