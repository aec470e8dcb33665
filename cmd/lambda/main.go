// Package main is the entry point for the image labeler Lambda function.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"go.uber.org/zap"

	"github.com/pricofy/image-labeler/internal/app"
	"github.com/pricofy/image-labeler/internal/config"
	"github.com/pricofy/image-labeler/internal/domain"
)

// imageURLParam is the query string parameter carrying the image URL.
const imageURLParam = "imageUrl"

// labeler handles one pipeline request.
type labeler interface {
	Handle(ctx context.Context, req domain.Request) domain.Response
}

// function holds everything built once per cold start.
type function struct {
	labeler labeler
	warmer  *warmer
	logger  *zap.Logger
	flush   func(context.Context)
}

func main() {
	ctx := context.Background()

	cfg, dotenv, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	if dotenv {
		a.Logger.Debug("loaded .env file")
	}

	fn := &function{
		labeler: a.Handler,
		warmer:  newWarmer(lambdasdk.NewFromConfig(a.AWS), a.Logger),
		logger:  a.Logger,
		flush:   a.Flush,
	}
	lambda.Start(fn.handleRequest)
}

func (fn *function) handleRequest(ctx context.Context, event json.RawMessage) (interface{}, error) {
	if fn.flush != nil {
		defer fn.flush(ctx)
	}

	// Warmup detection (MUST be first - before any other processing)
	if warmup, ok := IsWarmupEvent(event); ok {
		return fn.warmer.Handle(ctx, warmup)
	}

	var req events.APIGatewayProxyRequest
	if err := json.Unmarshal(event, &req); err != nil {
		fn.logger.Error("failed to parse event", zap.Error(err))
		return toProxyResponse(domain.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       domain.InternalServerErrorBody,
		}), nil
	}

	resp := fn.labeler.Handle(ctx, domain.Request{ImageURL: req.QueryStringParameters[imageURLParam]})
	return toProxyResponse(resp), nil
}

func toProxyResponse(resp domain.Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
		Body:       resp.Body,
	}
}
