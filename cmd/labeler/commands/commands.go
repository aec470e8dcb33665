// Package commands provides the local runner commands for the image labeler.
package commands

import (
	"context"

	"github.com/pricofy/image-labeler/internal/domain"
)

// Labeler runs the labeling pipeline for one request.
type Labeler interface {
	Handle(ctx context.Context, req domain.Request) domain.Response
}
