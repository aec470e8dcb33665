// Package detector labels images with Amazon Rekognition.
package detector

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/pricofy/image-labeler/internal/config"
	"github.com/pricofy/image-labeler/internal/domain"
)

// API is the subset of the Rekognition client used by the detector.
type API interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Detector detects labels and keeps the confident ones.
type Detector struct {
	client        API
	minConfidence float64
	maxLabels     int32
}

// New creates a Detector backed by client.
func New(client API, cfg config.DetectionConfig) *Detector {
	return &Detector{
		client:        client,
		minConfidence: cfg.MinConfidence,
		maxLabels:     cfg.MaxLabels,
	}
}

// Detect returns the labels with confidence strictly above the threshold,
// in the order Rekognition returned them.
func (d *Detector) Detect(ctx context.Context, image []byte) ([]domain.Label, error) {
	input := &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MinConfidence: aws.Float32(float32(d.minConfidence)),
	}
	// Without a cap Rekognition returns every label above MinConfidence.
	if d.maxLabels > 0 {
		input.MaxLabels = aws.Int32(d.maxLabels)
	}

	out, err := d.client.DetectLabels(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to detect labels: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("empty DetectLabels response")
	}

	labels := make([]domain.Label, 0, len(out.Labels))
	for i, l := range out.Labels {
		if l.Name == nil || l.Confidence == nil {
			return nil, fmt.Errorf("malformed label at index %d", i)
		}
		confidence := float64(*l.Confidence)
		if confidence < 0 || confidence > 100 {
			return nil, fmt.Errorf("label %q has confidence %v outside [0, 100]", *l.Name, confidence)
		}
		labels = append(labels, domain.Label{Name: *l.Name, Confidence: confidence})
	}

	return FilterLabels(labels, d.minConfidence), nil
}

// FilterLabels keeps labels whose confidence is strictly greater than threshold.
func FilterLabels(labels []domain.Label, threshold float64) []domain.Label {
	kept := make([]domain.Label, 0, len(labels))
	for _, l := range labels {
		if l.Confidence > threshold {
			kept = append(kept, l)
		}
	}
	return kept
}
