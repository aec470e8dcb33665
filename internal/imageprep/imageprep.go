// Package imageprep shrinks images that exceed the size Rekognition accepts
// as inline bytes.
package imageprep

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/pricofy/image-labeler/internal/config"
)

// MaxInlineBytes is the largest image Rekognition accepts in Image.Bytes.
const MaxInlineBytes = 5 * 1024 * 1024

// maxAttempts bounds how many times the image is scaled down further when
// a re-encoded image is still too large.
const maxAttempts = 4

// Preparer fits oversized images under a byte limit.
type Preparer struct {
	limit        int
	maxDimension int
	quality      int
}

// New creates a Preparer with the Rekognition inline limit.
func New(cfg config.ImageConfig) *Preparer {
	return &Preparer{
		limit:        MaxInlineBytes,
		maxDimension: cfg.MaxDimension,
		quality:      cfg.JPEGQuality,
	}
}

// WithLimit overrides the byte limit.
func (p *Preparer) WithLimit(limit int) *Preparer {
	p.limit = limit
	return p
}

// Prepare returns data unchanged when it is within the limit. Otherwise the
// image is decoded, scaled to fit and re-encoded as JPEG.
func (p *Preparer) Prepare(data []byte) ([]byte, error) {
	if len(data) <= p.limit {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode oversized image: %w", err)
	}

	// Fit never upscales, so start from the image's own longest side.
	bounds := img.Bounds()
	dim := min(p.maxDimension, max(bounds.Dx(), bounds.Dy()))
	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := p.encode(img, dim)
		if err != nil {
			return nil, err
		}
		if len(out) <= p.limit {
			return out, nil
		}
		dim = max(1, dim*3/4)
	}

	return nil, fmt.Errorf("image still exceeds %d bytes after resizing", p.limit)
}

func (p *Preparer) encode(img image.Image, dim int) ([]byte, error) {
	fitted := imaging.Fit(img, dim, dim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}
