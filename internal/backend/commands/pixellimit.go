package commands

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/jo-hoe/termreport/internal/backend/commandstructure"
)

// defaultMaxPixels bounds decoded images to roughly 100 MB of RGBA.
const defaultMaxPixels = 25_000_000

// ErrImageTooLarge is returned before decoding an image whose header
// declares more pixels than the command allows.
var ErrImageTooLarge = errors.New("image dimensions exceed the pixel limit")

func maxPixelsParam(params map[string]any) (int, error) {
	limit := commandstructure.GetIntParam(params, "maxPixels", defaultMaxPixels)
	if limit <= 0 {
		return 0, fmt.Errorf("maxPixels must be positive, got %d", limit)
	}
	return limit, nil
}

// checkDimensions uses floats so oversized SVG viewBoxes cannot overflow.
func checkDimensions(width, height float64, limit int) error {
	if width*height > float64(limit) {
		return fmt.Errorf("%w: %.0fx%.0f is more than %d pixels", ErrImageTooLarge, width, height, limit)
	}
	return nil
}

// checkPixelLimit reads only the image header.
func checkPixelLimit(data []byte, limit int) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to read image header: %w", err)
	}
	return checkDimensions(float64(cfg.Width), float64(cfg.Height), limit)
}
