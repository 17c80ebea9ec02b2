package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/jo-hoe/termreport/internal/backend/commandstructure"
	xdraw "golang.org/x/image/draw"
)

// PreviewScaleParams bounds the preview size; a nil dimension is unbounded
type PreviewScaleParams struct {
	MaxWidth  *int
	MaxHeight *int
	Upscale   bool
	MaxPixels int
}

// NewPreviewScaleParamsFromMap creates PreviewScaleParams from a generic map
func NewPreviewScaleParamsFromMap(params map[string]any) (*PreviewScaleParams, error) {
	_, hasHeight := params["height"]
	_, hasWidth := params["width"]
	if !hasHeight && !hasWidth {
		return nil, fmt.Errorf("at least one of 'height' or 'width' must be specified")
	}

	limit, err := maxPixelsParam(params)
	if err != nil {
		return nil, err
	}
	result := &PreviewScaleParams{
		Upscale:   commandstructure.GetBoolParam(params, "upscale", false),
		MaxPixels: limit,
	}
	if hasHeight {
		height := commandstructure.GetIntParam(params, "height", 0)
		if height <= 0 {
			return nil, fmt.Errorf("height must be positive, got %d", height)
		}
		result.MaxHeight = &height
	}
	if hasWidth {
		width := commandstructure.GetIntParam(params, "width", 0)
		if width <= 0 {
			return nil, fmt.Errorf("width must be positive, got %d", width)
		}
		result.MaxWidth = &width
	}
	return result, nil
}

// PreviewScaleCommand fits a PNG inside the configured bounds, keeping its
// aspect ratio
type PreviewScaleCommand struct {
	name   string
	params *PreviewScaleParams
}

func NewPreviewScaleCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewPreviewScaleParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &PreviewScaleCommand{
		name:   "PreviewScaleCommand",
		params: typedParams,
	}, nil
}

func (c *PreviewScaleCommand) Name() string {
	return c.name
}

func (c *PreviewScaleCommand) Execute(imageData []byte) ([]byte, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG image: %w", err)
	}
	if err := checkDimensions(float64(cfg.Width), float64(cfg.Height), c.params.MaxPixels); err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG image: %w", err)
	}

	bounds := img.Bounds()
	targetWidth, targetHeight := c.targetSize(bounds.Dx(), bounds.Dy())
	if targetWidth == bounds.Dx() && targetHeight == bounds.Dy() {
		slog.Debug("PreviewScaleCommand: image already within bounds; skipping scaling")
		return imageData, nil
	}

	slog.Debug("PreviewScaleCommand: scaling image",
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"target_width", targetWidth,
		"target_height", targetHeight)

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)

	return encodePNG(dst)
}

// targetSize returns the largest size within the bounds that keeps the
// aspect ratio. Images are only enlarged when Upscale is set.
func (c *PreviewScaleCommand) targetSize(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	scale := 0.0
	if c.params.MaxWidth != nil {
		scale = float64(*c.params.MaxWidth) / float64(width)
	}
	if c.params.MaxHeight != nil {
		hs := float64(*c.params.MaxHeight) / float64(height)
		if scale == 0 || hs < scale {
			scale = hs
		}
	}
	if scale >= 1 && !c.params.Upscale {
		return width, height
	}

	w := max(1, int(float64(width)*scale+0.5))
	h := max(1, int(float64(height)*scale+0.5))
	return w, h
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("PreviewScaleCommand", NewPreviewScaleCommand); err != nil {
		panic(fmt.Sprintf("failed to register PreviewScaleCommand: %v", err))
	}
}
