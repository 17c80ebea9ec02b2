package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"

	"github.com/jo-hoe/termreport/internal/backend/commandstructure"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const defaultSvgFallbackSize = 256

// hasCorrectPngSignature checks whether the provided data begins with a valid PNG signature
func hasCorrectPngSignature(data []byte) bool {
	// PNG signature: 0x89 'P' 'N' 'G' 0x0D 0x0A 0x1A 0x0A
	if len(data) < 8 {
		return false
	}
	expected := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	return bytes.Equal(data[:8], expected)
}

// PngConverterCommand turns any supported upload (raster or SVG) into PNG
type PngConverterCommand struct {
	name              string
	svgFallbackWidth  int
	svgFallbackHeight int
	maxPixels         int
}

// NewPngConverterCommand creates a new PNG converter command. The optional
// svgFallbackWidth/svgFallbackHeight are used for SVGs without a viewBox;
// maxPixels caps the decoded or rasterised size.
func NewPngConverterCommand(params map[string]any) (commandstructure.Command, error) {
	w := commandstructure.GetIntParam(params, "svgFallbackWidth", defaultSvgFallbackSize)
	h := commandstructure.GetIntParam(params, "svgFallbackHeight", defaultSvgFallbackSize)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg fallback size must be positive, got %dx%d", w, h)
	}
	limit, err := maxPixelsParam(params)
	if err != nil {
		return nil, err
	}

	return &PngConverterCommand{
		name:              "PngConverterCommand",
		svgFallbackWidth:  w,
		svgFallbackHeight: h,
		maxPixels:         limit,
	}, nil
}

func (c *PngConverterCommand) Name() string {
	return c.name
}

func (c *PngConverterCommand) Execute(imageData []byte) ([]byte, error) {
	slog.Debug("PngConverterCommand: start", "input_size_bytes", len(imageData))

	// PNG input is kept as is once its header decodes
	if hasCorrectPngSignature(imageData) {
		cfg, err := png.DecodeConfig(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("failed to decode PNG image: %w", err)
		}
		if err := checkDimensions(float64(cfg.Width), float64(cfg.Height), c.maxPixels); err != nil {
			return nil, err
		}
		return imageData, nil
	}

	if isSVGData(imageData) {
		return c.convertSVG(imageData)
	}

	if err := checkPixelLimit(imageData, c.maxPixels); err != nil {
		slog.Warn("PngConverterCommand: rejected image header", "error", err)
		return nil, err
	}
	img, currentFormat, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		slog.Warn("PngConverterCommand: failed to decode image", "error", err)
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	slog.Debug("PngConverterCommand: decoded raster image",
		"current_format", currentFormat,
		"orig_width", img.Bounds().Dx(),
		"orig_height", img.Bounds().Dy())

	return encodePNG(img)
}

func (c *PngConverterCommand) convertSVG(imageData []byte) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w < 1 || h < 1 {
		slog.Debug("PngConverterCommand: SVG lacks a usable viewBox; using fallback",
			"width", c.svgFallbackWidth, "height", c.svgFallbackHeight)
		w, h = float64(c.svgFallbackWidth), float64(c.svgFallbackHeight)
	}
	if err := checkDimensions(w, h, c.maxPixels); err != nil {
		return nil, err
	}
	return renderSVGToPNG(icon, int(w), int(h))
}

// isSVGData performs a lightweight detection of SVG content from raw bytes.
func isSVGData(data []byte) bool {
	n := len(data)
	if n == 0 {
		return false
	}
	// Only inspect the first ~4KB for detection
	if n > 4096 {
		n = 4096
	}
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg"))
}

// renderSVGToPNG rasterises the icon onto a white canvas of the given size.
func renderSVGToPNG(icon *oksvg.SvgIcon, targetW, targetH int) ([]byte, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", targetW, targetH)
	}
	icon.SetTarget(0, 0, float64(targetW), float64(targetH))

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(targetW, targetH, dst, dst.Bounds())
	dasher := rasterx.NewDasher(targetW, targetH, scanner)
	icon.Draw(dasher, 1.0)

	return encodePNG(dst)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image to PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("PngConverterCommand", NewPngConverterCommand); err != nil {
		panic(fmt.Sprintf("failed to register PngConverterCommand: %v", err))
	}
}
