package commands

import (
	"bytes"
	"fmt"
	"log/slog"

	_ "image/jpeg"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/termreport/internal/backend/commandstructure"
)

var jpegSignature = []byte{0xFF, 0xD8, 0xFF}

// AutoOrientCommand applies the EXIF orientation of JPEG uploads, which
// phone cameras record instead of rotating pixels. Other formats pass
// through unchanged.
type AutoOrientCommand struct {
	name      string
	maxPixels int
}

func NewAutoOrientCommand(params map[string]any) (commandstructure.Command, error) {
	limit, err := maxPixelsParam(params)
	if err != nil {
		return nil, err
	}
	return &AutoOrientCommand{name: "AutoOrientCommand", maxPixels: limit}, nil
}

func (c *AutoOrientCommand) Name() string {
	return c.name
}

func (c *AutoOrientCommand) Execute(imageData []byte) ([]byte, error) {
	if !bytes.HasPrefix(imageData, jpegSignature) {
		return imageData, nil
	}

	if err := checkPixelLimit(imageData, c.maxPixels); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode JPEG: %w", err)
	}
	slog.Debug("AutoOrientCommand: applied EXIF orientation",
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return encodePNG(img)
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("AutoOrientCommand", NewAutoOrientCommand); err != nil {
		panic(fmt.Sprintf("failed to register AutoOrientCommand: %v", err))
	}
}
