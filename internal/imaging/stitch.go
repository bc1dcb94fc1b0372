package imaging

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
)

// Stitch stacks images top to bottom on a canvas filled with bg.
//
// The canvas is as wide as the widest image and as tall as all images
// combined. Every image is drawn over the canvas flush with the left edge, in
// input order; transparent source pixels show bg.
func Stitch(images []image.Image, bg color.Color) *image.NRGBA {
	width, height := 0, 0
	for _, img := range images {
		d := DimensionsOf(img)
		width = max(width, d.Width)
		height += d.Height
	}

	canvas := imaging.New(width, height, bg)
	y := 0
	for _, img := range images {
		canvas = imaging.Overlay(canvas, img, image.Pt(0, y), 1.0)
		y += img.Bounds().Dy()
	}
	return canvas
}

// StitchFiles opens the files at paths and stitches them with Stitch.
//
// # Errors
//
// Returns *ImageOpenError for the first file that cannot be decoded.
func StitchFiles(paths []string, bg color.Color) (*image.NRGBA, error) {
	images := make([]image.Image, 0, len(paths))
	for _, path := range paths {
		img, err := Open(path)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return Stitch(images, bg), nil
}

// SaveComposite writes img as PNG to dir/name, creating dir if needed, and
// returns the full path.
func SaveComposite(img image.Image, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create composite directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return "", fmt.Errorf("failed to save composite: %w", err)
	}
	return path, nil
}
