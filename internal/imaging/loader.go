package imaging

import (
	"image"
	"os"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp" // Register BMP format decoder
)

// Dimensions is the pixel size of an image.
type Dimensions struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// Open decodes the image at path.
//
// EXIF orientation is applied, so phone screenshots stored rotated come back
// upright.
//
// # Errors
//
// Any failure to read or decode the file is returned as *ImageOpenError.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ImageOpenError{Path: path, Err: err}
	}
	return img, nil
}

// DimensionsOf returns the width and height of img.
func DimensionsOf(img image.Image) Dimensions {
	b := img.Bounds()
	return Dimensions{Width: b.Dx(), Height: b.Dy()}
}

// FileDimensions reads the pixel size stored in the header of the image at
// path without decoding it. No EXIF orientation is applied, so the result
// describes the bytes as they would be uploaded.
func FileDimensions(path string) (Dimensions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dimensions{}, &ImageOpenError{Path: path, Err: err}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Dimensions{}, &ImageOpenError{Path: path, Err: err}
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
