package imaging

import (
	"errors"
	"fmt"
)

// ErrNoImagesFound is returned by FindImages when a directory holds no
// supported image files. Callers treat it as a warning.
var ErrNoImagesFound = errors.New("no images found")

// ImageOpenError reports an image file that could not be read or decoded.
type ImageOpenError struct {
	Path string
	Err  error
}

func (e *ImageOpenError) Error() string {
	return fmt.Sprintf("failed to open image %s: %v", e.Path, e.Err)
}

func (e *ImageOpenError) Unwrap() error { return e.Err }

// ImageTooLargeError reports an image that exceeds the dimension limits of
// the OCR backend it was destined for.
type ImageTooLargeError struct {
	Width     int
	Height    int
	MaxWidth  int
	MaxHeight int
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("image size %dx%d exceeds backend limit %dx%d",
		e.Width, e.Height, e.MaxWidth, e.MaxHeight)
}
