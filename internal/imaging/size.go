package imaging

import "image"

// CheckSize rejects dimensions exceeding maxWidth or maxHeight.
//
// A limit of zero or less means the backend declares no limit on that axis.
// The returned error is always *ImageTooLargeError so callers can report the
// offending size together with the limits.
func CheckSize(d Dimensions, maxWidth, maxHeight int) error {
	tooWide := maxWidth > 0 && d.Width > maxWidth
	tooTall := maxHeight > 0 && d.Height > maxHeight
	if !tooWide && !tooTall {
		return nil
	}
	return &ImageTooLargeError{
		Width:     d.Width,
		Height:    d.Height,
		MaxWidth:  maxWidth,
		MaxHeight: maxHeight,
	}
}

// CheckImageSize is CheckSize applied to the bounds of img.
func CheckImageSize(img image.Image, maxWidth, maxHeight int) error {
	return CheckSize(DimensionsOf(img), maxWidth, maxHeight)
}
