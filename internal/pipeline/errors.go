package pipeline

import (
	"errors"

	"github.com/ironsheep/story-ocr/internal/imaging"
	"github.com/ironsheep/story-ocr/internal/ocr"
)

// ErrorKind classifies a batch failure for the report.
type ErrorKind string

const (
	KindImageOpen     ErrorKind = "ImageOpenError"
	KindImageTooLarge ErrorKind = "ImageTooLargeError"
	KindOCRBackend    ErrorKind = "OCRBackendError"
	KindNoImages      ErrorKind = "NoImagesFoundWarning"

	// KindProcessing covers local failures outside the four kinds above,
	// such as a composite that cannot be written to or read back from the
	// temp directory. The batch is counted as failed like any other.
	KindProcessing ErrorKind = "ProcessingError"
)

// Classify maps err to its ErrorKind. Errors of no known kind, such as a
// composite that could not be written to the temp directory, are
// KindProcessing.
func Classify(err error) ErrorKind {
	var (
		openErr    *imaging.ImageOpenError
		tooLarge   *imaging.ImageTooLargeError
		backendErr *ocr.BackendError
	)
	switch {
	case errors.As(err, &tooLarge):
		return KindImageTooLarge
	case errors.As(err, &openErr):
		return KindImageOpen
	case errors.As(err, &backendErr):
		return KindOCRBackend
	case errors.Is(err, imaging.ErrNoImagesFound):
		return KindNoImages
	default:
		return KindProcessing
	}
}
