package ocr

import (
	"errors"
	"fmt"
)

// ErrEmptyResult is wrapped by BackendError when a backend answers without
// any text.
var ErrEmptyResult = errors.New("recognition returned no text")

// BackendError reports a failed recognition: a transport failure, a service
// error or a response that could not be used.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s OCR failed: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func backendErr(backend string, err error) error {
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Backend: backend, Err: err}
}
