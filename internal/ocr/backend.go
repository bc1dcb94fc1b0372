package ocr

import (
	"context"
	"time"
)

// Line is one recognized line of text, in reading order.
type Line struct {
	// Text is the recognized line content, exactly as the backend returned it.
	Text string `json:"text"`

	// Confidence is the backend's score for the line in the range 0.0 to 1.0,
	// or nil when the backend does not report one.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Trace is the debug record of a single Recognize call.
//
// It is returned alongside the result, never stored on the backend, so a
// trace always belongs to the call that produced it.
type Trace struct {
	// Backend is the name of the backend that handled the call.
	Backend string `json:"backend"`

	// Options are the request parameters as sent to the backend.
	Options map[string]string `json:"options"`

	// Success reports whether the backend returned a usable result.
	Success bool `json:"success"`

	// ErrorMessage is the backend's own error text, if any.
	ErrorMessage string `json:"error_message,omitempty"`

	// Raw is the backend response, pretty-printed where possible.
	Raw string `json:"raw,omitempty"`

	// Duration is the wall time spent in the backend.
	Duration time.Duration `json:"duration"`
}

// Recognition is the result of a Recognize call.
type Recognition struct {
	Lines []Line `json:"lines"`
	Trace Trace  `json:"trace"`
}

// Texts returns the text of every line, in order.
func (r *Recognition) Texts() []string {
	texts := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		texts[i] = l.Text
	}
	return texts
}

// Backend is an OCR engine the pipeline can send images to.
//
// Implementations must be safe to call sequentially with different images;
// the pipeline never calls Recognize concurrently.
type Backend interface {
	// Name returns the backend identifier used in configuration.
	Name() string

	// Recognize extracts the text lines of an encoded image. When the call
	// fails a non-nil Recognition may still be returned so the caller can
	// record its Trace.
	Recognize(ctx context.Context, image []byte, opts Options) (*Recognition, error)

	// MaxWidth is the widest image the backend accepts, in pixels.
	MaxWidth() int

	// MaxHeight is the tallest image the backend accepts, in pixels.
	MaxHeight() int

	// APIDelay is the pause the caller must observe after every Recognize
	// call, successful or not, to stay within the backend's rate limit.
	APIDelay() time.Duration
}
