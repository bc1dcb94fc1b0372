// Package ocr defines the OCR backend interface and its implementations.
//
// The pipeline talks to OCR engines only through Backend. A backend takes an
// encoded image and returns the recognized text as ordered lines, together
// with a Trace describing the request for the debug report. It also declares
// the largest image it accepts and the delay callers must observe between
// calls.
//
// # Backends
//
// The set of backends is fixed at compile time and selected by name with New:
//
//   - "baidu": Baidu AI Cloud OCR over HTTPS (general_basic, or
//     accurate_basic when Options.HighAccuracy is set). Needs an API key and
//     secret key; supports an offline test mode.
//   - "tesseract": a local Tesseract installation via gosseract.
//   - "stub": canned lines, for dry runs and tests.
//
// # Prerequisites
//
// The tesseract backend needs Tesseract and its language data installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-chi-sim
//   - macOS: brew install tesseract tesseract-lang
//
// # Error Handling
//
// Every failed Recognize call returns *BackendError. The Recognition returned
// alongside it, when non-nil, carries the Trace of the failed request.
package ocr
