// Package pipeline turns a folder of game screenshots into narrative text.
//
// A run discovers the screenshots, groups them into batches of at most
// MaxVerticalImages, stitches multi-image batches into one composite and
// checks it against the backend's size limits. The batch is then recognized
// and segmented with the marker engine.
//
// Batches are processed strictly in order, one OCR call at a time. After
// every call, successful or not, the pipeline waits for the backend's
// APIDelay. A failing batch is recorded in the Report with its ErrorKind and
// the run moves on to the next one.
//
// The Report renders the result file and, when enabled, a debug trace with
// the raw backend response and the decision taken for every line.
package pipeline
