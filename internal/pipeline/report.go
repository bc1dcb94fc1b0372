package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/moby/sys/atomicwriter"

	"github.com/ironsheep/story-ocr/internal/fonts"
	"github.com/ironsheep/story-ocr/internal/ocr"
	"github.com/ironsheep/story-ocr/internal/segment"
)

// BatchResult is the outcome of one batch: either extracted text or an
// error.
type BatchResult struct {
	ID    string   `json:"id"`
	Index int      `json:"index"`
	Files []string `json:"files"`

	// Text is the segmented narrative text. It may be empty on success when
	// the batch held no start marker.
	Text string `json:"text"`

	// Err is nil for successful batches.
	Err  error     `json:"-"`
	Kind ErrorKind `json:"kind,omitempty"`

	// Flagged is set when Text contains DashSignature in general mode.
	Flagged bool `json:"flagged,omitempty"`

	// Recognition is the backend response, including its trace. It may be
	// nil when the batch failed before OCR.
	Recognition *ocr.Recognition `json:"recognition,omitempty"`

	// Lines holds the segmentation decisions, aligned with
	// Recognition.Lines. Empty for failed batches.
	Lines []segment.LineDecision `json:"lines,omitempty"`
}

// OK reports whether the batch succeeded.
func (r BatchResult) OK() bool { return r.Err == nil }

// Message is the line written to the result file for a failed batch.
func (r BatchResult) Message() string {
	if r.Err == nil {
		return ""
	}
	return fmt.Sprintf("[%s] %s: %v", r.Kind, r.ID, r.Err)
}

// Report aggregates the results of a run and renders the output files.
//
// Batches are added in processing order by a single goroutine; Report does
// no locking.
type Report struct {
	RunID      string
	Started    time.Time
	InputDir   string
	ImageCount int
	Backend    string
	Options    ocr.Options
	Fonts      fonts.Detection

	// Debug enables the debug trace file.
	Debug bool

	results   []BatchResult
	warnings  []string
	succeeded int
	failed    int
	flagged   []string
}

// Add records a batch result and updates the counters.
func (r *Report) Add(res BatchResult) {
	r.results = append(r.results, res)
	if !res.OK() {
		r.failed++
		return
	}
	r.succeeded++
	if res.Flagged {
		r.flagged = append(r.flagged, res.ID)
	}
}

// Warn records a non-fatal, run-level warning.
func (r *Report) Warn(msg string) {
	r.warnings = append(r.warnings, msg)
}

// Results returns the batch results in processing order.
func (r *Report) Results() []BatchResult { return r.results }

// Warnings returns the run-level warnings.
func (r *Report) Warnings() []string { return r.warnings }

// Succeeded returns the number of successful batches.
func (r *Report) Succeeded() int { return r.succeeded }

// Failed returns the number of failed batches.
func (r *Report) Failed() int { return r.failed }

// Flagged returns the IDs of batches with a suspected dash misreading.
func (r *Report) Flagged() []string { return r.flagged }

// RenderResult renders the primary result file: one block per batch (the
// text, or an error line), then statistics, the manual review list and the
// font hint. Error lines read "[Kind] id: message", where Kind is one of
// ImageOpenError, ImageTooLargeError, OCRBackendError or ProcessingError.
func (r *Report) RenderResult() []byte {
	var b strings.Builder

	for _, w := range r.warnings {
		b.WriteString(w)
		b.WriteByte('\n')
	}
	for _, res := range r.results {
		if res.OK() {
			b.WriteString(res.Text)
		} else {
			b.WriteString(res.Message())
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\nProcessed: %d succeeded, %d failed\n", r.succeeded, r.failed)

	if len(r.flagged) > 0 {
		fmt.Fprintf(&b, "Note: %d batch(es) contain a suspected dash misrecognition (%s):\n", len(r.flagged), DashSignature)
		for _, id := range r.flagged {
			fmt.Fprintf(&b, "      - %s\n", id)
		}
		b.WriteString("Please review these passages manually; the dash may have been read as the character 一.\n")
	}

	b.WriteString("\n" + r.Fonts.Hint() + "\n")
	return []byte(b.String())
}

// RenderDebug renders the debug trace: a run header followed by one entry
// per batch with the request options, the raw response and a decision per
// recognized line.
func (r *Report) RenderDebug() []byte {
	var b strings.Builder

	b.WriteString("=== OCR debug trace ===\n")
	fmt.Fprintf(&b, "Run ID: %s\n", r.RunID)
	fmt.Fprintf(&b, "Time: %s\n", r.Started.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Input: %s\n", r.InputDir)
	fmt.Fprintf(&b, "Images: %d\n", r.ImageCount)
	fmt.Fprintf(&b, "Batches: %d\n", len(r.results))
	fmt.Fprintf(&b, "Succeeded: %d\n", r.succeeded)
	fmt.Fprintf(&b, "Failed: %d\n", r.failed)
	fmt.Fprintf(&b, "Backend: %s\n", r.Backend)
	fmt.Fprintf(&b, "Enhanced font: %s\n", yesNo(r.Fonts.Enhanced))
	if r.Fonts.Enhanced {
		fmt.Fprintf(&b, "Font path: %s\n", r.Fonts.Selected.Path)
	}
	for _, w := range r.warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}
	b.WriteByte('\n')

	for _, res := range r.results {
		r.writeDebugEntry(&b, res)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func (r *Report) writeDebugEntry(b *strings.Builder, res BatchResult) {
	fmt.Fprintf(b, "=== Batch %s ===\n", res.ID)
	fmt.Fprintf(b, "Files: %s\n", strings.Join(res.Files, ", "))
	fmt.Fprintf(b, "Recognition mode: %s\n", r.Options.Mode())

	if res.Recognition == nil {
		fmt.Fprintf(b, "Status: not sent to OCR\n")
		fmt.Fprintf(b, "Error: %s\n", res.Message())
		return
	}

	trace := res.Recognition.Trace
	fmt.Fprintf(b, "Backend: %s\n", trace.Backend)
	if opts, err := json.Marshal(trace.Options); err == nil {
		fmt.Fprintf(b, "Options: %s\n", opts)
	}
	fmt.Fprintf(b, "Recognized text: %s\n", res.Text)
	if trace.Success {
		fmt.Fprintf(b, "API status: success\n")
	} else {
		fmt.Fprintf(b, "API status: failure\n")
	}
	if trace.ErrorMessage != "" {
		fmt.Fprintf(b, "Error message: %s\n", trace.ErrorMessage)
	}
	if !res.OK() {
		fmt.Fprintf(b, "Error: %s\n", res.Message())
	}
	fmt.Fprintf(b, "Duration: %s\n", trace.Duration.Round(time.Millisecond))
	if trace.Raw != "" {
		fmt.Fprintf(b, "Raw result:\n%s\n", trace.Raw)
	}

	if len(res.Recognition.Lines) == 0 {
		return
	}
	b.WriteString("Lines:\n")
	for i, line := range res.Recognition.Lines {
		fmt.Fprintf(b, "  Line %d: content=%q", i+1, line.Text)
		if line.Confidence != nil {
			fmt.Fprintf(b, " confidence=%s", strconv.FormatFloat(*line.Confidence, 'f', -1, 64))
		}
		if i < len(res.Lines) {
			fmt.Fprintf(b, " -> %s", res.Lines[i].Annotation)
		}
		b.WriteByte('\n')
	}
}

// Save writes the result file and, when Debug is set, the debug trace.
// Each file is replaced atomically, so a failed write never leaves a
// truncated file behind.
func (r *Report) Save(resultPath, debugPath string) error {
	if err := atomicwriter.WriteFile(resultPath, r.RenderResult(), 0o644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	if !r.Debug {
		return nil
	}
	if err := atomicwriter.WriteFile(debugPath, r.RenderDebug(), 0o644); err != nil {
		return fmt.Errorf("failed to write debug file: %w", err)
	}
	return nil
}

// OutputPaths returns the default result and debug file paths for
// inputDir: <name>.txt and <name>_ocr_debug.txt in its parent directory.
func OutputPaths(inputDir string) (result, debug string, err error) {
	abs, err := filepath.Abs(inputDir)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve input directory: %w", err)
	}
	parent, name := filepath.Dir(abs), filepath.Base(abs)
	if name == string(os.PathSeparator) || name == "." {
		name = "story-ocr"
	}
	return filepath.Join(parent, name+".txt"), filepath.Join(parent, name+"_ocr_debug.txt"), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
