package segment

import (
	"log/slog"
	"strings"
)

// State is the recording state of the engine while it walks a batch.
type State int

const (
	// Idle means no paragraph is open; lines are skipped until a start marker.
	Idle State = iota
	// Recording means lines are being appended to the current paragraph.
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Annotation records what the engine did with a single line.
type Annotation string

const (
	AnnotateStart Annotation = "start"
	AnnotateStop  Annotation = "stop"
	AnnotateKeep  Annotation = "keep"
	AnnotateSkip  Annotation = "skip"
)

// LineDecision is the per-line outcome of a segmentation run, kept for the
// debug trace.
type LineDecision struct {
	Text       string     `json:"text"`
	Annotation Annotation `json:"annotation"`
	// Marker is the start or stop marker that matched, if any.
	Marker string `json:"marker,omitempty"`
}

// Result is the outcome of segmenting one batch of lines.
type Result struct {
	// Paragraphs in first-seen order, without duplicates.
	Paragraphs []string `json:"paragraphs"`

	// Text is Paragraphs joined with "\n" and trimmed.
	Text string `json:"text"`

	// Lines has one decision per input line, in input order.
	Lines []LineDecision `json:"lines"`
}

// Engine applies the marker state machine to recognized lines.
//
// An Engine holds no per-batch state; Run may be called for any number of
// batches and each call starts Idle with an empty paragraph.
type Engine struct {
	markers Markers
	logger  *slog.Logger
}

// NewEngine returns an engine for the given markers. A nil logger uses
// slog.Default().
func NewEngine(markers Markers, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{markers: markers, logger: logger}
}

// Markers returns the marker lists the engine was built with.
func (e *Engine) Markers() Markers {
	return e.markers
}

// Run segments the lines of a single batch.
func (e *Engine) Run(lines []string) Result {
	var (
		state      = Idle
		current    strings.Builder
		paragraphs []string
		seen       = make(map[string]bool)
		decisions  = make([]LineDecision, 0, len(lines))
	)

	flush := func() {
		p := current.String()
		current.Reset()
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paragraphs = append(paragraphs, p)
	}

	for i, line := range lines {
		d := LineDecision{Text: line, Annotation: AnnotateSkip}

		switch state {
		case Idle:
			if marker, ok := e.markers.MatchStart(line); ok {
				state = Recording
				current.Reset()
				d.Annotation = AnnotateStart
				d.Marker = marker
			}
		case Recording:
			if marker, ok := e.markers.MatchStop(line); ok {
				flush()
				state = Idle
				d.Annotation = AnnotateStop
				d.Marker = marker
			} else {
				current.WriteString(line)
				d.Annotation = AnnotateKeep
			}
		}

		e.logger.Debug("segment line",
			"index", i,
			"text", line,
			"annotation", string(d.Annotation),
			"state", state.String())
		decisions = append(decisions, d)
	}

	if state == Recording {
		flush()
	}

	return Result{
		Paragraphs: paragraphs,
		Text:       strings.TrimSpace(strings.Join(paragraphs, "\n")),
		Lines:      decisions,
	}
}
