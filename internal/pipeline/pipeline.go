package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/story-ocr/internal/fonts"
	"github.com/ironsheep/story-ocr/internal/imaging"
	"github.com/ironsheep/story-ocr/internal/ocr"
	"github.com/ironsheep/story-ocr/internal/segment"
)

// Settings are the per-run inputs of a Pipeline.
type Settings struct {
	// InputDir holds the screenshots.
	InputDir string

	// TempDir receives stitched composites while they are being recognized.
	TempDir string

	// MaxVerticalImages is the batch size K.
	MaxVerticalImages int

	// OutputDebug enables the debug trace file.
	OutputDebug bool

	// Background fills the composite canvas. Nil means white.
	Background color.Color

	// Options are passed to the backend on every call.
	Options ocr.Options

	// Fonts is the font detection result for the run.
	Fonts fonts.Detection
}

// Pipeline runs screenshots through discovery, batching, stitching, OCR and
// segmentation, one batch at a time.
type Pipeline struct {
	settings Settings
	backend  ocr.Backend
	engine   *segment.Engine
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration)
	now      func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSleep replaces the function used to wait out the backend's API delay.
func WithSleep(fn func(context.Context, time.Duration)) Option {
	return func(p *Pipeline) { p.sleep = fn }
}

// WithClock replaces time.Now for the run timestamp.
func WithClock(fn func() time.Time) Option {
	return func(p *Pipeline) { p.now = fn }
}

// New creates a pipeline for one backend and marker engine.
func New(settings Settings, backend ocr.Backend, engine *segment.Engine, opts ...Option) *Pipeline {
	if settings.Background == nil {
		settings.Background = color.White
	}
	if settings.TempDir == "" {
		settings.TempDir = os.TempDir()
	}
	p := &Pipeline{
		settings: settings,
		backend:  backend,
		engine:   engine,
		logger:   slog.Default(),
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes every batch of the input directory and returns the report.
//
// A failing batch is recorded and the run continues. An input directory
// without images yields a report with a warning and no batches. Run only
// returns an error when the directory itself cannot be read. When ctx is
// cancelled the remaining batches are skipped and the partial report is
// returned.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:    uuid.NewString(),
		Started:  p.now(),
		InputDir: p.settings.InputDir,
		Backend:  p.backend.Name(),
		Options:  p.settings.Options,
		Fonts:    p.settings.Fonts,
		Debug:    p.settings.OutputDebug,
	}
	logger := p.logger.With("run_id", report.RunID)

	names, err := imaging.FindImages(p.settings.InputDir)
	if errors.Is(err, imaging.ErrNoImagesFound) {
		msg := fmt.Sprintf("[%s] no images found in %s", KindNoImages, p.settings.InputDir)
		logger.Warn("no images found", "dir", p.settings.InputDir)
		report.Warn(msg)
		return report, nil
	}
	if err != nil {
		return nil, err
	}
	report.ImageCount = len(names)

	batches := imaging.GroupImages(p.settings.InputDir, names, p.settings.MaxVerticalImages)
	logger.Info("starting run",
		"images", len(names),
		"batches", len(batches),
		"backend", p.backend.Name(),
		"mode", p.settings.Options.Mode(),
		"enhanced_font", p.settings.Fonts.Enhanced)

	for _, batch := range batches {
		if ctx.Err() != nil {
			logger.Warn("run interrupted", "remaining", len(batches)-batch.Index)
			report.Warn(fmt.Sprintf("run interrupted: %d batch(es) not processed", len(batches)-batch.Index))
			break
		}
		res := p.processBatch(ctx, logger, batch)
		if res.OK() {
			logger.Info("batch done", "batch", res.ID, "chars", len([]rune(res.Text)), "flagged", res.Flagged)
		} else {
			logger.Warn("batch failed", "batch", res.ID, "kind", res.Kind, "error", res.Err)
		}
		report.Add(res)
	}

	logger.Info("run finished", "succeeded", report.Succeeded(), "failed", report.Failed())
	return report, nil
}

func (p *Pipeline) processBatch(ctx context.Context, logger *slog.Logger, batch imaging.Batch) BatchResult {
	res := BatchResult{ID: batch.ID(), Index: batch.Index, Files: batch.Names}
	fail := func(err error) BatchResult {
		res.Err = err
		res.Kind = Classify(err)
		return res
	}

	data, cleanup, err := p.prepare(batch)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	logger.Debug("sending batch to OCR", "batch", res.ID, "bytes", len(data))
	rec, err := p.backend.Recognize(ctx, data, p.settings.Options)
	p.sleep(ctx, p.backend.APIDelay())
	res.Recognition = rec
	if err != nil {
		var be *ocr.BackendError
		if !errors.As(err, &be) {
			err = &ocr.BackendError{Backend: p.backend.Name(), Err: err}
		}
		return fail(err)
	}
	if rec == nil || blank(rec.Texts()) {
		return fail(&ocr.BackendError{Backend: p.backend.Name(), Err: ocr.ErrEmptyResult})
	}

	seg := p.engine.Run(rec.Texts())
	res.Text = seg.Text
	res.Lines = seg.Lines
	res.Flagged = SuspectedDash(seg.Text, p.settings.Fonts.Enhanced)
	return res
}

// prepare returns the encoded bytes to send for batch and a cleanup func
// that removes any composite written to the temp directory. Images over the
// backend's limits are rejected here, before any OCR call.
func (p *Pipeline) prepare(batch imaging.Batch) ([]byte, func(), error) {
	noop := func() {}
	maxW, maxH := p.backend.MaxWidth(), p.backend.MaxHeight()

	if !batch.Stitched() {
		// The file is uploaded as stored, so its header size is what the
		// backend sees.
		path := batch.Paths()[0]
		if _, err := imaging.Open(path); err != nil {
			return nil, noop, err
		}
		dims, err := imaging.FileDimensions(path)
		if err != nil {
			return nil, noop, err
		}
		if err := imaging.CheckSize(dims, maxW, maxH); err != nil {
			return nil, noop, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, noop, &imaging.ImageOpenError{Path: path, Err: err}
		}
		return data, noop, nil
	}

	composite, err := imaging.StitchFiles(batch.Paths(), p.settings.Background)
	if err != nil {
		return nil, noop, err
	}
	if err := imaging.CheckImageSize(composite, maxW, maxH); err != nil {
		return nil, noop, err
	}

	path, err := imaging.SaveComposite(composite, p.settings.TempDir, batch.CompositeName())
	if err != nil {
		return nil, noop, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("failed to remove composite", "path", path, "error", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("failed to read composite %s: %w", path, err)
	}
	return data, cleanup, nil
}

func blank(texts []string) bool {
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
