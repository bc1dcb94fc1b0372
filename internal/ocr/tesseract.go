package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

const (
	TesseractName = "tesseract"

	// TesseractMaxSide is the largest image edge Leptonica will allocate.
	TesseractMaxSide = 32767
)

// TesseractConfig holds configuration for the local Tesseract backend.
type TesseractConfig struct {
	// Language overrides the language derived from Options, using Tesseract
	// codes joined with '+', e.g. "chi_sim+eng".
	Language string

	// TessdataPrefix points at a tessdata directory. Empty uses the system
	// default.
	TessdataPrefix string
}

// TesseractClient implements Backend with a local Tesseract installation
// through gosseract.
type TesseractClient struct {
	language       string
	tessdataPrefix string
	logger         *slog.Logger
}

// NewTesseractClient creates a new Tesseract backend.
func NewTesseractClient(cfg TesseractConfig, logger *slog.Logger) *TesseractClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &TesseractClient{
		language:       cfg.Language,
		tessdataPrefix: cfg.TessdataPrefix,
		logger:         logger,
	}
}

// Name returns the backend identifier.
func (c *TesseractClient) Name() string { return TesseractName }

// MaxWidth returns the widest accepted image.
func (c *TesseractClient) MaxWidth() int { return TesseractMaxSide }

// MaxHeight returns the tallest accepted image.
func (c *TesseractClient) MaxHeight() int { return TesseractMaxSide }

// APIDelay is zero: a local engine has no quota.
func (c *TesseractClient) APIDelay() time.Duration { return 0 }

// Recognize runs Tesseract over image and returns one Line per text line.
//
// # Line Extraction
//
// Lines come from the RIL_TEXTLINE iterator level so each carries
// Tesseract's confidence (scaled to 0-1). If the iterator fails, which
// happens with some Tesseract builds, the plain text output is split on
// newlines instead and the lines carry no confidence.
func (c *TesseractClient) Recognize(ctx context.Context, image []byte, opts Options) (*Recognition, error) {
	start := time.Now()
	lang := c.tesseractLanguage(opts.Language)

	params := opts.Params()
	params["tesseract_language"] = lang
	trace := Trace{Backend: TesseractName, Options: params}

	fail := func(err error) (*Recognition, error) {
		trace.Duration = time.Since(start)
		trace.ErrorMessage = err.Error()
		return &Recognition{Trace: trace}, backendErr(TesseractName, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if c.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(c.tessdataPrefix); err != nil {
			return fail(fmt.Errorf("failed to set tessdata prefix: %w", err))
		}
	}
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return fail(fmt.Errorf("failed to set language: %w", err))
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return fail(fmt.Errorf("failed to set image: %w", err))
	}

	var lines []Line
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil {
		for _, box := range boxes {
			text := strings.TrimRight(box.Word, "\r\n")
			if strings.TrimSpace(text) == "" {
				continue
			}
			conf := box.Confidence / 100.0
			lines = append(lines, Line{Text: text, Confidence: &conf})
		}
	} else {
		c.logger.Debug("tesseract line boxes unavailable, falling back to text", "error", err)
		text, err := client.Text()
		if err != nil {
			return fail(fmt.Errorf("OCR failed: %w", err))
		}
		for _, l := range strings.Split(text, "\n") {
			if strings.TrimSpace(l) != "" {
				lines = append(lines, Line{Text: l})
			}
		}
	}

	raw, _ := json.Marshal(lines)
	trace.Raw = prettyJSON(raw)
	trace.Success = true
	trace.Duration = time.Since(start)
	return &Recognition{Lines: lines, Trace: trace}, nil
}

// tesseractLanguage maps a backend language code to Tesseract traineddata
// names unless an explicit language is configured.
func (c *TesseractClient) tesseractLanguage(code string) string {
	if c.language != "" {
		return c.language
	}
	switch code {
	case LangEnglish:
		return "eng"
	case LangJapanese:
		return "jpn"
	default:
		return "chi_sim+eng"
	}
}

// Verify interface
var _ Backend = (*TesseractClient)(nil)
