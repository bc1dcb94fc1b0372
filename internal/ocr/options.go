package ocr

import (
	"strconv"
	"strings"
)

// Language codes understood by the backends.
const (
	LangChineseEnglish = "CHN_ENG"
	LangEnglish        = "ENG"
	LangJapanese       = "JAP"
)

// Options control a single recognition request.
type Options struct {
	// Language is one of the Lang* codes.
	Language string

	// HighAccuracy selects the backend's slower, more precise mode. It is
	// turned on when an enhanced font is available for the target language.
	HighAccuracy bool

	DetectDirection bool
	DetectLanguage  bool
	Probability     bool
	Paragraph       bool
}

// DefaultOptions returns the options used for every batch: all detection
// features on, with the given language and accuracy.
func DefaultOptions(language string, highAccuracy bool) Options {
	if language == "" {
		language = LangChineseEnglish
	}
	return Options{
		Language:        language,
		HighAccuracy:    highAccuracy,
		DetectDirection: true,
		DetectLanguage:  true,
		Probability:     true,
		Paragraph:       true,
	}
}

// Params renders the options as request parameters. The same map is
// recorded in every Trace.
func (o Options) Params() map[string]string {
	p := map[string]string{
		"language_type":    o.Language,
		"detect_direction": strconv.FormatBool(o.DetectDirection),
		"detect_language":  strconv.FormatBool(o.DetectLanguage),
		"probability":      strconv.FormatBool(o.Probability),
		"paragraph":        strconv.FormatBool(o.Paragraph),
	}
	if o.HighAccuracy {
		p["accuracy"] = "high"
	}
	return p
}

// Mode is the human-readable recognition mode for reports.
func (o Options) Mode() string {
	if o.HighAccuracy {
		return "High precision"
	}
	return "General"
}

// LanguageCode maps a user-facing language setting (zh-cn, zh-tw, en,
// ja-jp) to a backend language code. Unknown and empty values map to
// Chinese-English.
func LanguageCode(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "en", "en-us", "en-gb":
		return LangEnglish
	case "ja", "ja-jp":
		return LangJapanese
	default:
		return LangChineseEnglish
	}
}
