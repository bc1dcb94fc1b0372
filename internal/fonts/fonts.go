// Package fonts detects game font files that enable high-accuracy OCR.
//
// Players can copy the font a game renders its text with next to their
// screenshot folder. When exactly one supported font is found the pipeline
// switches the backend to its high-accuracy mode, uses the font's language
// and skips the suspected-dash check.
package fonts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLanguage is used when the configured language is "default" and no
// font decides otherwise.
const DefaultLanguage = "zh-cn"

// Font is a supported font file.
type Font struct {
	// File is the expected file name, e.g. "zh-cn.ttf".
	File string `json:"file"`

	// Language is the ocr_language value the font implies.
	Language string `json:"language"`

	// Description names the script for user-facing hints.
	Description string `json:"description"`
}

// Supported lists the recognised font files in lookup order.
var Supported = []Font{
	{File: "zh-cn.ttf", Language: "zh-cn", Description: "Simplified Chinese"},
	{File: "zh-tw.ttf", Language: "zh-tw", Description: "Traditional Chinese"},
	{File: "ja-jp.ttf", Language: "ja-jp", Description: "Japanese"},
}

// Found is a supported font located on disk.
type Found struct {
	Font
	Path string `json:"path"`
}

// Detection is the outcome of Detect.
type Detection struct {
	// Enhanced is true when exactly one usable font was selected.
	Enhanced bool `json:"enhanced"`

	// Selected is the font in use; only meaningful when Enhanced is set.
	Selected Found `json:"selected"`

	// Found lists every supported font seen in the directory.
	Found []Found `json:"found"`

	// Language is the resolved ocr_language: the configured one, the
	// selected font's, or DefaultLanguage.
	Language string `json:"language"`
}

// Detect looks for supported fonts in dir.
//
// With an explicit language only that language's font is considered. With
// "default" (or empty) the font for DefaultLanguage is tried first; failing
// that, a single supported font of any language is used and decides the
// language. Several fonts and no preferred one disables enhancement.
func Detect(dir, language string) (Detection, error) {
	explicit := language != "" && language != "default"
	det := Detection{Language: language}
	if !explicit {
		det.Language = DefaultLanguage
	}

	found, err := scan(dir)
	if err != nil {
		return det, err
	}
	det.Found = found

	for _, f := range found {
		if f.Language == det.Language {
			det.Enhanced = true
			det.Selected = f
			return det, nil
		}
	}

	if !explicit && len(found) == 1 {
		det.Enhanced = true
		det.Selected = found[0]
		det.Language = found[0].Language
	}
	return det, nil
}

// Hint is a one-line, user-facing note about the detection result.
func (d Detection) Hint() string {
	switch {
	case d.Enhanced:
		return fmt.Sprintf("Hint: found %s, %s recognition enhancement is enabled.",
			d.Selected.File, d.Selected.Description)
	case len(d.Found) > 1:
		names := make([]string, len(d.Found))
		for i, f := range d.Found {
			names[i] = f.File
		}
		return fmt.Sprintf("Hint: several font files found (%s); keep only one of %s next to the screenshot folder.",
			strings.Join(names, ", "), supportedNames())
	default:
		return fmt.Sprintf("Hint: no font file found. Copy the game's font as one of %s next to the screenshot folder to improve accuracy.",
			supportedNames())
	}
}

func scan(dir string) ([]Found, error) {
	var found []Found
	for _, f := range Supported {
		path := filepath.Join(dir, f.File)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check font %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		found = append(found, Found{Font: f, Path: path})
	}
	return found, nil
}

func supportedNames() string {
	names := make([]string, len(Supported))
	for i, f := range Supported {
		names[i] = f.File
	}
	return strings.Join(names, ", ")
}
