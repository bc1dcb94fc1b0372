// Package config loads and validates story-ocr configuration.
//
// Configuration comes from a YAML file (story-ocr.yaml in the working
// directory or $HOME/.story-ocr, or the path given with --config),
// environment variables prefixed with STORY_OCR_, and command-line flags
// bound by the caller. The result is an immutable Config that the command
// layer turns into the values the pipeline consumes: marker lists, batch
// size, stitch background and backend settings.
package config
