package ocr

import (
	"fmt"
	"log/slog"
	"sort"
)

// Config holds the configuration of every backend. Only the section of the
// selected backend is used.
type Config struct {
	Baidu     BaiduConfig
	Tesseract TesseractConfig
	Stub      StubConfig
}

var constructors = map[string]func(Config, *slog.Logger) (Backend, error){
	BaiduName: func(cfg Config, logger *slog.Logger) (Backend, error) {
		return NewBaiduClient(cfg.Baidu, logger)
	},
	TesseractName: func(cfg Config, logger *slog.Logger) (Backend, error) {
		return NewTesseractClient(cfg.Tesseract, logger), nil
	},
	StubName: func(cfg Config, _ *slog.Logger) (Backend, error) {
		return NewStubClient(cfg.Stub), nil
	},
}

// Names returns the names of the available backends, sorted.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs the backend registered under name.
func New(name string, cfg Config, logger *slog.Logger) (Backend, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown OCR backend %q (available: %v)", name, Names())
	}
	b, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", name, err)
	}
	return b, nil
}
