package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/story-ocr/internal/imaging"
	"github.com/ironsheep/story-ocr/internal/ocr"
)

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() *Config {
	return &Config{
		StartMarkers:      "剧情梗概",
		StopMarkers:       "i,存在分支剧情选项,取消,×,⑧取消",
		MaxVerticalImages: 4,
		OutputDebug:       false,
		OCRBackend:        ocr.BaiduName,
		OCRLanguage:       "default",
		TempDir:           filepath.Join(os.TempDir(), "story-ocr"),
		StitchBackground:  imaging.DefaultBackground,
		FontDir:           "",
		Baidu: BaiduConfig{
			APIKey:         placeholderAPIKey,
			SecretKey:      placeholderSecretKey,
			BaseURL:        ocr.BaiduBaseURL,
			TimeoutSeconds: 30,
			MaxRetries:     2,
			TestMode:       false,
			SimulatedText:  ocr.DefaultSimulatedText,
		},
		Tesseract: TesseractConfig{},
		Stub: StubConfig{
			Lines:     ocr.DefaultStubLines,
			MaxWidth:  ocr.BaiduMaxSide,
			MaxHeight: ocr.BaiduMaxSide,
		},
	}
}

// defaultValues flattens DefaultConfig into viper keys so that every key,
// nested ones included, can be overridden from the environment.
func defaultValues() map[string]any {
	d := DefaultConfig()
	return map[string]any{
		"start_markers":       d.StartMarkers,
		"stop_markers":        d.StopMarkers,
		"max_vertical_images": d.MaxVerticalImages,
		"output_debug":        d.OutputDebug,
		"ocr_backend":         d.OCRBackend,
		"ocr_language":        d.OCRLanguage,
		"temp_dir":            d.TempDir,
		"stitch_background":   d.StitchBackground,
		"font_dir":            d.FontDir,

		"baidu.api_key":         d.Baidu.APIKey,
		"baidu.secret_key":      d.Baidu.SecretKey,
		"baidu.base_url":        d.Baidu.BaseURL,
		"baidu.timeout_seconds": d.Baidu.TimeoutSeconds,
		"baidu.max_retries":     d.Baidu.MaxRetries,
		"baidu.test_mode":       d.Baidu.TestMode,
		"baidu.simulated_text":  d.Baidu.SimulatedText,

		"tesseract.language":        d.Tesseract.Language,
		"tesseract.tessdata_prefix": d.Tesseract.TessdataPrefix,

		"stub.lines":         d.Stub.Lines,
		"stub.delay_seconds": d.Stub.DelaySeconds,
		"stub.max_width":     d.Stub.MaxWidth,
		"stub.max_height":    d.Stub.MaxHeight,
		"stub.fail":          d.Stub.Fail,
	}
}

const defaultHeader = `# story-ocr configuration
# Markers are comma-separated. Start markers match anywhere in a line,
# stop markers must equal the whole (trimmed) line.
# API keys accept ${ENV_VAR} syntax, e.g. api_key: ${BAIDU_API_KEY}
# Any key can also be set from the environment, e.g. STORY_OCR_BAIDU_API_KEY.

`

// WriteDefault writes the default configuration to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	data, err := Marshal(DefaultConfig())
	if err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append([]byte(defaultHeader), data...)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
