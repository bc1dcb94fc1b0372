package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ironsheep/story-ocr/internal/imaging"
	"github.com/ironsheep/story-ocr/internal/ocr"
	"github.com/ironsheep/story-ocr/internal/segment"
)

// EnvPrefix is prepended to every environment variable override, e.g.
// STORY_OCR_MAX_VERTICAL_IMAGES or STORY_OCR_BAIDU_API_KEY.
const EnvPrefix = "STORY_OCR"

// Bounds of max_vertical_images.
const (
	MinVerticalImages = 1
	MaxVerticalImages = 10
)

// Languages accepted by ocr_language.
var Languages = []string{"zh-cn", "zh-tw", "en", "ja-jp", "default"}

// Placeholder credentials written by WriteDefault. They are rejected by
// Validate so a fresh config cannot be used against the real service.
const (
	placeholderAPIKey    = "your_api_key"
	placeholderSecretKey = "your_secret_key"
)

// Config is the resolved application configuration. It is built once at
// startup and never modified afterwards.
type Config struct {
	StartMarkers      string `mapstructure:"start_markers" yaml:"start_markers"`
	StopMarkers       string `mapstructure:"stop_markers" yaml:"stop_markers"`
	MaxVerticalImages int    `mapstructure:"max_vertical_images" yaml:"max_vertical_images"`
	OutputDebug       bool   `mapstructure:"output_debug" yaml:"output_debug"`
	OCRBackend        string `mapstructure:"ocr_backend" yaml:"ocr_backend"`
	OCRLanguage       string `mapstructure:"ocr_language" yaml:"ocr_language"`
	TempDir           string `mapstructure:"temp_dir" yaml:"temp_dir"`
	StitchBackground  string `mapstructure:"stitch_background" yaml:"stitch_background"`
	FontDir           string `mapstructure:"font_dir" yaml:"font_dir"`

	Baidu     BaiduConfig     `mapstructure:"baidu" yaml:"baidu"`
	Tesseract TesseractConfig `mapstructure:"tesseract" yaml:"tesseract"`
	Stub      StubConfig      `mapstructure:"stub" yaml:"stub"`
}

// BaiduConfig configures the Baidu cloud backend.
type BaiduConfig struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	SecretKey      string `mapstructure:"secret_key" yaml:"secret_key"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries" yaml:"max_retries"`
	TestMode       bool   `mapstructure:"test_mode" yaml:"test_mode"`
	SimulatedText  string `mapstructure:"simulated_text" yaml:"simulated_text"`
}

// TesseractConfig configures the local Tesseract backend.
type TesseractConfig struct {
	Language       string `mapstructure:"language" yaml:"language"`
	TessdataPrefix string `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix"`
}

// StubConfig configures the canned-response backend.
type StubConfig struct {
	Lines        []string `mapstructure:"lines" yaml:"lines"`
	DelaySeconds float64  `mapstructure:"delay_seconds" yaml:"delay_seconds"`
	MaxWidth     int      `mapstructure:"max_width" yaml:"max_width"`
	MaxHeight    int      `mapstructure:"max_height" yaml:"max_height"`
	Fail         bool     `mapstructure:"fail" yaml:"fail"`
}

// Load reads configuration into a Config and validates it.
//
// Values are resolved in viper's usual order: flags bound on v, environment
// variables with the STORY_OCR_ prefix, the config file, then defaults. A
// missing config file is not an error when cfgFile is empty.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	cfg, err := Read(v, cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read resolves the configuration like Load but skips validation. It backs
// commands that only display the configuration.
func Read(v *viper.Viper, cfgFile string) (*Config, error) {
	for key, value := range defaultValues() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("story-ocr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.story-ocr")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if len(ParseMarkers(c.StartMarkers)) == 0 {
		errs = append(errs, fmt.Errorf("start_markers: at least one marker is required"))
	}
	if len(ParseMarkers(c.StopMarkers)) == 0 {
		errs = append(errs, fmt.Errorf("stop_markers: at least one marker is required"))
	}
	if c.MaxVerticalImages < MinVerticalImages || c.MaxVerticalImages > MaxVerticalImages {
		errs = append(errs, fmt.Errorf("max_vertical_images: %d is outside %d-%d",
			c.MaxVerticalImages, MinVerticalImages, MaxVerticalImages))
	}
	if !slices.Contains(ocr.Names(), c.OCRBackend) {
		errs = append(errs, fmt.Errorf("ocr_backend: unknown backend %q (available: %v)", c.OCRBackend, ocr.Names()))
	}
	if !slices.Contains(Languages, c.OCRLanguage) {
		errs = append(errs, fmt.Errorf("ocr_language: unknown language %q (available: %v)", c.OCRLanguage, Languages))
	}
	if _, err := imaging.ParseHexColor(c.StitchBackground); err != nil {
		errs = append(errs, fmt.Errorf("stitch_background: %w", err))
	}

	if c.OCRBackend == ocr.BaiduName && !c.Baidu.TestMode {
		key, secret := ResolveEnvVars(c.Baidu.APIKey), ResolveEnvVars(c.Baidu.SecretKey)
		if key == "" || key == placeholderAPIKey || secret == "" || secret == placeholderSecretKey {
			errs = append(errs, fmt.Errorf("baidu: api_key and secret_key must be set (or enable baidu.test_mode)"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Markers returns the parsed start and stop marker lists.
func (c *Config) Markers() segment.Markers {
	return segment.Markers{
		Start: ParseMarkers(c.StartMarkers),
		Stop:  ParseMarkers(c.StopMarkers),
	}
}

// Background returns the parsed stitch background colour. The value has
// already been checked by Validate; an invalid value falls back to white.
func (c *Config) Background() color.Color {
	bg, err := imaging.ParseHexColor(c.StitchBackground)
	if err != nil {
		return color.White
	}
	return bg
}

// ToBackendConfig converts the config to the form ocr.New expects,
// resolving ${ENV_VAR} references in credentials.
func (c *Config) ToBackendConfig() ocr.Config {
	return ocr.Config{
		Baidu: ocr.BaiduConfig{
			APIKey:        ResolveEnvVars(c.Baidu.APIKey),
			SecretKey:     ResolveEnvVars(c.Baidu.SecretKey),
			BaseURL:       c.Baidu.BaseURL,
			Timeout:       time.Duration(c.Baidu.TimeoutSeconds) * time.Second,
			MaxRetries:    c.Baidu.MaxRetries,
			TestMode:      c.Baidu.TestMode,
			SimulatedText: c.Baidu.SimulatedText,
		},
		Tesseract: ocr.TesseractConfig{
			Language:       c.Tesseract.Language,
			TessdataPrefix: c.Tesseract.TessdataPrefix,
		},
		Stub: ocr.StubConfig{
			Lines:     c.Stub.Lines,
			Delay:     time.Duration(c.Stub.DelaySeconds * float64(time.Second)),
			MaxWidth:  c.Stub.MaxWidth,
			MaxHeight: c.Stub.MaxHeight,
			Fail:      c.Stub.Fail,
		},
	}
}

// ParseMarkers splits a comma-separated marker list. Entries are trimmed,
// empty entries dropped and duplicates removed keeping the first.
func ParseMarkers(s string) []string {
	var markers []string
	for _, part := range strings.Split(s, ",") {
		m := strings.TrimSpace(part)
		if m == "" || slices.Contains(markers, m) {
			continue
		}
		markers = append(markers, m)
	}
	return markers
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}
