package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ironsheep/story-ocr/internal/config"
)

var (
	cfgFile  string
	logLevel string

	// v holds flag bindings for the running command. Each command resolves
	// its configuration through config.Load(v, cfgFile).
	v = viper.New()

	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "story-ocr",
	Short: "Extract story text from game screenshots",
	Long: `story-ocr turns a folder of game screenshots into plain narrative text.

Screenshots are grouped into batches, stitched vertically, sent to an OCR
backend and filtered with configurable start and stop markers so that only
the story passages remain.

Configuration is read from --config, ./story-ocr.yaml or
~/.story-ocr/story-ocr.yaml. Every key can be overridden from the
environment with the STORY_OCR_ prefix, e.g. STORY_OCR_OCR_BACKEND=stub.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(logLevel)
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./story-ocr.yaml or ~/.story-ocr/story-ocr.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", envOr(config.EnvPrefix+"_LOG_LEVEL", "info"), "log level: debug, info, warn or error",
	)
}

// newLogger builds the stderr text logger. Stdout is kept for the run
// summary.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
