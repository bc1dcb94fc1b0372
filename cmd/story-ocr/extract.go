package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ironsheep/story-ocr/internal/config"
	"github.com/ironsheep/story-ocr/internal/fonts"
	"github.com/ironsheep/story-ocr/internal/ocr"
	"github.com/ironsheep/story-ocr/internal/pipeline"
	"github.com/ironsheep/story-ocr/internal/segment"
)

var (
	extractOutput      string
	extractDebugOutput string
)

var extractCmd = &cobra.Command{
	Use:   "extract <screenshot-dir>",
	Short: "Extract story text from a folder of screenshots",
	Long: `Extract story text from every screenshot in a folder.

The result is written next to the folder as <folder>.txt. With --debug a
trace of every OCR call is written as <folder>_ocr_debug.txt.

A font file (zh-cn.ttf, zh-tw.ttf or ja-jp.ttf) placed next to the folder
switches the backend to high-accuracy mode.

Examples:
  story-ocr extract ./chapter1
  story-ocr extract ./chapter1 --backend stub --debug
  story-ocr extract ./chapter1 --max-images 2 -o story.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		return runExtract(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], extractOutput, extractDebugOutput)
	},
}

func init() {
	flags := extractCmd.Flags()
	flags.StringVarP(&extractOutput, "output", "o", "", "result file (default: <dir>.txt next to the folder)")
	flags.StringVar(&extractDebugOutput, "debug-output", "", "debug trace file (default: <dir>_ocr_debug.txt next to the folder)")
	flags.String("backend", "", fmt.Sprintf("OCR backend: %v", ocr.Names()))
	flags.Int("max-images", 0, fmt.Sprintf("screenshots per OCR call (%d-%d)", config.MinVerticalImages, config.MaxVerticalImages))
	flags.Bool("debug", false, "write the debug trace file")

	for key, flag := range map[string]string{
		"ocr_backend":         "backend",
		"max_vertical_images": "max-images",
		"output_debug":        "debug",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(extractCmd)
}

// runExtract runs the pipeline for inputDir with cfg and saves the report.
// Empty resultPath and debugPath select the default locations.
func runExtract(ctx context.Context, out io.Writer, cfg *config.Config, inputDir, resultPath, debugPath string) error {
	info, err := os.Stat(inputDir)
	if err != nil {
		return fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input %s is not a directory", inputDir)
	}

	defaultResult, defaultDebug, err := pipeline.OutputPaths(inputDir)
	if err != nil {
		return err
	}
	if resultPath == "" {
		resultPath = defaultResult
	}
	if debugPath == "" {
		debugPath = defaultDebug
	}

	fontDir := cfg.FontDir
	if fontDir == "" {
		fontDir = filepath.Dir(filepath.Clean(defaultResult))
	}
	det, err := fonts.Detect(fontDir, cfg.OCRLanguage)
	if err != nil {
		return err
	}
	logger.Info("font detection", "dir", fontDir, "enhanced", det.Enhanced, "language", det.Language)

	backend, err := ocr.New(cfg.OCRBackend, cfg.ToBackendConfig(), logger)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Settings{
		InputDir:          inputDir,
		TempDir:           cfg.TempDir,
		MaxVerticalImages: cfg.MaxVerticalImages,
		OutputDebug:       cfg.OutputDebug,
		Background:        cfg.Background(),
		Options:           ocr.DefaultOptions(ocr.LanguageCode(det.Language), det.Enhanced),
		Fonts:             det,
	}, backend, segment.NewEngine(cfg.Markers(), logger), pipeline.WithLogger(logger))

	report, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if err := report.Save(resultPath, debugPath); err != nil {
		return err
	}

	fmt.Fprintf(out, "Processed: %d succeeded, %d failed\n", report.Succeeded(), report.Failed())
	for _, w := range report.Warnings() {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
	if n := len(report.Flagged()); n > 0 {
		fmt.Fprintf(out, "%d batch(es) need manual review for a suspected dash misreading\n", n)
	}
	fmt.Fprintf(out, "Result: %s\n", resultPath)
	if cfg.OutputDebug {
		fmt.Fprintf(out, "Debug trace: %s\n", debugPath)
	}
	fmt.Fprintln(out, det.Hint())
	return nil
}
