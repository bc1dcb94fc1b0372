package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/story-ocr/internal/config"
	"github.com/ironsheep/story-ocr/internal/ocr"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the available OCR backends and their limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Read(v, cfgFile)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMAX SIZE\tDELAY\tSELECTED")
		for _, name := range ocr.Names() {
			b, err := ocr.New(name, cfg.ToBackendConfig(), logger)
			if err != nil {
				fmt.Fprintf(w, "%s\t-\t-\t%s\n", name, err)
				continue
			}
			selected := ""
			if name == cfg.OCRBackend {
				selected = "*"
			}
			fmt.Fprintf(w, "%s\t%dx%d\t%s\t%s\n", name, b.MaxWidth(), b.MaxHeight(), b.APIDelay(), selected)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
