package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/story-ocr/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file (default: ./story-ocr.yaml).

The file holds placeholder Baidu credentials. Replace them, reference
environment variables with ${VAR}, or set ocr_backend to tesseract or stub.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "story-ocr.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path, configForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Read(v, cfgFile)
		if err != nil {
			return err
		}
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if _, err := out.Write(data); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "# %v\n", err)
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
