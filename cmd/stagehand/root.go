package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/stagehand/internal/config"
	"github.com/aretw0/stagehand/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Stagehand drives chat menus from persisted scene state",
	Long: `Stagehand routes chat updates to scenes, renders their views into
editable messages and restores scene state from the message a user interacts with.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path, nil)
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			loaded.LogLevel = level
		}
		cfg = loaded
		logger = logging.NewWithWriter(os.Stderr, logging.ParseLevel(cfg.LogLevel), cfg.LogJSON)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override log_level (debug, info, warn, error)")
}
