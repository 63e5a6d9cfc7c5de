package main

import (
	"fmt"
	"os"

	"localcoder/internal/app"
	"localcoder/internal/config"
	"localcoder/internal/logging"

	"github.com/spf13/cobra"
)

var (
	version  = "0.1.0"
	cfgFile  string
	model    string
	logLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "localcoder",
		Short: "Local code assistant backed by Ollama",
		Long: `localcoder generates web pages, small apps and snippets with a local
Ollama model. It serves a browser UI with live preview, follow-up edits,
web search, image-to-code and question answering over your documents.`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/localcoder/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model to use (default: picked from installed models)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newServeCmd(),
		newModelsCmd(),
		newGenerateCmd(),
		newExtractCmd(),
		newPatchCmd(),
		newAskCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "localcoder version %s\n", version)
			},
		},
	)
	return rootCmd
}

// loadConfig loads the configuration, applies global flags and configures
// logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Version = version

	if model != "" {
		cfg.Ollama.DefaultModel = model
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.File {
		if err := logging.EnableFileLogging(config.DataDir(), level); err != nil {
			return nil, fmt.Errorf("failed to enable file logging: %w", err)
		}
	} else {
		logging.Configure(level, os.Stderr)
	}
	return cfg, nil
}

// newApp loads the configuration and builds the application.
func newApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return a, nil
}
