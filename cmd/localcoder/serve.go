package main

import (
	"fmt"

	"localcoder/internal/app"
	"localcoder/internal/ui"

	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	serveWatchDir string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser UI (default command)",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default 127.0.0.1:7860)")
	cmd.Flags().StringVar(&serveWatchDir, "watch", "", "directory of documents to keep indexed for questions")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveWatchDir != "" {
		cfg.RAG.WatchDir = serveWatchDir
	}

	application, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("localcoder %s listening on http://%s", cfg.Version, cfg.Server.Addr)))
	return application.Run(cmd.Context())
}
