package main

import (
	"fmt"

	"localcoder/internal/client"
	"localcoder/internal/ui"

	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models offered in the model picker",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			installed, err := a.Client().ListInstalled(cmd.Context())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.Warning("Ollama is not running. Please start Ollama first."))
				installed = nil
			}

			models := client.Reconcile(client.PredefinedModels, installed)
			fmt.Fprint(out, ui.FormatModels(models, client.DefaultModel(installed, a.Config().Ollama.DefaultModel)))
			return nil
		},
	}
}
