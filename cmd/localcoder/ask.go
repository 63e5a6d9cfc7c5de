package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"localcoder/internal/rag"
	"localcoder/internal/ui"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "ask --file doc.pdf [question]",
		Short: "Answer questions about documents",
		Long: `Index the given documents and answer a question about them. Without a
question, questions are read line by line from stdin until EOF.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(files) == 0 {
				return errors.New(rag.StatusNoFiles)
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Documents() == nil {
				return errors.New("document question answering is not available; check the embedding settings")
			}

			var chain *rag.Chain
			var status string
			err = ui.RunWithSpinner(cmd.Context(), "Indexing documents", func(ctx context.Context) error {
				chain, status = a.Documents().Process(ctx, files)
				return nil
			})
			if err != nil {
				return err
			}
			if chain == nil {
				return errors.New(status)
			}
			defer chain.Close()
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Success(status))

			if len(args) > 0 {
				return answer(cmd, chain, strings.Join(args, " "))
			}
			return askLoop(cmd, chain, cmd.InOrStdin())
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "document to index: .pdf, .txt or .md (repeatable)")
	return cmd
}

func askLoop(cmd *cobra.Command, chain *rag.Chain, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(cmd.ErrOrStderr(), ui.TitleStyle.Render("? "))
		if !scanner.Scan() {
			fmt.Fprintln(cmd.ErrOrStderr())
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if err := answer(cmd, chain, question); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Error(err.Error()))
		}
	}
}

func answer(cmd *cobra.Command, chain *rag.Chain, question string) error {
	var text string
	err := ui.RunWithSpinner(cmd.Context(), "Thinking", func(ctx context.Context) error {
		var err error
		text, err = chain.Ask(ctx, question)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), ui.RenderMarkdown(text, 100))
	return nil
}
