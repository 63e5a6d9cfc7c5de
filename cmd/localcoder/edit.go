package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"localcoder/internal/extract"
	"localcoder/internal/fileutil"
	"localcoder/internal/highlight"
	"localcoder/internal/patch"
	"localcoder/internal/prompts"
	"localcoder/internal/ui"

	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	var (
		outputType string
		outDir     string
		raw        bool
	)
	cmd := &cobra.Command{
		Use:   "extract [reply-file]",
		Short: "Extract code from a saved model reply",
		Long: `Extract the code of a model reply the same way the UI does. The reply is
read from the file argument, or from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readFileOrStdin(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			res := extract.Process(prompts.ParseOutputType(outputType), text)
			if res.Code == "" {
				return fmt.Errorf("no code found in the reply")
			}
			if outDir != "" {
				files := outputFiles(res)
				if err := fileutil.WriteTree(outDir, files); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), ui.Success(fmt.Sprintf("wrote %d file(s) to %s", len(files), outDir)))
				return nil
			}
			printResult(cmd.OutOrStdout(), res, raw)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputType, "type", "t", "html", "output type of the reply")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write the extracted files to this directory")
	cmd.Flags().BoolVar(&raw, "raw", false, "print without syntax highlighting")
	return cmd
}

func newPatchCmd() *cobra.Command {
	var (
		targets []string
		write   bool
		strict  bool
	)
	cmd := &cobra.Command{
		Use:   "patch [reply-file]",
		Short: "Apply the SEARCH/REPLACE blocks of a model reply to files",
		Long: `Apply the SEARCH/REPLACE blocks of a follow-up reply to one or more files
and print the resulting diff. A block goes to the file named in the text
before it, otherwise to the first file containing its search text.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(targets) == 0 {
				return fmt.Errorf("at least one --file is required")
			}
			reply, err := readFileOrStdin(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			blocks, err := patch.Parse(reply)
			if err != nil {
				return err
			}
			if len(blocks) == 0 {
				return fmt.Errorf("no SEARCH/REPLACE blocks found")
			}

			files := extract.Files{}
			paths := map[string]string{}
			for _, path := range targets {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				name := filepath.Base(path)
				if _, dup := files[name]; dup {
					return fmt.Errorf("two files named %s", name)
				}
				files[name] = string(data)
				paths[name] = path
			}

			var opts []patch.Option
			if strict {
				opts = append(opts, patch.Strict())
			}
			res, err := patch.ApplyFiles(files, blocks, opts...)
			if err != nil {
				return err
			}

			printDiffs(cmd.OutOrStdout(), files, res)
			for _, f := range res.Failed {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.Warning(f.String()))
			}
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Success(fmt.Sprintf("%d of %d block(s) applied", res.Applied, len(blocks))))

			if !write {
				return nil
			}
			for _, name := range res.Changed {
				perm := os.FileMode(0o644)
				if info, err := os.Stat(paths[name]); err == nil {
					perm = info.Mode().Perm()
				}
				if err := fileutil.AtomicWrite(paths[name], []byte(res.Files[name]), perm); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&targets, "file", "f", nil, "file to patch (repeatable)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the patched files back")
	cmd.Flags().BoolVar(&strict, "strict", false, "abort when any block does not apply")
	return cmd
}

func printDiffs(w io.Writer, before extract.Files, res patch.FilesResult) {
	color := false
	if f, ok := w.(*os.File); ok && ui.IsTerminal(f) {
		color = true
	}
	hl := highlight.New("")

	for _, name := range res.Changed {
		diff, stats := patch.Diff(name, before[name], res.Files[name])
		if color {
			diff = hl.HighlightDiff(diff)
		}
		fmt.Fprint(w, diff)
		fmt.Fprintln(w, ui.MutedStyle.Render(fmt.Sprintf("%s: +%d -%d", name, stats.Added, stats.Removed)))
	}
}

// readFileOrStdin reads the file named by the only argument, or r.
func readFileOrStdin(r io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("no input")
	}
	return string(data), nil
}
