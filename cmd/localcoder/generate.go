package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"localcoder/internal/assistant"
	"localcoder/internal/chat"
	"localcoder/internal/extract"
	"localcoder/internal/fileutil"
	"localcoder/internal/highlight"
	"localcoder/internal/prompts"
	"localcoder/internal/ui"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	outputType  string
	temperature float32
	search      bool
	image       string
	redesign    string
	outDir      string
	copy        bool
	raw         bool
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate code from a prompt, an image or an existing web page",
		Long: `Generate code with the configured model. The prompt is read from the
arguments, or from stdin when no arguments are given.

Examples:
  localcoder generate "a pricing page with three tiers"
  localcoder generate --type svelte "a todo list" --out ./todo
  localcoder generate --image mockup.png
  localcoder generate --redesign https://example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.outputType, "type", "t", "html", "output type: html, transformers.js, svelte, python, javascript, other")
	f.Float32Var(&opts.temperature, "temperature", -1, "sampling temperature (default from config)")
	f.BoolVar(&opts.search, "search", false, "augment the prompt with web search results")
	f.StringVar(&opts.image, "image", "", "generate from the text in this screenshot")
	f.StringVar(&opts.redesign, "redesign", "", "redesign the page at this URL")
	f.StringVarP(&opts.outDir, "out", "o", "", "write the generated files to this directory")
	f.BoolVar(&opts.copy, "copy", false, "copy the generated code to the clipboard")
	f.BoolVar(&opts.raw, "raw", false, "print without syntax highlighting")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string, opts generateOptions) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	req := assistant.Request{
		Model:        a.Config().Ollama.DefaultModel,
		Temperature:  a.Config().Ollama.Temperature,
		OutputType:   prompts.ParseOutputType(opts.outputType),
		EnableSearch: opts.search,
	}
	if opts.temperature >= 0 {
		req.Temperature = opts.temperature
	}

	var run func(ctx context.Context, s *chat.Session) assistant.Response
	switch {
	case opts.image != "":
		image, err := os.ReadFile(opts.image)
		if err != nil {
			return err
		}
		run = func(ctx context.Context, s *chat.Session) assistant.Response {
			return a.Assistant().GenerateFromImage(ctx, s, image, req)
		}
	case opts.redesign != "":
		run = func(ctx context.Context, s *chat.Session) assistant.Response {
			return a.Assistant().Redesign(ctx, s, opts.redesign, req)
		}
	default:
		prompt, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		req.Message = prompt
		run = func(ctx context.Context, s *chat.Session) assistant.Response {
			return a.Assistant().Generate(ctx, s, req)
		}
	}

	sess := chat.NewSession()
	var resp assistant.Response
	err = ui.RunWithSpinner(cmd.Context(), "Generating "+string(req.OutputType), func(ctx context.Context) error {
		resp = run(ctx, sess)
		return nil
	})
	if err != nil {
		return err
	}
	if resp.Failed {
		return errors.New(strings.TrimPrefix(resp.Reply, "Error: "))
	}

	res := resp.Result
	if res.Code == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Warning("the model returned no code"))
		fmt.Fprintln(cmd.OutOrStdout(), resp.Reply)
		return nil
	}

	if opts.outDir != "" {
		files := outputFiles(res)
		if err := fileutil.WriteTree(opts.outDir, files); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Success(fmt.Sprintf("wrote %d file(s) to %s", len(files), opts.outDir)))
	} else {
		printResult(cmd.OutOrStdout(), res, opts.raw)
	}

	if opts.copy {
		if err := ui.CopyToClipboard(res.Code); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Warning("copy failed: "+err.Error()))
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Success("copied to clipboard"))
		}
	}
	return nil
}

// readInput joins args, or reads all of r when there are none.
func readInput(r io.Reader, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("no input: pass a prompt or pipe one on stdin")
	}
	return text, nil
}

// outputFiles names the code of single-file generic output after its language.
func outputFiles(res extract.Result) extract.Files {
	if len(res.Files) > 0 {
		return res.Files
	}
	name := "main.txt"
	switch res.OutputType {
	case prompts.Python:
		name = "main.py"
	case prompts.JavaScript:
		name = "main.js"
	}
	return extract.Files{name: res.Code}
}

// printResult prints the code, highlighted when w is a terminal.
func printResult(w io.Writer, res extract.Result, raw bool) {
	color := !raw
	if f, ok := w.(*os.File); !ok || !ui.IsTerminal(f) {
		color = false
	}
	hl := highlight.New("")

	if !res.OutputType.IsMultiFile() {
		if color {
			fmt.Fprintln(w, hl.Highlight(res.Code, highlight.LanguageFor(res.OutputType)))
			return
		}
		fmt.Fprintln(w, res.Code)
		return
	}

	for _, name := range res.Files.Names() {
		content := res.Files[name]
		if color {
			fmt.Fprintln(w, ui.TitleStyle.Render(name))
			fmt.Fprintln(w, hl.Highlight(content, highlight.DetectLanguage(name)))
			continue
		}
		fmt.Fprintf(w, "=== %s ===\n%s\n\n", name, content)
	}
}
