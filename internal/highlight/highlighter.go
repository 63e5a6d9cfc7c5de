// Package highlight renders generated code with syntax highlighting, as HTML
// for the browser and as ANSI for the terminal.
package highlight

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"localcoder/internal/prompts"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Highlighter provides syntax highlighting for code and diffs.
type Highlighter struct {
	style    *chroma.Style
	terminal chroma.Formatter
	html     *chromahtml.Formatter
}

// New creates a new Highlighter with the named chroma style. Unknown names
// fall back to chroma's default.
func New(style string) *Highlighter {
	if style == "" {
		style = "monokai"
	}
	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}

	return &Highlighter{
		style:    s,
		terminal: formatters.Get("terminal256"),
		html: chromahtml.New(
			chromahtml.WithClasses(false),
			chromahtml.TabWidth(2),
			chromahtml.WithLineNumbers(true),
		),
	}
}

// LanguageFor maps an output type to a lexer name; "" means plain text.
func LanguageFor(t prompts.OutputType) string {
	switch t {
	case prompts.HTML, prompts.TransformersJS:
		return "html"
	case prompts.Svelte:
		return "svelte"
	case prompts.Other:
		return ""
	}
	lang := t.Language()
	if lexers.Get(lang) == nil {
		return ""
	}
	return lang
}

func (h *Highlighter) iterator(code, lang string) (chroma.Iterator, error) {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer).Tokenise(nil, code)
}

// HTML renders code as a standalone <pre> block with inline styles.
func (h *Highlighter) HTML(code, lang string) (string, error) {
	it, err := h.iterator(code, lang)
	if err != nil {
		return "", fmt.Errorf("tokenise: %w", err)
	}
	var buf bytes.Buffer
	if err := h.html.Format(&buf, h.style, it); err != nil {
		return "", fmt.Errorf("format: %w", err)
	}
	return buf.String(), nil
}

// Highlight applies terminal syntax highlighting. On failure the code is
// returned unchanged.
func (h *Highlighter) Highlight(code, lang string) string {
	it, err := h.iterator(code, lang)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := h.terminal.Format(&buf, h.style, it); err != nil {
		return code
	}
	return buf.String()
}

var lineNumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

// HighlightWithLineNumbers highlights code with line numbers.
func (h *Highlighter) HighlightWithLineNumbers(code, lang string, startLine int) string {
	lines := strings.Split(h.Highlight(code, lang), "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lineNumStyle.Render(fmt.Sprintf("%4d", startLine+i)))
		result.WriteString(" │ ")
		result.WriteString(line)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	contextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// HighlightDiff colours a unified diff.
func (h *Highlighter) HighlightDiff(diff string) string {
	lines := strings.Split(diff, "\n")
	var result strings.Builder

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			result.WriteString(headerStyle.Render(line))
		case strings.HasPrefix(line, "@@"):
			result.WriteString(hunkStyle.Render(line))
		case strings.HasPrefix(line, "+"):
			result.WriteString(addedStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			result.WriteString(removedStyle.Render(line))
		default:
			result.WriteString(contextStyle.Render(line))
		}
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

var extLanguages = map[string]string{
	".html":   "html",
	".htm":    "html",
	".js":     "javascript",
	".mjs":    "javascript",
	".ts":     "typescript",
	".css":    "css",
	".svelte": "svelte",
	".py":     "python",
	".json":   "json",
	".md":     "markdown",
	".go":     "go",
	".sh":     "bash",
	".sql":    "sql",
	".yaml":   "yaml",
	".yml":    "yaml",
}

// DetectLanguage detects the language of a generated file from its name.
func DetectLanguage(filename string) string {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(filename))]; ok {
		return lang
	}
	if lexer := lexers.Match(filepath.Base(filename)); lexer != nil {
		return strings.ToLower(lexer.Config().Name)
	}
	return ""
}
