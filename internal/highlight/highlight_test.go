package highlight

import (
	"strings"
	"testing"

	"localcoder/internal/prompts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, "html", LanguageFor(prompts.HTML))
	assert.Equal(t, "html", LanguageFor(prompts.TransformersJS))
	assert.Equal(t, "svelte", LanguageFor(prompts.Svelte))
	assert.Equal(t, "python", LanguageFor(prompts.Python))
	assert.Equal(t, "javascript", LanguageFor(prompts.JavaScript))
	assert.Equal(t, "", LanguageFor(prompts.Other))
	assert.Equal(t, "rust", LanguageFor(prompts.OutputType("Rust")))
	assert.Equal(t, "", LanguageFor(prompts.OutputType("Klingon")))
}

func TestHTML(t *testing.T) {
	h := New("github")
	out, err := h.HTML("def add(a, b):\n    return a + b\n", "python")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<pre"))
	assert.Contains(t, out, "style=")
	assert.NotContains(t, out, "class=\"chroma\"")
	assert.Contains(t, out, "return")

	plain, err := h.HTML("<b>not markup</b>", "")
	require.NoError(t, err)
	assert.Contains(t, plain, "&lt;b&gt;")
}

func TestHighlightTerminal(t *testing.T) {
	h := New("no-such-style")
	out := h.Highlight("package main", "go")
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "main")

	numbered := h.HighlightWithLineNumbers("a\nb", "", 9)
	assert.Contains(t, numbered, "   9")
	assert.Contains(t, numbered, "  10")
	assert.Equal(t, 1, strings.Count(numbered, "\n"))
}

func TestHighlightDiff(t *testing.T) {
	h := New("")
	diff := "--- a/index.html\n+++ b/index.html\n@@ -1 +1 @@\n-old\n+new\n ctx"
	out := h.HighlightDiff(diff)
	for _, part := range []string{"old", "new", "ctx", "index.html"} {
		assert.Contains(t, out, part)
	}
	assert.Equal(t, strings.Count(diff, "\n"), strings.Count(out, "\n"))
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "svelte", DetectLanguage("src/App.svelte"))
	assert.Equal(t, "css", DetectLanguage("style.css"))
	assert.Equal(t, "javascript", DetectLanguage("index.js"))
	assert.Equal(t, "", DetectLanguage("notes.unknownext"))
}
