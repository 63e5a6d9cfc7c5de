package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOutputType(t *testing.T) {
	assert.Equal(t, HTML, ParseOutputType(""))
	assert.Equal(t, TransformersJS, ParseOutputType("transformers.js"))
	assert.Equal(t, Svelte, ParseOutputType(" SVELTE "))
	assert.Equal(t, JavaScript, ParseOutputType("js"))
	assert.Equal(t, OutputType("Rust"), ParseOutputType("Rust"))
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, HTMLSystemPrompt, SystemPrompt(HTML, false))
	assert.Equal(t, HTMLSystemPromptWithSearch, SystemPrompt(HTML, true))
	assert.Equal(t, TransformersJSSystemPrompt, SystemPrompt(TransformersJS, false))
	assert.Equal(t, SvelteSystemPromptWithSearch, SystemPrompt(Svelte, true))

	py := SystemPrompt(Python, false)
	assert.True(t, strings.HasPrefix(py, "You are an expert python developer."))
	assert.NotContains(t, py, "{language}")

	rust := SystemPrompt(OutputType("Rust"), true)
	assert.Contains(t, rust, "specific technologies for rust.")
	assert.Contains(t, rust, "real-time web search")
}

func TestFollowUpPrompt(t *testing.T) {
	p, ok := FollowUpPrompt(HTML)
	assert.True(t, ok)
	assert.Contains(t, p, "1. Start with "+SearchStart)
	assert.Contains(t, p, "\n"+Divider+"\n    <h1>New Title</h1>\n"+ReplaceEnd)
	assert.NotContains(t, p, "{SEARCH}")

	p, ok = FollowUpPrompt(TransformersJS)
	assert.True(t, ok)
	assert.Contains(t, p, "index.html, index.js, and style.css")
	assert.Contains(t, p, "function newFunction() {\n")

	_, ok = FollowUpPrompt(Svelte)
	assert.False(t, ok)
}

func TestImageToCodePrompt(t *testing.T) {
	p := ImageToCodePrompt("Home About Contact")
	assert.Contains(t, p, "Extracted text and labels:\nHome About Contact\n\n")
	assert.True(t, strings.HasSuffix(p, "Return only the HTML inside a code block."))
}

func TestRedesignPrompt(t *testing.T) {
	p := RedesignPrompt("https://example.com", "Example", "<h1>Hi</h1>", "Hi")
	assert.Contains(t, p, "URL: https://example.com\nTitle: Example\n")
	assert.Contains(t, p, "```html\n<h1>Hi</h1>\n```")
}

func TestQuickExamples(t *testing.T) {
	assert.Len(t, Demos, 15)
	q := QuickExamples()
	assert.Len(t, q, QuickExampleCount)
	assert.Equal(t, "Todo App", q[0].Title)
	assert.Equal(t, "Login Form", q[4].Title)
}
