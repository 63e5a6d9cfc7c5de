// Package prompts holds the system prompts and user-prompt builders sent to
// the model, keyed by the kind of output the user asked for.
package prompts

import (
	"fmt"
	"strings"
)

// OutputType is the kind of code the user wants generated.
type OutputType string

const (
	HTML           OutputType = "HTML"
	TransformersJS OutputType = "Transformers.js"
	Svelte         OutputType = "Svelte"
	Python         OutputType = "Python"
	JavaScript     OutputType = "JavaScript"
	Other          OutputType = "Other"
)

// OutputTypes lists the choices offered in the UI, in display order.
var OutputTypes = []OutputType{HTML, TransformersJS, Svelte, Python, JavaScript, Other}

// ParseOutputType maps a user-supplied label onto a known output type.
// Unknown labels are kept verbatim and treated as a generic language.
func ParseOutputType(s string) OutputType {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "html":
		return HTML
	case "transformers.js", "transformersjs", "transformers":
		return TransformersJS
	case "svelte":
		return Svelte
	case "python":
		return Python
	case "javascript", "js":
		return JavaScript
	case "other":
		return Other
	}
	return OutputType(s)
}

// Language is the lowercase language label substituted into the generic prompt.
func (t OutputType) Language() string {
	return strings.ToLower(string(t))
}

// IsMultiFile reports whether the output is split into several named files.
func (t OutputType) IsMultiFile() bool {
	return t == TransformersJS || t == Svelte
}

// SupportsFollowUp reports whether follow-up requests are answered with
// SEARCH/REPLACE patches against the previous output.
func (t OutputType) SupportsFollowUp() bool {
	return t == HTML || t == TransformersJS
}

// SystemPrompt returns the system prompt for the output type.
func SystemPrompt(t OutputType, withSearch bool) string {
	switch t {
	case HTML:
		if withSearch {
			return HTMLSystemPromptWithSearch
		}
		return HTMLSystemPrompt
	case TransformersJS:
		if withSearch {
			return TransformersJSSystemPromptWithSearch
		}
		return TransformersJSSystemPrompt
	case Svelte:
		if withSearch {
			return SvelteSystemPromptWithSearch
		}
		return SvelteSystemPrompt
	}

	tmpl := GenericSystemPrompt
	if withSearch {
		tmpl = GenericSystemPromptWithSearch
	}
	return strings.ReplaceAll(tmpl, "{language}", t.Language())
}

// FollowUpPrompt returns the patch-format system prompt for the output type.
func FollowUpPrompt(t OutputType) (string, bool) {
	switch t {
	case HTML:
		return FollowUpSystemPrompt, true
	case TransformersJS:
		return TransformersJSFollowUpSystemPrompt, true
	}
	return "", false
}

// FollowUpMessage wraps a change request with the code it applies to.
func FollowUpMessage(request, currentCode string) string {
	return fmt.Sprintf("Current code:\n```\n%s\n```\n\nRequested change:\n%s", currentCode, request)
}

// ImageToCodePrompt builds the prompt that turns OCR text into a page.
func ImageToCodePrompt(extracted string) string {
	return "You are an expert frontend developer. Based on the text and visual cues below (extracted from an image), " +
		"generate a single-file responsive HTML + CSS. " +
		"Use semantic HTML, modern CSS, and include a mobile-friendly hamburger menu if necessary.\n\n" +
		"Extracted text and labels:\n" + extracted + "\n\n" +
		"If layout hints are absent, infer a sensible layout. Return only the HTML inside a code block."
}

// RedesignPrompt builds the prompt for redesigning a fetched web page.
func RedesignPrompt(pageURL, title, html, text string) string {
	var sb strings.Builder
	sb.WriteString("Redesign the following website with a modern, responsive layout.\n\n")
	fmt.Fprintf(&sb, "URL: %s\n", pageURL)
	if title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", title)
	}
	if text != "" {
		sb.WriteString("\nPage content:\n")
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	sb.WriteString("\nOriginal HTML code:\n```html\n")
	sb.WriteString(html)
	sb.WriteString("\n```\n")
	return sb.String()
}
