package extract

import (
	"regexp"
	"strings"
)

var (
	htmlBlock   = regexp.MustCompile("(?i)```html\\s*\\n([\\s\\S]+?)\\n```")
	jsBlock     = regexp.MustCompile("(?i)```(?:javascript|js)\\s*\\n([\\s\\S]+?)\\n```")
	cssBlock    = regexp.MustCompile("(?i)```css\\s*\\n([\\s\\S]+?)\\n```")
	svelteBlock = regexp.MustCompile("(?i)```svelte\\s*\\n([\\s\\S]+?)\\n```")

	// componentPath matches a leading "<!-- src/lib/Card.svelte -->" comment.
	componentPath = regexp.MustCompile(`^<!--\s*([\w./-]+\.svelte)\s*-->`)
)

func firstGroup(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// fillFromSections replaces files with "=== name ===" sections when any of
// them is missing from the fenced blocks.
func fillFromSections(files Files, text string, names ...string) {
	complete := true
	for _, n := range names {
		if files[n] == "" {
			complete = false
		}
	}
	if complete {
		return
	}

	sections := ParseSections(text)
	for _, n := range names {
		if v, ok := sectionFor(sections, n); ok {
			files[n] = v
		}
	}
}

// ParseTransformersJS extracts index.html, index.js and style.css.
// All three keys are always present, possibly empty.
func ParseTransformersJS(text string) Files {
	files := Files{
		IndexHTML: firstGroup(htmlBlock, text),
		IndexJS:   firstGroup(jsBlock, text),
		StyleCSS:  firstGroup(cssBlock, text),
	}
	fillFromSections(files, text, IndexHTML, IndexJS, StyleCSS)
	return files
}

// ParseSvelte extracts src/App.svelte, src/app.css and any extra components
// whose first line is a comment naming their path.
func ParseSvelte(text string) Files {
	files := Files{
		AppSvelte: "",
		AppCSS:    firstGroup(cssBlock, text),
	}

	for _, m := range svelteBlock.FindAllStringSubmatch(text, -1) {
		content := strings.TrimSpace(m[1])
		if pm := componentPath.FindStringSubmatch(content); pm != nil && pm[1] != AppSvelte {
			if _, dup := files[pm[1]]; !dup {
				files[pm[1]] = content
			}
			continue
		}
		if files[AppSvelte] == "" {
			files[AppSvelte] = content
		}
	}

	fillFromSections(files, text, AppSvelte, AppCSS)

	// Extra components may also arrive as sections
	for name, content := range ParseSections(text) {
		if strings.HasSuffix(name, ".svelte") && files[name] == "" && content != "" {
			files[name] = content
		}
	}
	return files
}
