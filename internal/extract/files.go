package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Well-known file names.
const (
	IndexHTML = "index.html"
	IndexJS   = "index.js"
	StyleCSS  = "style.css"
	AppSvelte = "src/App.svelte"
	AppCSS    = "src/app.css"
)

// knownOrder fixes the display order of well-known files.
var knownOrder = map[string]int{
	IndexHTML: 0,
	IndexJS:   1,
	StyleCSS:  2,
	AppSvelte: 3,
	AppCSS:    4,
}

// Files maps file names to contents.
type Files map[string]string

// Names returns the file names in display order: well-known files first,
// then the rest alphabetically.
func (f Files) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iKnown := knownOrder[names[i]]
		oj, jKnown := knownOrder[names[j]]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		}
		return names[i] < names[j]
	})
	return names
}

// Clone returns a copy of f.
func (f Files) Clone() Files {
	out := make(Files, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// FormatFiles renders files as "=== name ===" sections.
func FormatFiles(files Files) string {
	var parts []string
	for i, name := range files.Names() {
		header := "=== " + name + " ==="
		if i > 0 {
			header = "\n" + header
		}
		parts = append(parts, header, files[name])
	}
	return strings.Join(parts, "\n")
}

var sectionHeader = regexp.MustCompile(`(?m)^===\s*([^=\s][^=]*?)\s*===[ \t]*$`)

// ParseSections splits "=== name ===" formatted text back into files.
// A section runs until the next line starting with "===" or the end of text.
func ParseSections(text string) Files {
	files := Files{}
	for _, loc := range sectionHeader.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[2]:loc[3]]
		body := text[loc[1]:]
		if !strings.HasPrefix(body, "\n") {
			continue
		}
		body = body[1:]
		if end := strings.Index(body, "\n==="); end >= 0 {
			body = body[:end]
		}
		if _, dup := files[name]; !dup {
			files[name] = strings.TrimSpace(body)
		}
	}
	return files
}

// sectionFor returns the "=== name ===" section for name, case-insensitively.
func sectionFor(sections Files, name string) (string, bool) {
	for k, v := range sections {
		if strings.EqualFold(k, name) && v != "" {
			return v, true
		}
	}
	return "", false
}
