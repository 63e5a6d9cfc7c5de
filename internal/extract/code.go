// Package extract turns free-form model replies into source files.
package extract

import (
	"regexp"
	"strings"
)

// Fenced block patterns, tried in order.
var codeBlockPatterns = []*regexp.Regexp{
	regexp.MustCompile("```(?:html|HTML)\\n([\\s\\S]+?)\\n```"),
	regexp.MustCompile("```\\n([\\s\\S]+?)\\n```"),
	regexp.MustCompile("```([\\s\\S]+?)```"),
}

// languageMarkers are bare first lines that name a language rather than code.
var languageMarkers = map[string]bool{
	"python": true, "html": true, "css": true, "javascript": true, "json": true,
	"c": true, "cpp": true, "markdown": true, "latex": true, "jinja2": true,
	"typescript": true, "yaml": true, "dockerfile": true, "shell": true, "r": true,
	"sql": true, "sql-mssql": true, "sql-mysql": true, "sql-mariadb": true,
	"sql-sqlite": true, "sql-cassandra": true, "sql-plsql": true, "sql-hive": true,
	"sql-pgsql": true, "sql-gql": true, "sql-gpsql": true, "sql-sparksql": true,
	"sql-esper": true,
}

// IsLanguageMarker reports whether line is only a language name.
func IsLanguageMarker(line string) bool {
	return languageMarkers[strings.ToLower(strings.TrimSpace(line))]
}

// stripMarkerLine drops a leading language-marker line.
func stripMarkerLine(s string) (string, bool) {
	first, rest, hasRest := strings.Cut(s, "\n")
	if !IsLanguageMarker(first) {
		return s, false
	}
	if !hasRest {
		return "", true
	}
	return rest, true
}

// ExtractCode returns the code contained in a model reply.
func ExtractCode(text string) string {
	for _, re := range codeBlockPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		code := strings.TrimSpace(m[1])
		code, _ = stripMarkerLine(code)
		return code
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "<") {
		return trimmed
	}
	if code, ok := stripMarkerLine(trimmed); ok {
		return code
	}
	return trimmed
}
