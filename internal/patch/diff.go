package patch

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffStats counts changed lines.
type DiffStats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Diff renders a line diff between two versions: " " context, "-" removed,
// "+" added lines, preceded by ---/+++ headers naming the file.
func Diff(name, oldContent, newContent string) (string, DiffStats) {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(withTrailingNewline(oldContent), withTrailingNewline(newContent))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var sb strings.Builder
	var stats DiffStats
	fmt.Fprintf(&sb, "--- %s\n", name)
	fmt.Fprintf(&sb, "+++ %s\n", name)

	for _, d := range diffs {
		lines := strings.Split(d.Text, "\n")
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		for _, line := range lines {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				sb.WriteString(" " + line + "\n")
			case diffmatchpatch.DiffDelete:
				sb.WriteString("-" + line + "\n")
				stats.Removed++
			case diffmatchpatch.DiffInsert:
				sb.WriteString("+" + line + "\n")
				stats.Added++
			}
		}
	}
	return sb.String(), stats
}

func withTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
