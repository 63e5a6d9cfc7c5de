package patch

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"localcoder/internal/extract"
	"localcoder/internal/logging"
)

// ErrSearchNotFound is returned in strict mode when a block's search text
// does not occur in its target.
var ErrSearchNotFound = errors.New("search text not found")

// Failure records a block that could not be applied.
type Failure struct {
	Index int    `json:"index"` // position in the block list
	File  string `json:"file,omitempty"`
	Block Block  `json:"block"`
}

func (f Failure) String() string {
	first, _, _ := strings.Cut(f.Block.Search, "\n")
	if f.File != "" {
		return fmt.Sprintf("block %d (%s): search text not found: %q", f.Index+1, f.File, first)
	}
	return fmt.Sprintf("block %d: search text not found: %q", f.Index+1, first)
}

// Result is the outcome of applying blocks to a single text.
type Result struct {
	Content string    `json:"content"`
	Applied int       `json:"applied"`
	Failed  []Failure `json:"failed,omitempty"`
}

type options struct {
	strict bool
}

// Option configures Apply and ApplyFiles.
type Option func(*options)

// Strict makes a missing search text abort the whole patch, leaving the
// input untouched.
func Strict() Option {
	return func(o *options) { o.strict = true }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Apply applies blocks in order, each to the output of the previous one.
// By default a block whose search text is missing is recorded in
// Result.Failed and the rest still apply. CRLF content is matched as LF
// and written back with CRLF endings.
func Apply(content string, blocks []Block, opts ...Option) (Result, error) {
	o := buildOptions(opts)
	text, crlf := toLF(content)
	res := Result{Content: text}

	for i, b := range blocks {
		next, ok := applyBlock(res.Content, b)
		if !ok {
			f := Failure{Index: i, Block: b}
			if o.strict {
				return Result{Content: content, Applied: 0, Failed: []Failure{f}},
					fmt.Errorf("%w: %s", ErrSearchNotFound, f)
			}
			logging.Debug("patch block not applied", "block", i+1)
			res.Failed = append(res.Failed, f)
			continue
		}
		res.Content = next
		res.Applied++
	}
	if res.Content == text {
		res.Content = content
	} else {
		res.Content = fromLF(res.Content, crlf)
	}
	return res, nil
}

// toLF converts CRLF line endings to LF and reports whether it did.
func toLF(s string) (string, bool) {
	if !strings.Contains(s, "\r\n") {
		return s, false
	}
	return strings.ReplaceAll(s, "\r\n", "\n"), true
}

// fromLF restores CRLF line endings removed by toLF.
func fromLF(s string, crlf bool) string {
	if !crlf {
		return s
	}
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// applyBlock applies one block to content.
func applyBlock(content string, b Block) (string, bool) {
	if b.Search == "" {
		if b.Replace == "" {
			return content, true
		}
		if content == "" {
			return b.Replace, true
		}
		return b.Replace + "\n" + content, true
	}

	idx := strings.Index(content, b.Search)
	if idx < 0 {
		return content, false
	}
	end := idx + len(b.Search)

	if b.Replace == "" {
		// Delete the matched lines together with their line break.
		switch {
		case end < len(content) && content[end] == '\n':
			end++
		case idx > 0 && content[idx-1] == '\n':
			idx--
		}
		return content[:idx] + content[end:], true
	}
	return content[:idx] + b.Replace + content[end:], true
}

// FilesResult is the outcome of applying blocks across several files.
type FilesResult struct {
	Files   extract.Files `json:"files"`
	Applied int           `json:"applied"`
	Failed  []Failure     `json:"failed,omitempty"`
	Changed []string      `json:"changed,omitempty"` // in display order
}

// ApplyFiles applies blocks to a set of files. A block goes to the file its
// hint names when that file contains the search text; otherwise to the
// first file, in display order, that does. Files with CRLF line endings
// are matched as LF and keep their endings.
func ApplyFiles(files extract.Files, blocks []Block, opts ...Option) (FilesResult, error) {
	o := buildOptions(opts)
	out := make(extract.Files, len(files))
	crlf := map[string]bool{}
	for name, content := range files {
		out[name], crlf[name] = toLF(content)
	}
	res := FilesResult{Files: out}
	changed := map[string]bool{}

	for i, b := range blocks {
		target, named := resolveTarget(out, b)
		if target == "" {
			f := Failure{Index: i, File: named, Block: b}
			if o.strict {
				return FilesResult{Files: files.Clone(), Failed: []Failure{f}}, fmt.Errorf("%w: %s", ErrSearchNotFound, f)
			}
			res.Failed = append(res.Failed, f)
			continue
		}

		next, ok := applyBlock(out[target], b)
		if !ok {
			f := Failure{Index: i, File: target, Block: b}
			if o.strict {
				return FilesResult{Files: files.Clone(), Failed: []Failure{f}}, fmt.Errorf("%w: %s", ErrSearchNotFound, f)
			}
			res.Failed = append(res.Failed, f)
			continue
		}
		if next != out[target] {
			changed[target] = true
		}
		out[target] = next
		res.Applied++
	}

	for _, name := range out.Names() {
		if changed[name] {
			out[name] = fromLF(out[name], crlf[name])
			res.Changed = append(res.Changed, name)
		} else {
			out[name] = files[name]
		}
	}
	return res, nil
}

// TargetFile picks the file a block applies to, or "" when none fits.
func TargetFile(files extract.Files, b Block) string {
	target, _ := resolveTarget(files, b)
	return target
}

// resolveTarget returns the file a block applies to and the file its hint
// names, if any. A named file is used only when it contains the search
// text, or when the search is empty; otherwise the first file in display
// order containing the search text wins.
func resolveTarget(files extract.Files, b Block) (target, named string) {
	names := files.Names()
	if len(names) == 0 {
		return "", ""
	}

	mentioned := filesNamedIn(b.Hint, names)
	if len(mentioned) > 0 {
		named = mentioned[0]
	}

	if b.Search == "" {
		if named != "" {
			return named, named
		}
		return names[0], ""
	}
	for _, name := range mentioned {
		if strings.Contains(files[name], b.Search) {
			return name, named
		}
	}
	for _, name := range names {
		if strings.Contains(files[name], b.Search) {
			return name, named
		}
	}
	return "", named
}

// filesNamedIn returns the files whose name (or base name) is mentioned in
// hint, longest mention first. Ties keep the order of names.
func filesNamedIn(hint string, names []string) []string {
	if hint == "" {
		return nil
	}
	lower := strings.ToLower(hint)

	type mention struct {
		name string
		n    int
	}
	var found []mention
	for _, name := range names {
		best := 0
		for _, candidate := range []string{name, path.Base(name)} {
			c := strings.ToLower(candidate)
			if len(c) > best && strings.Contains(lower, c) {
				best = len(c)
			}
		}
		if best > 0 {
			found = append(found, mention{name, best})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].n > found[j].n })

	out := make([]string, len(found))
	for i, m := range found {
		out[i] = m.name
	}
	return out
}
