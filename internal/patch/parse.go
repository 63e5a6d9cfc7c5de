// Package patch implements the SEARCH/REPLACE edit format used for
// follow-up changes to generated files.
//
// A block looks like:
//
//	<<<<<<< SEARCH
//	exact lines from the current file
//	=======
//	lines that replace them
//	>>>>>>> REPLACE
//
// Text outside blocks is free-form explanation. Search text is matched
// exactly, indentation included; there is no fuzzy matching.
package patch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"localcoder/internal/prompts"
)

var (
	// ErrUnterminated is returned when input ends inside a block.
	ErrUnterminated = errors.New("unterminated SEARCH/REPLACE block")
	// ErrMalformed is returned for markers out of order.
	ErrMalformed = errors.New("malformed SEARCH/REPLACE block")
)

// Block is one search/replace edit.
type Block struct {
	Search  string `json:"search"`
	Replace string `json:"replace"`
	// Hint is the last non-empty explanation line before the block; it may
	// name the file the block targets.
	Hint string `json:"hint,omitempty"`
	// Line is the 1-based line of the SEARCH marker in the parsed text.
	Line int `json:"line"`
}

type parseState int

const (
	stateOutside parseState = iota
	stateSearch
	stateReplace
)

// Parse extracts the blocks from a model reply in order of appearance.
func Parse(text string) ([]Block, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var (
		blocks  []Block
		state   = stateOutside
		hint    string
		cur     Block
		search  []string
		replace []string
	)

	for i, line := range lines {
		marker := strings.TrimSpace(line)

		switch state {
		case stateOutside:
			switch marker {
			case prompts.SearchStart:
				state = stateSearch
				cur = Block{Hint: hint, Line: i + 1}
				search, replace = nil, nil
			case prompts.Divider, prompts.ReplaceEnd:
				// Outside a block these are explanation, such as a
				// Markdown heading underline. They never name a file.
			default:
				if marker != "" && !strings.HasPrefix(marker, "```") {
					hint = marker
				}
			}

		case stateSearch:
			switch marker {
			case prompts.Divider:
				state = stateReplace
			case prompts.SearchStart, prompts.ReplaceEnd:
				return nil, fmt.Errorf("%w: %q before %q at line %d", ErrMalformed, marker, prompts.Divider, i+1)
			default:
				search = append(search, line)
			}

		case stateReplace:
			switch marker {
			case prompts.ReplaceEnd:
				cur.Search = strings.Join(search, "\n")
				cur.Replace = strings.Join(replace, "\n")
				blocks = append(blocks, cur)
				state = stateOutside
			case prompts.SearchStart:
				return nil, fmt.Errorf("%w: %q before %q at line %d", ErrMalformed, marker, prompts.ReplaceEnd, i+1)
			default:
				replace = append(replace, line)
			}
		}
	}

	if state != stateOutside {
		return nil, fmt.Errorf("%w: block starting at line %d", ErrUnterminated, cur.Line)
	}
	return blocks, nil
}

var (
	searchLine  = regexp.MustCompile(`(?m)^[ \t]*<<<<<<< SEARCH[ \t]*\r?$`)
	replaceLine = regexp.MustCompile(`(?m)^[ \t]*>>>>>>> REPLACE[ \t]*\r?$`)
)

// HasSearchMarker reports whether text contains a SEARCH marker line,
// whether or not the block it opens is complete.
func HasSearchMarker(text string) bool {
	return searchLine.MatchString(text)
}

// HasBlocks reports whether text contains at least one complete block.
func HasBlocks(text string) bool {
	loc := searchLine.FindStringIndex(text)
	return loc != nil && replaceLine.MatchString(text[loc[1]:])
}
