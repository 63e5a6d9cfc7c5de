package docs

import (
	"strings"
	"unicode/utf8"

	"localcoder/internal/config"
)

// DefaultSeparators are tried in order, from paragraphs down to characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter recursively splits text on the first separator present, then
// merges the pieces into chunks of at most ChunkSize characters, each
// sharing up to ChunkOverlap characters with its predecessor.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewSplitter creates a splitter with the default separators.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   DefaultSeparators,
	}
}

// SplitDocuments splits every page, keeping its source and page number.
func (s *Splitter) SplitDocuments(pages []Document) []Document {
	var out []Document
	for _, page := range pages {
		for _, chunk := range s.SplitText(page.Content) {
			out = append(out, Document{Content: chunk, Source: page.Source, Page: page.Page})
		}
	}
	return out
}

// SplitText splits text into chunks.
func (s *Splitter) SplitText(text string) []string {
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}
	return s.split(text, seps)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var final, good []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if length(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// splitKeepingSeparator splits text on sep, leaving the separator at the
// start of each following piece. Empty pieces are dropped.
func splitKeepingSeparator(text, sep string) []string {
	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, sep)
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

// merge joins small pieces into chunks, carrying trailing pieces over as
// overlap.
func (s *Splitter) merge(pieces []string) []string {
	var chunks, current []string
	total := 0

	for _, piece := range pieces {
		n := length(piece)
		if total+n > s.ChunkSize && len(current) > 0 {
			if chunk := join(current); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.ChunkOverlap || (total+n > s.ChunkSize && total > 0) {
				total -= length(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if chunk := join(current); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func join(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
