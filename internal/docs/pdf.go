package docs

import (
	"bytes"
	"compress/zlib"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
)

// ErrNoText is returned for PDFs without an extractable text layer.
var ErrNoText = errors.New("no extractable text found in PDF, it may contain scanned images")

const maxStreamSize = 16 << 20

// ExtractPDF returns the text of every content stream that draws text.
// Only FlateDecode and uncompressed streams are read; scanned PDFs have no
// text layer and yield ErrNoText.
func ExtractPDF(data []byte) ([]string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF")) {
		return nil, errors.New("not a valid PDF file")
	}

	pages := extractStreams(data)
	if len(pages) == 0 {
		if text := extractPlainText(data); text != "" {
			pages = []string{text}
		}
	}
	if len(pages) == 0 {
		return nil, ErrNoText
	}
	return pages, nil
}

var (
	streamKeyword    = []byte("stream")
	endstreamKeyword = []byte("endstream")
)

func extractStreams(data []byte) []string {
	var pages []string
	pos := 0

	for {
		rel := bytes.Index(data[pos:], streamKeyword)
		if rel == -1 {
			break
		}
		keyword := pos + rel
		start := keyword + len(streamKeyword)

		// The keyword is followed by CRLF or LF
		if start < len(data) && data[start] == '\r' {
			start++
		}
		if start < len(data) && data[start] == '\n' {
			start++
		}

		end := bytes.Index(data[start:], endstreamKeyword)
		if end == -1 {
			break
		}
		end += start

		dict := data[pos:keyword]
		if i := bytes.LastIndex(dict, []byte("obj")); i >= 0 {
			dict = dict[i:]
		}

		if raw, ok := decodeStream(dict, data[start:end]); ok {
			if text := extractTextOperators(string(raw)); text != "" {
				pages = append(pages, text)
			}
		}

		pos = end + len(endstreamKeyword)
	}
	return pages
}

func decodeStream(dict, raw []byte) ([]byte, bool) {
	switch {
	case bytes.Contains(dict, []byte("/FlateDecode")):
		r, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, false
		}
		defer r.Close()
		out, err := io.ReadAll(io.LimitReader(r, maxStreamSize))
		// Truncated streams often still inflate most of their content
		if err != nil && len(out) == 0 {
			return nil, false
		}
		return out, true
	case bytes.Contains(dict, []byte("/Filter")):
		return nil, false
	}
	return raw, true
}

var (
	// A string or array shown by a text operator, in document order.
	textOpPattern = regexp.MustCompile(
		`\(((?:\\.|[^\\()])*)\)\s*(?:Tj|'|")|` +
			`\[((?:\\.|[^\\\]])*)\]\s*TJ|` +
			`<([0-9A-Fa-f\s]*)>\s*(?:Tj|'|")`)
	arrayItemPattern = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)|<([0-9A-Fa-f\s]*)>|(-?\d+(?:\.\d+)?)`)
	lineBreakPattern = regexp.MustCompile(`(?:^|\s)(?:Td|TD|Tm|T\*|ET)(?:\s|$)`)
)

// extractTextOperators reads Tj, TJ, ' and " operators. Text positioning
// between two shown strings becomes a line break.
func extractTextOperators(content string) string {
	var sb strings.Builder
	prevEnd := -1

	for _, m := range textOpPattern.FindAllStringSubmatchIndex(content, -1) {
		var text string
		switch {
		case m[2] >= 0:
			text = decodeString(content[m[2]:m[3]])
		case m[4] >= 0:
			text = extractFromArray(content[m[4]:m[5]])
		case m[6] >= 0:
			text = decodeHexString(content[m[6]:m[7]])
		}
		if text == "" {
			continue
		}

		if prevEnd >= 0 {
			gap := content[prevEnd:m[0]]
			op := strings.TrimSpace(content[m[0]:m[1]])
			if lineBreakPattern.MatchString(gap) || strings.HasSuffix(op, "'") || strings.HasSuffix(op, `"`) {
				sb.WriteString("\n")
			} else if !strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(text, " ") {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(text)
		prevEnd = m[1]
	}

	return strings.TrimSpace(sb.String())
}

// extractFromArray reads a TJ array. Large negative kerning separates words.
func extractFromArray(content string) string {
	var sb strings.Builder
	for _, m := range arrayItemPattern.FindAllStringSubmatch(content, -1) {
		switch {
		case m[1] != "" || strings.HasPrefix(m[0], "("):
			sb.WriteString(decodeString(m[1]))
		case strings.HasPrefix(m[0], "<"):
			sb.WriteString(decodeHexString(m[2]))
		case m[3] != "":
			if kern, err := strconv.ParseFloat(m[3], 64); err == nil && kern < -200 {
				sb.WriteString(" ")
			}
		}
	}
	return sb.String()
}

// decodeString decodes a PDF literal string with escape sequences.
func decodeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' || i+1 >= len(s) {
			sb.WriteByte(ch)
			continue
		}
		i++
		switch next := s[i]; next {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '\n':
			// Line continuation
		default:
			if next >= '0' && next <= '7' {
				j := i
				for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
					j++
				}
				if val, err := strconv.ParseUint(s[i:j], 8, 8); err == nil {
					sb.WriteRune(rune(val))
				}
				i = j - 1
				continue
			}
			sb.WriteByte(next)
		}
	}
	return sb.String()
}

// decodeHexString decodes a PDF hex string, including UTF-16BE strings
// marked with a byte order mark.
func decodeHexString(s string) string {
	s = strings.Join(strings.Fields(s), "")
	if len(s)%2 != 0 {
		s += "0"
	}

	raw := make([]byte, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		val, err := strconv.ParseUint(s[i:i+2], 16, 8)
		if err != nil {
			return ""
		}
		raw = append(raw, byte(val))
	}

	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		units := make([]uint16, 0, len(raw)/2)
		for i := 2; i+1 < len(raw); i += 2 {
			units = append(units, uint16(raw[i])<<8|uint16(raw[i+1]))
		}
		return string(utf16.Decode(units))
	}

	var sb strings.Builder
	for _, b := range raw {
		if b >= 32 && b < 127 {
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

// extractPlainText collects readable ASCII words from the raw file.
func extractPlainText(data []byte) string {
	const minWordLen = 4
	var words []string
	var current []byte

	flush := func() {
		if len(current) >= minWordLen && isReadableWord(string(current)) {
			words = append(words, string(current))
		}
		current = current[:0]
	}
	for _, b := range data {
		if b >= 32 && b < 127 {
			current = append(current, b)
			continue
		}
		flush()
	}
	flush()

	return strings.Join(words, " ")
}

func isReadableWord(s string) bool {
	for _, kw := range []string{"obj", "endobj", "stream", "endstream", "%PDF", "xref", "trailer", "startxref"} {
		if strings.HasPrefix(s, kw) {
			return false
		}
	}
	if strings.ContainsAny(s, "/<>[]") {
		return false
	}

	letters := 0
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
			letters++
		}
	}
	return float64(letters)/float64(len(s)) > 0.5
}
