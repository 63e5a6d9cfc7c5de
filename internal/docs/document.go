// Package docs loads documents for question answering and splits them into
// overlapping chunks.
package docs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"localcoder/internal/logging"

	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedFormat is returned for files that cannot be loaded.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Document is a page of text and where it came from.
type Document struct {
	Content string
	Source  string
	Page    int // 1-based; 0 for single-page formats
}

// Extensions lists the file types Load understands.
var Extensions = []string{".pdf", ".txt", ".md"}

// Supported reports whether path has a loadable extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads a file into pages.
func Load(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return Parse(path, data)
}

// Parse turns file contents into pages, choosing the format from name.
func Parse(name string, data []byte) ([]Document, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		pages, err := ExtractPDF(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(name), err)
		}
		out := make([]Document, 0, len(pages))
		for i, text := range pages {
			out = append(out, Document{Content: text, Source: name, Page: i + 1})
		}
		return out, nil
	case ".txt", ".md":
		text := strings.ReplaceAll(string(data), "\r\n", "\n")
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return []Document{{Content: text, Source: name}}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
}

// LoadAll loads files concurrently. Pages keep the order of paths.
func LoadAll(ctx context.Context, paths []string) ([]Document, error) {
	results := make([][]Document, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pages, err := Load(path)
			if err != nil {
				return err
			}
			results[i] = pages
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Document
	for i, pages := range results {
		logging.Debug("document loaded", "path", paths[i], "pages", len(pages))
		out = append(out, pages...)
	}
	return out, nil
}
