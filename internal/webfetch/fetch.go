// Package webfetch downloads a web page and reduces it to something a model
// can redesign.
package webfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"localcoder/internal/logging"
	"localcoder/internal/security"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultMaxBody = 1 << 20
	maxHTMLChars   = 30000
	maxTextChars   = 20000
)

// Page is a fetched and cleaned web page.
type Page struct {
	URL   string
	Title string
	HTML  string // markup with scripts and styles removed, links absolute
	Text  string // markdown-like rendering of the body
}

// Validator checks that a URL may be fetched.
type Validator interface {
	Validate(ctx context.Context, rawURL string) (*url.URL, error)
}

// Fetcher downloads pages on behalf of the user.
type Fetcher struct {
	client    *http.Client
	validator Validator
	maxBody   int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithValidator overrides the URL validator.
func WithValidator(v Validator) Option {
	return func(f *Fetcher) { f.validator = v }
}

// WithMaxBody sets the largest response body read, in bytes.
func WithMaxBody(n int64) Option {
	return func(f *Fetcher) { f.maxBody = n }
}

// New creates a Fetcher that refuses private and loopback addresses.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		validator: security.DefaultURLValidator,
		maxBody:   defaultMaxBody,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = security.CreateFetchHTTPClient(security.DefaultURLValidator, 30*time.Second)
	}
	return f
}

// Fetch downloads rawURL. A URL without a scheme is assumed to be https.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL != "" && !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	u, err := f.validator.Validate(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "localcoder/1.0 (+https://ollama.com)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType != "" && !strings.Contains(contentType, "html") && !strings.HasPrefix(contentType, "text/") {
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	// Relative links resolve against the final URL after redirects
	base := u
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}

	page, err := Parse(body, base)
	if err != nil {
		return nil, err
	}
	logging.Debug("fetched page", "url", page.URL, "title", page.Title,
		"html_len", len(page.HTML), "text_len", len(page.Text))
	return page, nil
}

// Parse cleans an HTML document fetched from base.
func Parse(body []byte, base *url.URL) (*Page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	clean(doc, base)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}

	return &Page{
		URL:   base.String(),
		Title: title(doc),
		HTML:  truncate(buf.String(), maxHTMLChars),
		Text:  truncate(markdown(doc), maxTextChars),
	}, nil
}

var errStop = errors.New("stop")

func title(doc *html.Node) string {
	var out string
	_ = walk(doc, func(n *html.Node) error {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			out = strings.TrimSpace(textOf(n))
			return errStop
		}
		return nil
	})
	return collapseSpace(out)
}

// walk visits n and its descendants depth-first until fn returns an error.
func walk(n *html.Node, fn func(*html.Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	_ = walk(n, func(c *html.Node) error {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return nil
	})
	return sb.String()
}

var removedTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
}

var urlAttrs = map[string]bool{"src": true, "href": true, "action": true, "poster": true}

// clean drops scripts, styles and comments and makes URL attributes absolute.
func clean(n *html.Node, base *url.URL) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && removedTags[c.DataAtom]:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && c.DataAtom == atom.Link && isStylesheet(c):
			n.RemoveChild(c)
		default:
			if c.Type == html.ElementNode {
				absolutize(c, base)
			}
			clean(c, base)
		}
		c = next
	}
}

func isStylesheet(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "rel" && strings.Contains(strings.ToLower(a.Val), "stylesheet") {
			return true
		}
	}
	return false
}

func absolutize(n *html.Node, base *url.URL) {
	for i, a := range n.Attr {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			n.Attr[i].Val = ""
			continue
		}
		if !urlAttrs[a.Key] || a.Val == "" || strings.HasPrefix(a.Val, "#") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
			n.Attr[i].Val = "#"
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(a.Val))
		if err != nil {
			continue
		}
		n.Attr[i].Val = base.ResolveReference(ref).String()
	}
}

var (
	spaceRe     = regexp.MustCompile(`\s+`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
)

func collapseSpace(s string) string {
	return spaceRe.ReplaceAllString(s, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n\n... (content truncated)"
}
