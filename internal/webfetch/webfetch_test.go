package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"localcoder/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html><head>
<title> Acme   Widgets </title>
<link rel="stylesheet" href="/main.css">
<style>body { color: red }</style>
<script src="/app.js"></script>
</head>
<body>
<!-- tracking -->
<nav><a href="/home">Home</a></nav>
<h1>Widgets</h1>
<p>Best <strong>widgets</strong> in town. <a href="/shop">Shop now</a></p>
<img src="img/logo.png" alt="Logo">
<button onclick="steal()">Buy</button>
<a href="javascript:alert(1)">bad</a>
<ul><li>Fast</li><li>Cheap</li></ul>
<script>alert("x")</script>
</body></html>`

type allowAll struct{}

func (allowAll) Validate(ctx context.Context, raw string) (*url.URL, error) {
	return url.Parse(raw)
}

func TestParse(t *testing.T) {
	base, _ := url.Parse("https://acme.test/products/")
	page, err := Parse([]byte(samplePage), base)
	require.NoError(t, err)

	assert.Equal(t, "Acme Widgets", page.Title)
	assert.Equal(t, "https://acme.test/products/", page.URL)

	assert.NotContains(t, page.HTML, "<script")
	assert.NotContains(t, page.HTML, "<style")
	assert.NotContains(t, page.HTML, "main.css")
	assert.NotContains(t, page.HTML, "tracking")
	assert.NotContains(t, page.HTML, "steal()")
	assert.NotContains(t, page.HTML, "javascript:")
	assert.Contains(t, page.HTML, `href="https://acme.test/shop"`)
	assert.Contains(t, page.HTML, `src="https://acme.test/products/img/logo.png"`)

	assert.Contains(t, page.Text, "# Widgets")
	assert.Contains(t, page.Text, "**widgets**")
	assert.Contains(t, page.Text, "(https://acme.test/shop)")
	assert.Contains(t, page.Text, "- Fast")
	assert.NotContains(t, page.Text, "Home")
	assert.NotContains(t, page.Text, "alert")
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/site/", http.StatusFound)
		case "/site/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(samplePage))
		case "/image":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(WithHTTPClient(srv.Client()), WithValidator(allowAll{}))

	page, err := f.Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, "Acme Widgets", page.Title)
	assert.Contains(t, page.HTML, `src="`+srv.URL+`/site/img/logo.png"`)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")

	_, err = f.Fetch(context.Background(), srv.URL+"/image")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestFetchBlocksPrivateAddresses(t *testing.T) {
	f := New()
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:8080/")
	require.Error(t, err)
	assert.ErrorIs(t, err, security.ErrBlockedURL)

	_, err = f.Fetch(context.Background(), "file:///etc/passwd")
	assert.ErrorIs(t, err, security.ErrBlockedURL)
}

func TestFetchBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>Big</title></head><body><p>aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa</p></body></html>"))
	}))
	defer srv.Close()

	f := New(WithHTTPClient(srv.Client()), WithValidator(allowAll{}), WithMaxBody(30))
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Big", page.Title)
	assert.NotContains(t, page.Text, "aaaa")
}
