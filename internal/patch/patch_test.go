package patch

import (
	"strings"
	"testing"

	"localcoder/internal/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html>
  <body>
    <h1>Old Title</h1>
    <p>This paragraph will be deleted.</p>
  </body>
</html>`

func TestParse(t *testing.T) {
	reply := "Changing the title in index.html...\n" +
		"```\n" +
		"<<<<<<< SEARCH\n" +
		"    <h1>Old Title</h1>\n" +
		"=======\n" +
		"    <h1>New Title</h1>\n" +
		">>>>>>> REPLACE\n" +
		"<<<<<<< SEARCH\n" +
		"    <p>This paragraph will be deleted.</p>\n" +
		"=======\n" +
		">>>>>>> REPLACE\n" +
		"```\n"

	blocks, err := Parse(reply)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, "    <h1>Old Title</h1>", blocks[0].Search)
	assert.Equal(t, "    <h1>New Title</h1>", blocks[0].Replace)
	assert.Equal(t, "Changing the title in index.html...", blocks[0].Hint)
	assert.Equal(t, 3, blocks[0].Line)

	assert.Equal(t, "", blocks[1].Replace)
	// The hint carries over to consecutive blocks
	assert.Equal(t, blocks[0].Hint, blocks[1].Hint)
}

func TestParseCRLFAndMultiline(t *testing.T) {
	reply := "<<<<<<< SEARCH\r\nbody {\r\n    color: red;\r\n}\r\n=======\r\nbody {\r\n    color: blue;\r\n}\r\n>>>>>>> REPLACE\r\n"
	blocks, err := Parse(reply)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "body {\n    color: red;\n}", blocks[0].Search)
	assert.Equal(t, "body {\n    color: blue;\n}", blocks[0].Replace)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("<<<<<<< SEARCH\nfoo\n=======\nbar\n")
	assert.ErrorIs(t, err, ErrUnterminated)

	_, err = Parse("<<<<<<< SEARCH\nfoo\n>>>>>>> REPLACE\n")
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Parse("<<<<<<< SEARCH\na\n=======\nb\n>>>>>>> REPLACE\n<<<<<<< SEARCH\nc\n=======\n")
	assert.ErrorIs(t, err, ErrUnterminated)

	blocks, err := Parse("no blocks here")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestParseStrayMarkersAreExplanation(t *testing.T) {
	reply := "Summary\n=======\nSome notes.\n>>>>>>> REPLACE\n" +
		"<<<<<<< SEARCH\n<h1>Hi</h1>\n=======\n<h1>Hello</h1>\n>>>>>>> REPLACE\n"

	blocks, err := Parse(reply)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "<h1>Hi</h1>", blocks[0].Search)
	assert.Equal(t, "<h1>Hello</h1>", blocks[0].Replace)
	assert.Equal(t, "Some notes.", blocks[0].Hint)

	blocks, err = Parse("text\n>>>>>>> REPLACE\n")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestHasSearchMarker(t *testing.T) {
	assert.True(t, HasSearchMarker("Fixing it.\n<<<<<<< SEARCH\n<h1>Hi</h1>\n=="))
	assert.False(t, HasSearchMarker("```html\n<p>fresh page</p>\n```"))
}

func TestHasBlocks(t *testing.T) {
	assert.True(t, HasBlocks("x\n<<<<<<< SEARCH\na\n=======\nb\n>>>>>>> REPLACE"))
	assert.False(t, HasBlocks("<<<<<<< SEARCH\na\n=======\nb"))
	assert.False(t, HasBlocks("```html\n<p>fresh page</p>\n```"))
	assert.False(t, HasBlocks("inline <<<<<<< SEARCH mention >>>>>>> REPLACE"))
}

func TestApplyReplaceAndDelete(t *testing.T) {
	blocks := []Block{
		{Search: "    <h1>Old Title</h1>", Replace: "    <h1>New Title</h1>"},
		{Search: "    <p>This paragraph will be deleted.</p>", Replace: ""},
	}
	res, err := Apply(page, blocks)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Empty(t, res.Failed)
	assert.Equal(t, `<html>
  <body>
    <h1>New Title</h1>
  </body>
</html>`, res.Content)
}

func TestApplyInsertAtBeginning(t *testing.T) {
	res, err := Apply("<p>x</p>", []Block{{Search: "", Replace: "<!DOCTYPE html>"}})
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html>\n<p>x</p>", res.Content)

	res, err = Apply("", []Block{{Search: "", Replace: "first"}})
	require.NoError(t, err)
	assert.Equal(t, "first", res.Content)
}

func TestApplyInsertAfterAnchor(t *testing.T) {
	res, err := Apply(page, []Block{{
		Search:  "  </body>",
		Replace: "    <script>console.log(\"Added script\");</script>\n  </body>",
	}})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "deleted.</p>\n    <script>console.log(\"Added script\");</script>\n  </body>")
}

func TestApplyIsOrderedAndFirstOccurrenceOnly(t *testing.T) {
	content := "a\na\nb"
	res, err := Apply(content, []Block{
		{Search: "a", Replace: "c"},
		{Search: "c\na", Replace: "d"},
	})
	require.NoError(t, err)
	// The second block only matches the first block's output
	assert.Equal(t, "d\nb", res.Content)
}

func TestApplyExactWhitespace(t *testing.T) {
	res, err := Apply(page, []Block{{Search: "<h1>Old Title</h1>\n  <p>", Replace: "x"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, page, res.Content)

	res, err = Apply(page, []Block{{Search: "  <h1>Old Title</h1>", Replace: "<h1>T</h1>"}})
	require.NoError(t, err)
	// Matching is by substring, so a shallower indent still matches inside a deeper one
	assert.Contains(t, res.Content, "  <h1>T</h1>")
}

func TestApplyLenientKeepsGoing(t *testing.T) {
	res, err := Apply(page, []Block{
		{Search: "<h2>missing</h2>", Replace: "x"},
		{Search: "Old Title", Replace: "New Title"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 0, res.Failed[0].Index)
	assert.Contains(t, res.Content, "New Title")
	assert.Contains(t, res.Failed[0].String(), "block 1")
}

func TestApplyStrictAborts(t *testing.T) {
	res, err := Apply(page, []Block{
		{Search: "Old Title", Replace: "New Title"},
		{Search: "<h2>missing</h2>", Replace: "x"},
	}, Strict())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchNotFound)
	assert.Equal(t, page, res.Content)
	assert.Equal(t, 0, res.Applied)
}

func TestApplyFiles(t *testing.T) {
	files := extract.Files{
		extract.IndexHTML: "<title>Old Title</title>\n<script src=\"index.js\"></script>",
		extract.IndexJS:   "// Existing code",
		extract.StyleCSS:  "body {\n    background-color: white;\n}",
	}

	blocks, err := Parse(strings.Join([]string{
		"Changing background color in style.css...",
		"<<<<<<< SEARCH",
		"body {",
		"    background-color: white;",
		"}",
		"=======",
		"body {",
		"    background-color: #f0f0f0;",
		"}",
		">>>>>>> REPLACE",
		"Now the title.",
		"<<<<<<< SEARCH",
		"<title>Old Title</title>",
		"=======",
		"<title>New Title</title>",
		">>>>>>> REPLACE",
		"And index.js:",
		"<<<<<<< SEARCH",
		"// nothing like this",
		"=======",
		"x",
		">>>>>>> REPLACE",
	}, "\n"))
	require.NoError(t, err)

	res, err := ApplyFiles(files, blocks)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, extract.IndexJS, res.Failed[0].File)
	assert.Equal(t, []string{extract.IndexHTML, extract.StyleCSS}, res.Changed)
	assert.Contains(t, res.Files[extract.StyleCSS], "#f0f0f0")
	assert.Contains(t, res.Files[extract.IndexHTML], "New Title")

	// Input files are not modified
	assert.Contains(t, files[extract.StyleCSS], "white")

	_, err = ApplyFiles(files, blocks, Strict())
	assert.ErrorIs(t, err, ErrSearchNotFound)
}

func TestApplyFilesHintWithoutSearchText(t *testing.T) {
	files := extract.Files{
		extract.IndexHTML: "<script src=\"index.js\"></script>",
		extract.IndexJS:   "let x = 1;\nconsole.log(x);",
		extract.StyleCSS:  "body { color: red; }",
	}

	// Prose naming two files
	blocks, err := Parse("In index.js change x, referenced from index.html\n" +
		"<<<<<<< SEARCH\nlet x = 1;\n=======\nlet x = 2;\n>>>>>>> REPLACE\n")
	require.NoError(t, err)
	res, err := ApplyFiles(files, blocks)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Empty(t, res.Failed)
	assert.Equal(t, []string{extract.IndexJS}, res.Changed)

	// Hint carried over from the previous block
	blocks, err = Parse("Update style.css\n" +
		"<<<<<<< SEARCH\nbody { color: red; }\n=======\nbody { color: blue; }\n>>>>>>> REPLACE\n" +
		"<<<<<<< SEARCH\nconsole.log(x);\n=======\nconsole.info(x);\n>>>>>>> REPLACE\n")
	require.NoError(t, err)
	require.Equal(t, blocks[0].Hint, blocks[1].Hint)
	res, err = ApplyFiles(files, blocks)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, []string{extract.IndexJS, extract.StyleCSS}, res.Changed)
	assert.Contains(t, res.Files[extract.IndexJS], "console.info(x);")
	assert.Contains(t, res.Files[extract.StyleCSS], "color: blue")

	// Empty search goes to the named file
	blocks = []Block{{Search: "", Replace: "// top", Hint: "At the top of index.js"}}
	res, err = ApplyFiles(files, blocks)
	require.NoError(t, err)
	assert.Equal(t, []string{extract.IndexJS}, res.Changed)
}

func TestApplyCRLFContent(t *testing.T) {
	content := "<ul>\r\n  <li>a</li>\r\n  <li>b</li>\r\n</ul>\r\n"
	blocks := []Block{{Search: "  <li>a</li>\n  <li>b</li>", Replace: "  <li>a</li>\n  <li>c</li>"}}

	res, err := Apply(content, blocks)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, "<ul>\r\n  <li>a</li>\r\n  <li>c</li>\r\n</ul>\r\n", res.Content)

	files := extract.Files{extract.IndexHTML: content, extract.StyleCSS: "a {}\r\n"}
	fres, err := ApplyFiles(files, blocks)
	require.NoError(t, err)
	assert.Equal(t, res.Content, fres.Files[extract.IndexHTML])
	assert.Equal(t, "a {}\r\n", fres.Files[extract.StyleCSS])

	// Nothing applied leaves the content as it was
	res, err = Apply(content, []Block{{Search: "<ol>", Replace: "x"}})
	require.NoError(t, err)
	assert.Equal(t, content, res.Content)
}

func TestTargetFile(t *testing.T) {
	files := extract.Files{
		extract.AppSvelte:     "<h1>a</h1>",
		extract.AppCSS:        "h1 {}",
		"src/lib/Card.svelte": "<h1>a</h1>",
	}
	assert.Equal(t, "src/lib/Card.svelte", TargetFile(files, Block{Search: "<h1>a</h1>", Hint: "Update Card.svelte"}))
	assert.Equal(t, extract.AppSvelte, TargetFile(files, Block{Search: "<h1>a</h1>"}))
	assert.Equal(t, extract.AppSvelte, TargetFile(files, Block{Search: ""}))
	assert.Equal(t, "", TargetFile(files, Block{Search: "zzz"}))
	assert.Equal(t, extract.AppSvelte, TargetFile(files, Block{Search: "<h1>a</h1>", Hint: "Update app.css"}))
}

func TestDiff(t *testing.T) {
	out, stats := Diff("index.html", "a\nb\nc", "a\nB\nc\nd\n")
	assert.Equal(t, "--- index.html\n+++ index.html\n a\n-b\n+B\n c\n+d\n", out)
	assert.Equal(t, DiffStats{Added: 2, Removed: 1}, stats)
}
