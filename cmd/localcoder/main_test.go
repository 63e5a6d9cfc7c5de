package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"localcoder/internal/extract"
	"localcoder/internal/prompts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "localcoder version "+version+"\n", out)
}

func TestExtractFromStdin(t *testing.T) {
	reply := "Here you go:\n```html\n<h1>Hello</h1>\n```\nEnjoy."
	out, _, err := execute(t, reply, "extract")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hello</h1>\n", out)
}

func TestExtractWritesFiles(t *testing.T) {
	dir := t.TempDir()
	reply := "```python\nprint('hi')\n```"
	_, _, err := execute(t, reply, "extract", "--type", "python", "--out", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "main.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", strings.TrimSpace(string(data)))
}

func TestExtractWithoutCode(t *testing.T) {
	_, _, err := execute(t, "   \n", "extract")
	assert.Error(t, err)
}

func TestPatchPrintsDiffAndWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(target, []byte("<h1>Old</h1>\n<p>Body</p>\n"), 0o644))

	reply := "Changing the heading.\n<<<<<<< SEARCH\n<h1>Old</h1>\n=======\n<h1>New</h1>\n>>>>>>> REPLACE\n"
	out, errOut, err := execute(t, reply, "patch", "--file", target, "--write")
	require.NoError(t, err)

	assert.Contains(t, out, "-<h1>Old</h1>")
	assert.Contains(t, out, "+<h1>New</h1>")
	assert.Contains(t, errOut, "1 of 1 block(s) applied")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "<h1>New</h1>\n<p>Body</p>\n", string(data))
}

func TestPatchReportsFailedBlocks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(target, []byte("<h1>Old</h1>\n"), 0o644))

	reply := "<<<<<<< SEARCH\n<h2>Missing</h2>\n=======\n<h2>x</h2>\n>>>>>>> REPLACE\n"
	_, errOut, err := execute(t, reply, "patch", "--file", target)
	require.NoError(t, err)
	assert.Contains(t, errOut, "search text not found")

	_, _, err = execute(t, reply, "patch", "--file", target, "--strict")
	assert.Error(t, err)

	data, _ := os.ReadFile(target)
	assert.Equal(t, "<h1>Old</h1>\n", string(data))
}

func TestPatchRequiresFile(t *testing.T) {
	_, _, err := execute(t, "x", "patch")
	assert.Error(t, err)
}

func TestOutputFiles(t *testing.T) {
	assert.Equal(t, extract.Files{"main.js": "x"}, outputFiles(extract.Result{OutputType: prompts.JavaScript, Code: "x"}))
	assert.Equal(t, extract.Files{"main.txt": "x"}, outputFiles(extract.Result{OutputType: prompts.Other, Code: "x"}))

	files := extract.Files{extract.IndexHTML: "<p>"}
	assert.Equal(t, files, outputFiles(extract.Result{OutputType: prompts.HTML, Files: files}))
}

func TestReadInput(t *testing.T) {
	got, err := readInput(strings.NewReader(""), []string{"a", "page"})
	require.NoError(t, err)
	assert.Equal(t, "a page", got)

	got, err = readInput(strings.NewReader("  from stdin \n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	_, err = readInput(strings.NewReader(""), nil)
	assert.Error(t, err)
}
