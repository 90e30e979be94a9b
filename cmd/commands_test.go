package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"document-qa/internal/parser"
	"document-qa/internal/testutil"
)

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	missing := filepath.Join(t.TempDir(), "none.yaml")
	rootCmd.SetArgs(append([]string{"--config", missing, "--log-level", "error"}, args...))
	return rootCmd.Execute()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", testutil.BuildPDF("One"))
	b := writeFile(t, dir, "b.pdf", testutil.BuildPDF("Two", "Three"))
	out := filepath.Join(dir, "nested", "merged.pdf")

	require.NoError(t, runCLI(t, "merge", "-o", out, a, b))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	pages, err := parser.PageTexts(data)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	require.Contains(t, pages[0], "One")
	require.Contains(t, pages[2], "Three")
}

func TestMergeCommandCorruptInput(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.pdf", testutil.BuildPDF("Fine"))
	bad := writeFile(t, dir, "bad.pdf", []byte("garbage"))
	out := filepath.Join(dir, "merged.pdf")

	require.Error(t, runCLI(t, "merge", "-o", out, good, bad))
	require.NoFileExists(t, out)
}

func TestAskDryRunNeedsNoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	dir := t.TempDir()
	doc := writeFile(t, dir, "notes.txt", []byte("first line\nsecond line"))

	require.NoError(t, runCLI(t, "ask", "--file", doc, "--dry-run"))
	require.ErrorContains(t, runCLI(t, "ask", "--file", doc, "--dry-run=false", "--question", "what?"), "OpenAI API Key not found")
}

func TestMediaPlaceholderKind(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "cat.png", []byte("png"))
	err := runCLI(t, "media", "--kind", "image", "--file", img, "--question", "what is it?")
	require.ErrorContains(t, err, "not yet supported")
}
