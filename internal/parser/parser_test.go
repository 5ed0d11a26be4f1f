package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse("report.xlsx")
	assert.ErrorContains(t, err, "unsupported file format")
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(".txt"))
	assert.True(t, Supported(".PDF"))
	assert.False(t, Supported(".xlsx"))
}

func TestParseText(t *testing.T) {
	path := writeFile(t, "note.txt", "Line   one.\n\n\n  Line two.  \n")
	docs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Line one.\nLine two.", docs[0].Text)
	assert.Equal(t, "note.txt", docs[0].Metadata["file_name"])
	assert.Equal(t, ".txt", docs[0].Metadata["file_type"])
	assert.Equal(t, path, docs[0].Metadata["file_path"])
	assert.NotZero(t, docs[0].Metadata["size_bytes"])
}

func TestParseMarkdownStripsMarkup(t *testing.T) {
	content := "# Title\n\nSome *emphasized* text with a [link](https://example.com).\n\n```go\ncode here\n```\n"
	path := writeFile(t, "doc.md", content)
	docs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	text := docs[0].Text
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Some emphasized text with a link.")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "code here")
	assert.NotContains(t, text, "https://example.com")
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func writeDOCX(t *testing.T, paragraphs []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		sb.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	sb.WriteString(`</w:body></w:document>`)
	_, err = w.Write([]byte(sb.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestParseDOCX(t *testing.T) {
	path := writeDOCX(t, []string{"First paragraph.", "Second paragraph."})
	docs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", docs[0].Text)
	assert.Equal(t, ".docx", docs[0].Metadata["file_type"])
}

func TestParseDOCXNotAZip(t *testing.T) {
	path := writeFile(t, "legacy.doc", "\xd0\xcf\x11\xe0 legacy binary")
	_, err := Parse(path)
	assert.Error(t, err)
}
