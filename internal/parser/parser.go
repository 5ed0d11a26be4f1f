// Package parser extracts normalized text and metadata from document files.
// Formats are dispatched by file extension through a fixed table.
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"docqa/internal/domain"
)

// ParseFunc parses one file into one or more documents (PDF yields one per page).
type ParseFunc func(path string) ([]domain.Document, error)

var parsers = map[string]ParseFunc{
	".txt":  parseText,
	".md":   parseMarkdown,
	".pdf":  parsePDF,
	".docx": parseDOCX,
	".doc":  parseDOCX,
}

// Supported reports whether files with the given extension can be parsed.
func Supported(ext string) bool {
	_, ok := parsers[strings.ToLower(ext)]
	return ok
}

// Extensions lists the supported file extensions.
func Extensions() []string {
	out := make([]string, 0, len(parsers))
	for ext := range parsers {
		out = append(out, ext)
	}
	return out
}

// Parse dispatches on the file extension. Unknown extensions are an error.
func Parse(path string) ([]domain.Document, error) {
	fn, ok := parsers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}
	return fn(path)
}

func parseText(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []domain.Document{{
		Text:     cleanText(string(data)),
		Metadata: fileMetadata(path),
	}}, nil
}

var (
	mdCodeFence = regexp.MustCompile("(?s)```.*?```")
	mdHeading   = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	mdLink      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdEmphasis  = regexp.MustCompile("[`*_]")
)

func parseMarkdown(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(data)
	text = mdCodeFence.ReplaceAllString(text, "")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdEmphasis.ReplaceAllString(text, "")
	return []domain.Document{{
		Text:     cleanText(text),
		Metadata: fileMetadata(path),
	}}, nil
}

// cleanText collapses runs of spaces and drops blank lines.
func cleanText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func fileMetadata(path string) map[string]any {
	md := map[string]any{
		"file_name": filepath.Base(path),
		"file_path": path,
		"file_type": strings.ToLower(filepath.Ext(path)),
	}
	if info, err := os.Stat(path); err == nil {
		md["size_bytes"] = info.Size()
	}
	return md
}
