package splitter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docqa/internal/domain"
)

// sentence-terminating boundaries, tried in order during backward search
var sentenceBreaks = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

// TextSplitter cuts text into overlapping chunks of at most chunkSize
// characters, preferring paragraph and sentence boundaries over hard cuts.
type TextSplitter struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) *TextSplitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	return &TextSplitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the ordered chunks of text. Sizes and offsets count
// characters, not bytes, so multibyte text is never cut mid-rune. Empty
// input yields nil; chunks that trim to nothing are dropped.
func (s *TextSplitter) Split(text string) []string {
	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.chunkSize
		if end >= len(runes) {
			// The window covers the rest of the text; no boundary search.
			end = len(runes)
		} else {
			// Prefer a paragraph break, then the nearest sentence boundary.
			window := string(runes[start:end])
			if p := strings.LastIndex(window, "\n\n"); p > 0 {
				end = start + utf8.RuneCountInString(window[:p]) + 2
			} else {
				for _, br := range sentenceBreaks {
					if p := strings.LastIndex(window, br); p > 0 {
						end = start + utf8.RuneCountInString(window[:p]) + len(br)
						break
					}
				}
			}
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		next := end - s.overlap
		if next <= start {
			// Overlap would stall or move backwards; force forward progress.
			next = end
		}
		start = next
	}
	return chunks
}

// SplitDocuments splits every document in order and tags each chunk with
// doc_id, chunk_id, chunk_index and total_chunks merged into a copy of the
// document's metadata. The input documents are never mutated.
func (s *TextSplitter) SplitDocuments(documents []domain.Document) []domain.Chunk {
	var all []domain.Chunk
	for docIdx, doc := range documents {
		parts := s.Split(doc.Text)
		for chunkIdx, part := range parts {
			md := make(map[string]any, len(doc.Metadata)+4)
			for k, v := range doc.Metadata {
				md[k] = v
			}
			md["doc_id"] = docIdx
			md["chunk_id"] = fmt.Sprintf("%d_%d", docIdx, chunkIdx)
			md["chunk_index"] = chunkIdx
			md["total_chunks"] = len(parts)
			all = append(all, domain.Chunk{Text: part, Metadata: md})
		}
	}
	return all
}
