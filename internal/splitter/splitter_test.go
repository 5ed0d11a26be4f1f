package splitter

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := New(500, 100)
	chunks := s.Split("  A short note.  ")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short note.", chunks[0])
}

func TestSplitExactChunkSizeSingleChunk(t *testing.T) {
	// A text of exactly chunkSize characters must not be cut at an
	// interior sentence boundary.
	text := "One sentence ends here. Another follows."
	s := New(len([]rune(text)), 0)
	chunks := s.Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitCountsCharactersNotBytes(t *testing.T) {
	// 300 characters of two-byte runes stay within a 500-character window.
	text := strings.Repeat("д", 300)
	chunks := New(500, 100).Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitHardCutNeverSplitsRune(t *testing.T) {
	text := strings.Repeat("д", 120)
	chunks := New(50, 0).Split(text)
	require.Len(t, chunks, 3)
	total := 0
	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch))
		total += utf8.RuneCountInString(ch)
	}
	assert.Equal(t, 120, total)
	assert.Equal(t, 50, utf8.RuneCountInString(chunks[0]))
}

func TestSplitMultibyteSentenceBoundary(t *testing.T) {
	text := "Москва столица России. Небо сегодня синее и ясное."
	s := New(30, 0)
	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "Москва столица России.", chunks[0])
	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch))
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := New(500, 100)
	assert.Nil(t, s.Split(""))
}

func TestSplitWhitespaceOnlyDropped(t *testing.T) {
	s := New(10, 0)
	assert.Nil(t, s.Split("   \n\n   \t  "))
}

func TestSplitPrefersParagraphBreak(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph follows with more words than the first."
	s := New(40, 0)
	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "First paragraph here.", chunks[0])
}

func TestSplitPrefersSentenceBreak(t *testing.T) {
	text := "One sentence ends here. Another keeps going for quite a while afterwards."
	s := New(40, 0)
	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "One sentence ends here.", chunks[0])
}

func TestSplitHardCutWithoutBoundary(t *testing.T) {
	text := strings.Repeat("a", 120)
	s := New(50, 0)
	chunks := s.Split(text)
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("a", 50), chunks[0])
	assert.Equal(t, strings.Repeat("a", 20), chunks[2])
}

func TestSplitTerminatesWithLargeOverlap(t *testing.T) {
	// overlap >= chunkSize-1 must not stall the window walk
	text := strings.Repeat("word ", 200)
	for _, overlap := range []int{49, 50} {
		s := New(50, overlap)
		chunks := s.Split(text)
		assert.NotEmpty(t, chunks, "overlap=%d", overlap)
	}
}

func TestSplitChunkCountBounded(t *testing.T) {
	text := strings.Repeat("x", 1000)
	chunkSize, overlap := 100, 20
	s := New(chunkSize, overlap)
	chunks := s.Split(text)
	bound := (len(text)+(chunkSize-overlap)-1)/(chunkSize-overlap) + 2
	assert.LessOrEqual(t, len(chunks), bound)
}

func TestSplitDocumentsMetadata(t *testing.T) {
	docs := []domain.Document{
		{Text: "Alpha one. Alpha two. Alpha three.", Metadata: map[string]any{"file_name": "a.txt"}},
		{Text: "Beta.", Metadata: map[string]any{"file_name": "b.txt"}},
	}
	s := New(12, 0)
	chunks := s.SplitDocuments(docs)
	require.NotEmpty(t, chunks)

	perDoc := map[int]int{}
	seen := map[string]bool{}
	for _, ch := range chunks {
		perDoc[ch.Metadata["doc_id"].(int)]++
		id := ch.Metadata["chunk_id"].(string)
		assert.False(t, seen[id], "duplicate chunk_id %s", id)
		seen[id] = true
		assert.Less(t, ch.Metadata["chunk_index"].(int), ch.Metadata["total_chunks"].(int))
	}
	for _, ch := range chunks {
		assert.Equal(t, perDoc[ch.Metadata["doc_id"].(int)], ch.Metadata["total_chunks"].(int))
	}
	// chunk_id format and source metadata carried over
	assert.Equal(t, "0_0", chunks[0].Metadata["chunk_id"])
	assert.Equal(t, "a.txt", chunks[0].Metadata["file_name"])
}

func TestSplitDocumentsDoesNotMutateInput(t *testing.T) {
	md := map[string]any{"file_name": "a.txt"}
	docs := []domain.Document{{Text: "Some text.", Metadata: md}}
	New(500, 100).SplitDocuments(docs)
	assert.Equal(t, map[string]any{"file_name": "a.txt"}, md)
}

func TestSplitDocumentsOrder(t *testing.T) {
	var docs []domain.Document
	for i := 0; i < 3; i++ {
		docs = append(docs, domain.Document{Text: fmt.Sprintf("Document %d.", i), Metadata: map[string]any{}})
	}
	chunks := New(500, 100).SplitDocuments(docs)
	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Metadata["doc_id"])
	}
}
