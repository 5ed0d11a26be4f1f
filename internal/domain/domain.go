package domain

// Document is one parsed unit of source material: the extracted text plus
// provenance metadata (file name, path, page number where applicable).
type Document struct {
	Text     string
	Metadata map[string]any
}

// Chunk is a bounded-size segment of a document, created once at ingestion
// and never mutated. Its metadata carries the owning document's fields plus
// doc_id, chunk_id, chunk_index and total_chunks.
type Chunk struct {
	Text     string
	Metadata map[string]any
}

// RetrievedContext is a chunk recovered from the index at query time,
// scored against the query under the cosine convention (similarity = 1 - distance).
type RetrievedContext struct {
	Text       string
	Metadata   map[string]any
	Similarity float64
}

// Source is a preview of a retrieved context attached to an answer.
type Source struct {
	Text       string
	Metadata   map[string]any
	Similarity float64
}

// Answer is the result of one question. When generation fails, Text holds a
// fixed fallback, Sources is empty and Err describes the failure.
type Answer struct {
	Text        string
	Sources     []Source
	SourceCount int
	Err         string
}

// IndexStats summarizes one ingestion run.
type IndexStats struct {
	ChunksIndexed      int
	DocumentsProcessed int
}

// Embedder converts text into fixed-dimension numeric vectors.
// EmbedMany preserves input order and processes sequential batches.
// Dimension is constant for the lifetime of a loaded model.
type Embedder interface {
	EmbedOne(text string) ([]float64, error)
	EmbedMany(texts []string) ([][]float64, error)
	Dimension() int
}

// SearchResults holds four arrays aligned by position, ordered by
// ascending distance.
type SearchResults struct {
	IDs       []string
	Documents []string
	Distances []float64
	Metadatas []map[string]any
}

// VectorIndex is a named, persistent similarity index with a configured
// distance metric. Record ids are unique; adding a duplicate id overwrites.
type VectorIndex interface {
	// Add stores texts with their vectors and metadata. If ids is nil,
	// sequential ids "doc_{n}" are assigned starting at the current count.
	Add(ids []string, texts []string, vectors [][]float64, metadatas []map[string]any) error
	// Search returns the topK closest records, optionally restricted by
	// metadata equality before ranking.
	Search(vector []float64, topK int, filter map[string]any) (*SearchResults, error)
	// Update overwrites the provided fields of one record and leaves nil
	// fields unchanged.
	Update(id string, text *string, vector []float64, metadata map[string]any) error
	// Delete removes one record; deleting an absent id is not an error.
	Delete(id string) error
	// DeleteCollection drops all records and the collection identity.
	DeleteCollection() error
	Count() (int, error)
}

// GenerationClient issues a synchronous completion request to a text
// generation provider. systemPrompt may be empty.
type GenerationClient interface {
	Generate(prompt, systemPrompt string) (string, error)
}
