// Package pipeline composes the splitter, embedder, vector index and
// generation client into the question-answering core.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
	"docqa/internal/parser"
	"docqa/internal/splitter"
)

const (
	// answer returned when the generation call fails, whatever the cause
	fallbackAnswer = "An error occurred while generating the answer. Please try again later."

	sourcePreviewLen = 200
)

const systemPrompt = `You are an assistant for working with an organization's internal reference documents.
Your task is to answer user questions using only the information from the provided documents.

Rules:
- Be precise and use only facts from the documents
- Structure your answers for readability
- If the documents contradict each other, point it out
- If the information is insufficient, say so honestly
- When citing tables or formulas, present them clearly
- Always attribute the sources of your information`

// Pipeline answers questions against an indexed document corpus.
type Pipeline struct {
	embedder  domain.Embedder
	index     domain.VectorIndex
	llm       domain.GenerationClient
	splitter  *splitter.TextSplitter
	topK      int
	threshold float64
	logger    *logrus.Logger
}

type Config struct {
	Embedder           domain.Embedder
	Index              domain.VectorIndex
	LLM                domain.GenerationClient
	Splitter           *splitter.TextSplitter
	TopK               int
	RelevanceThreshold float64
	Logger             *logrus.Logger
}

func New(cfg Config) *Pipeline {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.Splitter == nil {
		cfg.Splitter = splitter.New(500, 100)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{
		embedder:  cfg.Embedder,
		index:     cfg.Index,
		llm:       cfg.LLM,
		splitter:  cfg.Splitter,
		topK:      cfg.TopK,
		threshold: cfg.RelevanceThreshold,
		logger:    logger,
	}
}

// fitter is implemented by embedders that learn from the corpus before
// producing vectors (the offline TF-IDF embedder).
type fitter interface {
	Fit(corpus []string) error
}

// Index chunks the documents, embeds the chunks and stores them.
func (p *Pipeline) Index(documents []domain.Document) (domain.IndexStats, error) {
	stats := domain.IndexStats{DocumentsProcessed: len(documents)}
	chunks := p.splitter.SplitDocuments(documents)
	if len(chunks) == 0 {
		p.logger.Warn("no chunks generated from documents")
		return stats, nil
	}
	texts := make([]string, len(chunks))
	metadatas := make([]map[string]any, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
		metadatas[i] = ch.Metadata
	}
	if f, ok := p.embedder.(fitter); ok {
		if err := f.Fit(texts); err != nil {
			return stats, fmt.Errorf("fit embedder: %w", err)
		}
	}
	vectors, err := p.embedder.EmbedMany(texts)
	if err != nil {
		return stats, fmt.Errorf("embed chunks: %w", err)
	}
	if err := p.index.Add(nil, texts, vectors, metadatas); err != nil {
		return stats, fmt.Errorf("add to index: %w", err)
	}
	stats.ChunksIndexed = len(chunks)
	p.logger.WithFields(logrus.Fields{
		"documents": len(documents),
		"chunks":    len(chunks),
	}).Info("indexed documents")
	return stats, nil
}

// IndexFiles parses and indexes files. A file that fails to parse is
// logged and skipped; it does not abort the rest of the batch.
func (p *Pipeline) IndexFiles(paths []string) (domain.IndexStats, error) {
	var documents []domain.Document
	parsed := 0
	for _, path := range paths {
		docs, err := parser.Parse(path)
		if err != nil {
			p.logger.WithError(err).WithField("file", path).Error("failed to parse document")
			continue
		}
		documents = append(documents, docs...)
		parsed++
	}
	stats, err := p.Index(documents)
	stats.DocumentsProcessed = parsed
	return stats, err
}

// RetrieveContext embeds the query, searches the index and keeps the
// candidates at or above the relevance threshold, in rank order.
func (p *Pipeline) RetrieveContext(query string) ([]domain.RetrievedContext, error) {
	vec, err := p.embedder.EmbedOne(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := p.index.Search(vec, p.topK, nil)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	var contexts []domain.RetrievedContext
	for i := range results.Documents {
		// cosine distance convention
		similarity := 1 - results.Distances[i]
		if similarity < p.threshold {
			continue
		}
		contexts = append(contexts, domain.RetrievedContext{
			Text:       results.Documents[i],
			Metadata:   results.Metadatas[i],
			Similarity: similarity,
		})
	}
	p.logger.WithField("relevant", len(contexts)).Info("retrieved context")
	return contexts, nil
}

// GeneratePrompt renders the numbered context blocks followed by the
// question and the answering instructions.
func (p *Pipeline) GeneratePrompt(query string, contexts []domain.RetrievedContext) string {
	if len(contexts) == 0 {
		return fmt.Sprintf("Question: %s\n\nAnswer: Unfortunately, I could not find any relevant documents to answer your question.", query)
	}
	var blocks []string
	for i, ctx := range contexts {
		source := "Unknown"
		if name, ok := ctx.Metadata["file_name"].(string); ok && name != "" {
			source = name
		}
		header := fmt.Sprintf("[Document %d] (Source: %s", i+1, source)
		if page, ok := ctx.Metadata["page_number"]; ok {
			header += fmt.Sprintf(", Page: %v", page)
		}
		header += ")"
		blocks = append(blocks, header+"\n"+ctx.Text+"\n")
	}
	return fmt.Sprintf(`Answer the user's question based on the provided documents.

CONTEXT:
%s

QUESTION: %s

INSTRUCTIONS:
1. Use only the information from the provided documents
2. If the information is insufficient for a complete answer, state this
3. Cite your sources by document number
4. Answer clearly and in a structured way
5. If the documents contain tables or formulas, use them verbatim in the answer

ANSWER:`, strings.Join(blocks, "\n"), query)
}

// GenerateSystemPrompt returns the fixed persona and policy string.
func (p *Pipeline) GenerateSystemPrompt() string {
	return systemPrompt
}

// AnswerQuestion runs retrieval, prompt assembly and generation. Generation
// failures of any kind are contained here: the caller gets a fixed fallback
// answer with the failure description in Err, never a raised error.
// Embedding and index failures propagate.
func (p *Pipeline) AnswerQuestion(query string) (domain.Answer, error) {
	p.logger.WithField("query", query).Info("processing query")
	contexts, err := p.RetrieveContext(query)
	if err != nil {
		return domain.Answer{}, err
	}
	prompt := p.GeneratePrompt(query, contexts)

	text, err := p.llm.Generate(prompt, p.GenerateSystemPrompt())
	if err != nil {
		p.logger.WithError(err).Error("error generating answer")
		return domain.Answer{
			Text:    fallbackAnswer,
			Sources: []domain.Source{},
			Err:     err.Error(),
		}, nil
	}

	sources := make([]domain.Source, 0, len(contexts))
	for _, ctx := range contexts {
		sources = append(sources, domain.Source{
			Text:       preview(ctx.Text),
			Metadata:   ctx.Metadata,
			Similarity: ctx.Similarity,
		})
	}
	return domain.Answer{
		Text:        text,
		Sources:     sources,
		SourceCount: len(contexts),
	}, nil
}

// preview bounds a source text to its first 200 characters, marking
// truncation with an ellipsis.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= sourcePreviewLen {
		return text
	}
	return string(runes[:sourcePreviewLen]) + "..."
}
