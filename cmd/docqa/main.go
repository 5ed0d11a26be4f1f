package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/llm"
	"docqa/internal/pipeline"
	"docqa/internal/splitter"
	"docqa/internal/tui"
	"docqa/internal/vectorstore/chroma"
	"docqa/internal/vectorstore/memory"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	embedder, err := buildEmbedder(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to build embedder: %v", err)
	}
	index, err := buildIndex(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to build vector index: %v", err)
	}
	client, err := llm.NewClient(llm.Config{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		Temperature: *cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		APIKey:      providerKey(cfg),
		FolderID:    os.Getenv(config.EnvYandexFolderID),
		Logger:      logger,
	})
	if err != nil {
		logger.Fatalf("failed to build LLM client: %v", err)
	}

	p := pipeline.New(pipeline.Config{
		Embedder:           embedder,
		Index:              index,
		LLM:                client,
		Splitter:           splitter.New(cfg.Embeddings.ChunkSize, cfg.Embeddings.ChunkOverlap),
		TopK:               cfg.Retrieval.TopK,
		RelevanceThreshold: *cfg.Retrieval.RelevanceThreshold,
		Logger:             logger,
	})

	banner := ""
	if files := flag.Args(); len(files) > 0 {
		stats, err := p.IndexFiles(files)
		if err != nil {
			logger.Fatalf("ingest failed: %v", err)
		}
		banner = fmt.Sprintf("%d chunks from %d files", stats.ChunksIndexed, stats.DocumentsProcessed)
	} else if n, err := index.Count(); err == nil {
		banner = fmt.Sprintf("%d chunks indexed", n)
	}

	m := tui.New(p, banner)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		logger.Fatal(err)
	}
}

func buildEmbedder(cfg *config.AppConfig, logger *logrus.Logger) (domain.Embedder, error) {
	switch cfg.Embeddings.Type {
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	default:
		return openai.NewClient(openai.Config{
			BaseURL:   cfg.Embeddings.BaseURL,
			APIKeyEnv: cfg.Embeddings.APIKeyEnv,
			Model:     cfg.Embeddings.Model,
			BatchSize: cfg.Embeddings.BatchSize,
			Timeout:   time.Duration(cfg.Embeddings.TimeoutSecs) * time.Second,
			Logger:    logger,
		})
	}
}

func buildIndex(cfg *config.AppConfig, logger *logrus.Logger) (domain.VectorIndex, error) {
	switch cfg.VectorDB.Type {
	case "memory":
		return memory.NewIndex(cfg.VectorDB.DistanceMetric, logger)
	default:
		return chroma.NewIndex(chroma.Config{
			URL:        cfg.VectorDB.URL,
			Collection: cfg.VectorDB.CollectionName,
			Metric:     cfg.VectorDB.DistanceMetric,
			Timeout:    time.Duration(cfg.VectorDB.TimeoutSecs) * time.Second,
			Logger:     logger,
		})
	}
}

func providerKey(cfg *config.AppConfig) string {
	if cfg.LLM.Provider == "gigachat" {
		return os.Getenv(config.EnvGigaChatAPIKey)
	}
	return os.Getenv(config.EnvYandexAPIKey)
}
