package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/parser"
	"docqa/internal/pipeline"
	"docqa/internal/splitter"
	"docqa/internal/vectorstore/chroma"
	"docqa/internal/vectorstore/memory"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to config YAML")
	clear := flag.Bool("clear", false, "Clear the existing index before indexing")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Println("Usage: index-documents [--config=config.yaml] [--clear] <documents-dir>")
		os.Exit(1)
	}
	documentsDir := flag.Arg(0)

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	embedder, err := buildEmbedder(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to build embedder: %v", err)
	}
	index, err := buildIndex(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to build vector index: %v", err)
	}

	if *clear {
		logger.Info("clearing existing index")
		if err := index.DeleteCollection(); err != nil {
			logger.Fatalf("failed to clear index: %v", err)
		}
		// Chroma drops the collection identity with its records, so reconnect.
		if index, err = buildIndex(cfg, logger); err != nil {
			logger.Fatalf("failed to recreate vector index: %v", err)
		}
	}

	files, err := findDocuments(documentsDir)
	if err != nil {
		logger.Fatalf("failed to scan %s: %v", documentsDir, err)
	}
	if len(files) == 0 {
		logger.Warnf("no documents found in %s", documentsDir)
		return
	}
	logger.Infof("found %d documents", len(files))

	p := pipeline.New(pipeline.Config{
		Embedder: embedder,
		Index:    index,
		Splitter: splitter.New(cfg.Embeddings.ChunkSize, cfg.Embeddings.ChunkOverlap),
		Logger:   logger,
	})
	stats, err := p.IndexFiles(files)
	if err != nil {
		logger.Fatalf("indexing failed: %v", err)
	}
	logger.Infof("indexed %d chunks from %d documents", stats.ChunksIndexed, stats.DocumentsProcessed)
	if n, err := index.Count(); err == nil {
		logger.Infof("total records in vector store: %d", n)
	}
}

// findDocuments walks the directory recursively, collecting files with a
// supported extension.
func findDocuments(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && parser.Supported(filepath.Ext(path)) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
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
