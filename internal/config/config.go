package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig selects and configures the generation provider. Credentials are
// taken from the environment, never from the config file.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// Pointer so an explicit 0 in the file is distinguishable from unset.
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
}

// EmbeddingsConfig configures the embedder and the chunking parameters.
type EmbeddingsConfig struct {
	Type         string `yaml:"type"` // "openai" or "tfidf"
	BaseURL      string `yaml:"base_url"`
	APIKeyEnv    string `yaml:"api_key_env"`
	Model        string `yaml:"model"`
	BatchSize    int    `yaml:"batch_size"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
}

// VectorDBConfig selects and configures the vector index backend.
type VectorDBConfig struct {
	Type           string `yaml:"type"` // "chroma" or "memory"
	URL            string `yaml:"url"`
	CollectionName string `yaml:"collection_name"`
	DistanceMetric string `yaml:"distance_metric"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
}

// RetrievalConfig bounds candidate retrieval.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
	// Pointer so an explicit 0 in the file is distinguishable from unset.
	RelevanceThreshold *float64 `yaml:"relevance_threshold"`
}

// AppConfig is the root configuration, constructed once at startup and
// passed into each component's constructor.
type AppConfig struct {
	LLM        LLMConfig        `yaml:"llm"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	VectorDB   VectorDBConfig   `yaml:"vectordb"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
}

// Environment variables holding provider credentials.
const (
	EnvYandexAPIKey   = "YANDEX_API_KEY"
	EnvYandexFolderID = "YANDEX_FOLDER_ID"
	EnvGigaChatAPIKey = "GIGACHAT_API_KEY"
)

// Load reads a config from the given path. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Validate fails fast on configurations that could only fail later at query
// time: unknown providers, missing credentials, a metric the relevance
// filter cannot score.
func (c *AppConfig) Validate() error {
	switch c.LLM.Provider {
	case "yandexgpt":
		if os.Getenv(EnvYandexAPIKey) == "" {
			return fmt.Errorf("missing %s", EnvYandexAPIKey)
		}
		if os.Getenv(EnvYandexFolderID) == "" {
			return fmt.Errorf("missing %s", EnvYandexFolderID)
		}
	case "gigachat":
		if os.Getenv(EnvGigaChatAPIKey) == "" {
			return fmt.Errorf("missing %s", EnvGigaChatAPIKey)
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}
	switch c.Embeddings.Type {
	case "openai", "tfidf":
	default:
		return fmt.Errorf("unknown embedder type: %s", c.Embeddings.Type)
	}
	switch c.VectorDB.Type {
	case "chroma", "memory":
	default:
		return fmt.Errorf("unknown vector store type: %s", c.VectorDB.Type)
	}
	// similarity = 1 - distance assumes cosine distance
	if c.VectorDB.DistanceMetric != "cosine" {
		return fmt.Errorf("retrieval requires cosine distance, got %s", c.VectorDB.DistanceMetric)
	}
	if t := *c.Retrieval.RelevanceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("relevance threshold out of range: %v", t)
	}
	return nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "yandexgpt"
	}
	if cfg.LLM.Temperature == nil {
		cfg.LLM.Temperature = floatPtr(0.3)
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2000
	}
	if cfg.Embeddings.Type == "" {
		cfg.Embeddings.Type = "openai"
	}
	if cfg.Embeddings.APIKeyEnv == "" {
		cfg.Embeddings.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embeddings.BatchSize == 0 {
		cfg.Embeddings.BatchSize = 32
	}
	if cfg.Embeddings.ChunkSize == 0 {
		cfg.Embeddings.ChunkSize = 500
	}
	if cfg.Embeddings.ChunkOverlap == 0 {
		cfg.Embeddings.ChunkOverlap = 100
	}
	if cfg.Embeddings.TimeoutSecs == 0 {
		cfg.Embeddings.TimeoutSecs = 30
	}
	if cfg.VectorDB.Type == "" {
		cfg.VectorDB.Type = "chroma"
	}
	if cfg.VectorDB.URL == "" {
		cfg.VectorDB.URL = "http://localhost:8000"
	}
	if cfg.VectorDB.CollectionName == "" {
		cfg.VectorDB.CollectionName = "documents"
	}
	if cfg.VectorDB.DistanceMetric == "" {
		cfg.VectorDB.DistanceMetric = "cosine"
	}
	if cfg.VectorDB.TimeoutSecs == 0 {
		cfg.VectorDB.TimeoutSecs = 30
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.RelevanceThreshold == nil {
		cfg.Retrieval.RelevanceThreshold = floatPtr(0.7)
	}
}

func floatPtr(v float64) *float64 { return &v }
