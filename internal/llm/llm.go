// Package llm implements the generation providers behind the
// domain.GenerationClient interface.
package llm

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
)

// ErrorKind classifies a generation failure.
type ErrorKind string

const (
	// KindTransport covers network failures and non-2xx responses.
	KindTransport ErrorKind = "transport"
	// KindBadResponse covers responses that do not match the provider's shape.
	KindBadResponse ErrorKind = "bad_response"
	// KindAuth covers authorization rejections.
	KindAuth ErrorKind = "auth"
)

// GenerationError is returned by every provider on failure.
type GenerationError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Config selects and configures a generation provider.
type Config struct {
	Provider    string // "yandexgpt" or "gigachat"
	Model       string
	Temperature float64
	MaxTokens   int
	APIKey      string
	FolderID    string // yandexgpt only
	Logger      *logrus.Logger
}

// NewClient builds the configured provider. Unknown providers and missing
// credentials fail here, before any query is served.
func NewClient(cfg Config) (domain.GenerationClient, error) {
	switch cfg.Provider {
	case "yandexgpt":
		return NewYandexClient(YandexConfig{
			APIKey:      cfg.APIKey,
			FolderID:    cfg.FolderID,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Logger:      cfg.Logger,
		})
	case "gigachat":
		return NewGigaChatClient(GigaChatConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Logger:      cfg.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
