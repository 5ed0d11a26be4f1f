package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const yandexCompletionURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

// YandexClient talks to the YandexGPT foundation-models API. Every request
// carries the static API key; there is no session state.
type YandexClient struct {
	apiKey      string
	folderID    string
	model       string
	temperature float64
	maxTokens   int
	apiURL      string
	client      *http.Client
	logger      *logrus.Logger
}

type YandexConfig struct {
	APIKey      string
	FolderID    string
	Model       string
	Temperature float64
	MaxTokens   int
	APIURL      string // override for tests
	Timeout     time.Duration
	Logger      *logrus.Logger
}

func NewYandexClient(cfg YandexConfig) (*YandexClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("yandexgpt: API key required")
	}
	if cfg.FolderID == "" {
		return nil, errors.New("yandexgpt: folder ID required")
	}
	if cfg.Model == "" {
		cfg.Model = "yandexgpt-lite"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.APIURL == "" {
		cfg.APIURL = yandexCompletionURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	logger.WithField("model", cfg.Model).Info("initialized YandexGPT client")
	return &YandexClient{
		apiKey:      cfg.APIKey,
		folderID:    cfg.FolderID,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		apiURL:      cfg.APIURL,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}, nil
}

type yandexMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Generate blocks until the model responds or the timeout elapses.
func (c *YandexClient) Generate(prompt, systemPrompt string) (string, error) {
	var messages []yandexMessage
	if systemPrompt != "" {
		messages = append(messages, yandexMessage{Role: "system", Text: systemPrompt})
	}
	messages = append(messages, yandexMessage{Role: "user", Text: prompt})

	body := map[string]any{
		"modelUri": fmt.Sprintf("gpt://%s/%s/latest", c.folderID, c.model),
		"completionOptions": map[string]any{
			"temperature": c.temperature,
			"maxTokens":   c.maxTokens,
		},
		"messages": messages,
	}
	data, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, c.apiURL, bytes.NewReader(data))
	if err != nil {
		return "", &GenerationError{Provider: "yandexgpt", Kind: KindTransport, Err: err}
	}
	req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &GenerationError{Provider: "yandexgpt", Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &GenerationError{Provider: "yandexgpt", Kind: KindAuth, Err: fmt.Errorf("status %s", resp.Status)}
	}
	if resp.StatusCode >= 300 {
		return "", &GenerationError{Provider: "yandexgpt", Kind: KindTransport, Err: fmt.Errorf("status %s", resp.Status)}
	}

	var out struct {
		Result struct {
			Alternatives []struct {
				Message yandexMessage `json:"message"`
			} `json:"alternatives"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &GenerationError{Provider: "yandexgpt", Kind: KindBadResponse, Err: err}
	}
	if len(out.Result.Alternatives) == 0 {
		return "", &GenerationError{Provider: "yandexgpt", Kind: KindBadResponse, Err: errors.New("no alternatives in response")}
	}
	return out.Result.Alternatives[0].Message.Text, nil
}
