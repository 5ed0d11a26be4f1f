package llm

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	gigaChatAPIURL  = "https://gigachat.devices.sberbank.ru/api/v1/chat/completions"
	gigaChatAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	gigaChatScope   = "GIGACHAT_API_PERS"
)

// GigaChatClient talks to the GigaChat API. Construction exchanges the
// static key for a bearer token which is cached for the client's lifetime.
// On an authorization failure Generate re-exchanges the token and retries
// the request exactly once.
type GigaChatClient struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	apiURL      string
	authURL     string
	accessToken string
	client      *http.Client
	authClient  *http.Client
	logger      *logrus.Logger
}

type GigaChatConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	APIURL      string // override for tests
	AuthURL     string // override for tests
	Timeout     time.Duration
	AuthTimeout time.Duration
	Logger      *logrus.Logger
}

func NewGigaChatClient(cfg GigaChatConfig) (*GigaChatClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gigachat: API key required")
	}
	if cfg.Model == "" {
		cfg.Model = "GigaChat"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.APIURL == "" {
		cfg.APIURL = gigaChatAPIURL
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = gigaChatAuthURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	authTimeout := cfg.AuthTimeout
	if authTimeout == 0 {
		authTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	// The GigaChat endpoints serve certificates from the Russian trust
	// chain, which is absent from most root stores.
	transport := &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	c := &GigaChatClient{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		apiURL:      cfg.APIURL,
		authURL:     cfg.AuthURL,
		client:      &http.Client{Timeout: timeout, Transport: transport},
		authClient:  &http.Client{Timeout: authTimeout, Transport: transport.Clone()},
		logger:      logger,
	}
	token, err := c.exchangeToken()
	if err != nil {
		return nil, err
	}
	c.accessToken = token
	logger.WithField("model", cfg.Model).Info("initialized GigaChat client")
	return c, nil
}

// exchangeToken trades the static key for a short-lived bearer token.
func (c *GigaChatClient) exchangeToken() (string, error) {
	form := url.Values{"scope": {gigaChatScope}}
	req, err := http.NewRequest(http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &GenerationError{Provider: "gigachat", Kind: KindAuth, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.authClient.Do(req)
	if err != nil {
		return "", &GenerationError{Provider: "gigachat", Kind: KindAuth, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", &GenerationError{Provider: "gigachat", Kind: KindAuth, Err: fmt.Errorf("token exchange status %s", resp.Status)}
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &GenerationError{Provider: "gigachat", Kind: KindAuth, Err: err}
	}
	if out.AccessToken == "" {
		return "", &GenerationError{Provider: "gigachat", Kind: KindAuth, Err: errors.New("empty access token")}
	}
	return out.AccessToken, nil
}

type gigaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate blocks until the model responds. An authorization rejection
// triggers one token re-exchange and one retry; a second rejection is final.
func (c *GigaChatClient) Generate(prompt, systemPrompt string) (string, error) {
	var messages []gigaChatMessage
	if systemPrompt != "" {
		messages = append(messages, gigaChatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, gigaChatMessage{Role: "user", Content: prompt})

	body := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}
	data, _ := json.Marshal(body)

	for attempt := 0; ; attempt++ {
		text, retryable, err := c.complete(data)
		if err == nil {
			return text, nil
		}
		if retryable && attempt == 0 {
			c.logger.Warn("authorization rejected, refreshing access token")
			token, exErr := c.exchangeToken()
			if exErr != nil {
				return "", exErr
			}
			c.accessToken = token
			continue
		}
		return "", err
	}
}

// complete performs one completion request. retryable is true only for
// authorization failures.
func (c *GigaChatClient) complete(data []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequest(http.MethodPost, c.apiURL, bytes.NewReader(data))
	if err != nil {
		return "", false, &GenerationError{Provider: "gigachat", Kind: KindTransport, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", false, &GenerationError{Provider: "gigachat", Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return "", true, &GenerationError{Provider: "gigachat", Kind: KindAuth, Err: fmt.Errorf("status %s", resp.Status)}
	}
	if resp.StatusCode >= 300 {
		return "", false, &GenerationError{Provider: "gigachat", Kind: KindTransport, Err: fmt.Errorf("status %s", resp.Status)}
	}

	var out struct {
		Choices []struct {
			Message gigaChatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, &GenerationError{Provider: "gigachat", Kind: KindBadResponse, Err: err}
	}
	if len(out.Choices) == 0 {
		return "", false, &GenerationError{Provider: "gigachat", Kind: KindBadResponse, Err: errors.New("no choices in response")}
	}
	return out.Choices[0].Message.Content, false, nil
}
