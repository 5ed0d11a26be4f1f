package llm

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewYandexClientValidation(t *testing.T) {
	_, err := NewYandexClient(YandexConfig{FolderID: "f"})
	assert.Error(t, err)
	_, err = NewYandexClient(YandexConfig{APIKey: "k"})
	assert.Error(t, err)
}

func TestYandexGenerate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"alternatives": []map[string]any{
					{"message": map[string]any{"role": "assistant", "text": "the answer"}},
				},
			},
		})
	}))
	defer srv.Close()

	c, err := NewYandexClient(YandexConfig{APIKey: "secret", FolderID: "folder1", APIURL: srv.URL})
	require.NoError(t, err)
	text, err := c.Generate("question?", "be helpful")
	require.NoError(t, err)

	assert.Equal(t, "the answer", text)
	assert.Equal(t, "Api-Key secret", gotAuth)
	assert.Equal(t, "gpt://folder1/yandexgpt-lite/latest", gotBody["modelUri"])
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "be helpful", first["text"])
	second := messages[1].(map[string]any)
	assert.Equal(t, "user", second["role"])
}

func TestYandexGenerateNoSystemPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body["messages"].([]any), 1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"alternatives": []map[string]any{
					{"message": map[string]any{"role": "assistant", "text": "ok"}},
				},
			},
		})
	}))
	defer srv.Close()
	c, err := NewYandexClient(YandexConfig{APIKey: "k", FolderID: "f", APIURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Generate("q", "")
	assert.NoError(t, err)
}

func TestYandexGenerateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c, err := NewYandexClient(YandexConfig{APIKey: "k", FolderID: "f", APIURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Generate("q", "")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, KindTransport, genErr.Kind)
}

func TestYandexGenerateShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"alternatives":[]}}`))
	}))
	defer srv.Close()
	c, err := NewYandexClient(YandexConfig{APIKey: "k", FolderID: "f", APIURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Generate("q", "")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, KindBadResponse, genErr.Kind)
}

func TestNewClientUnsupportedProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "gpt5"})
	assert.True(t, err != nil && !errors.As(err, new(*GenerationError)))
}
