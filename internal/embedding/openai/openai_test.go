package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, dim int, calls *int, batchSizes *[]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if batchSizes != nil {
			*batchSizes = append(*batchSizes, len(body.Input))
		}
		type item struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		out := struct {
			Data []item `json:"data"`
		}{}
		for i := range body.Input {
			vec := make([]float64, dim)
			vec[0] = float64(len(body.Input[i]))
			out.Data = append(out.Data, item{Index: i, Embedding: vec})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
}

func newTestClient(t *testing.T, url string, batchSize int) *Client {
	t.Helper()
	t.Setenv("TEST_EMBED_KEY", "test-key")
	c, err := NewClient(Config{BaseURL: url, APIKeyEnv: "TEST_EMBED_KEY", BatchSize: batchSize})
	require.NoError(t, err)
	return c
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_EMBED_KEY"})
	assert.Error(t, err)
}

func TestEmbedOneSetsDimension(t *testing.T) {
	calls := 0
	srv := newTestServer(t, 8, &calls, nil)
	defer srv.Close()
	c := newTestClient(t, srv.URL, 2)
	v, err := c.EmbedOne("hello")
	require.NoError(t, err)
	assert.Len(t, v, 8)
	assert.Equal(t, 8, c.Dimension())
}

func TestEmbedManySequentialBatches(t *testing.T) {
	calls := 0
	var batches []int
	srv := newTestServer(t, 4, &calls, &batches)
	defer srv.Close()
	c := newTestClient(t, srv.URL, 2)
	vs, err := c.EmbedMany([]string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)
	require.Len(t, vs, 5)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{2, 2, 1}, batches)
	// order preserved: first component encodes input length
	for i, want := range []float64{1, 2, 3, 4, 5} {
		assert.Equal(t, want, vs[i][0])
	}
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 2)
	_, err := c.EmbedOne("hello")
	assert.Error(t, err)
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 2)
	_, err := c.EmbedOne("hello")
	assert.Error(t, err)
}
