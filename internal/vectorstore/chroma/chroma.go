package chroma

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
)

// Index is a minimal REST client to a ChromaDB server. The collection is
// created on demand with the configured distance metric (hnsw:space).
type Index struct {
	url          string
	collection   string
	collectionID string
	metric       string
	client       *http.Client
	logger       *logrus.Logger
}

type Config struct {
	URL        string
	Collection string
	Metric     string // cosine, l2 or ip
	Timeout    time.Duration
	Logger     *logrus.Logger
}

// NewIndex connects to the server and gets or creates the named collection.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, errors.New("chroma URL required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}
	if cfg.Metric == "" {
		cfg.Metric = "cosine"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	s := &Index{
		url:        cfg.URL,
		collection: cfg.Collection,
		metric:     cfg.Metric,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
	if err := s.ensureCollection(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Index) ensureCollection() error {
	body := map[string]any{
		"name":          s.collection,
		"metadata":      map[string]any{"hnsw:space": s.metric},
		"get_or_create": true,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := s.postJSON(fmt.Sprintf("%s/api/v1/collections", s.url), body, &resp); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	if resp.ID == "" {
		return errors.New("chroma returned no collection id")
	}
	s.collectionID = resp.ID
	s.logger.WithFields(logrus.Fields{"collection": s.collection, "metric": s.metric}).
		Info("chroma collection ready")
	return nil
}

func (s *Index) Add(ids []string, texts []string, vectors [][]float64, metadatas []map[string]any) error {
	if len(texts) == 0 {
		s.logger.Warn("no texts to add")
		return nil
	}
	if len(texts) != len(vectors) || len(texts) != len(metadatas) {
		return errors.New("texts, vectors and metadatas length mismatch")
	}
	if ids != nil && len(ids) != len(texts) {
		return errors.New("ids and texts length mismatch")
	}
	if ids == nil {
		count, err := s.Count()
		if err != nil {
			return err
		}
		ids = make([]string, len(texts))
		for i := range ids {
			ids[i] = fmt.Sprintf("doc_%d", count+i)
		}
	}
	body := map[string]any{
		"ids":        ids,
		"documents":  texts,
		"embeddings": vectors,
		"metadatas":  metadatas,
	}
	return s.postJSON(fmt.Sprintf("%s/api/v1/collections/%s/add", s.url, s.collectionID), body, nil)
}

func (s *Index) Search(vector []float64, topK int, filter map[string]any) (*domain.SearchResults, error) {
	if topK <= 0 {
		topK = 5
	}
	body := map[string]any{
		"query_embeddings": [][]float64{vector},
		"n_results":        topK,
		"include":          []string{"documents", "distances", "metadatas"},
	}
	if len(filter) > 0 {
		body["where"] = filter
	}
	var resp struct {
		IDs       [][]string         `json:"ids"`
		Documents [][]string         `json:"documents"`
		Distances [][]float64        `json:"distances"`
		Metadatas [][]map[string]any `json:"metadatas"`
	}
	if err := s.postJSON(fmt.Sprintf("%s/api/v1/collections/%s/query", s.url, s.collectionID), body, &resp); err != nil {
		return nil, err
	}
	out := &domain.SearchResults{}
	if len(resp.IDs) > 0 {
		out.IDs = resp.IDs[0]
	}
	if len(resp.Documents) > 0 {
		out.Documents = resp.Documents[0]
	}
	if len(resp.Distances) > 0 {
		out.Distances = resp.Distances[0]
	}
	if len(resp.Metadatas) > 0 {
		out.Metadatas = resp.Metadatas[0]
	}
	return out, nil
}

func (s *Index) Update(id string, text *string, vector []float64, metadata map[string]any) error {
	body := map[string]any{"ids": []string{id}}
	if text != nil {
		body["documents"] = []string{*text}
	}
	if vector != nil {
		body["embeddings"] = [][]float64{vector}
	}
	if metadata != nil {
		body["metadatas"] = []map[string]any{metadata}
	}
	return s.postJSON(fmt.Sprintf("%s/api/v1/collections/%s/update", s.url, s.collectionID), body, nil)
}

func (s *Index) Delete(id string) error {
	body := map[string]any{"ids": []string{id}}
	return s.postJSON(fmt.Sprintf("%s/api/v1/collections/%s/delete", s.url, s.collectionID), body, nil)
}

// DeleteCollection drops the collection. The index must be recreated with
// NewIndex before further use.
func (s *Index) DeleteCollection() error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/collections/%s", s.url, s.collection), nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma DELETE collection failed: %s", resp.Status)
	}
	s.logger.WithField("collection", s.collection).Info("deleted collection")
	return nil
}

func (s *Index) Count() (int, error) {
	resp, err := s.client.Get(fmt.Sprintf("%s/api/v1/collections/%s/count", s.url, s.collectionID))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("chroma count failed: %s", resp.Status)
	}
	var n int
	if err := json.NewDecoder(resp.Body).Decode(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Index) postJSON(url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
