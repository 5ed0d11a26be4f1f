package memory

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"docqa/internal/domain"
)

// Supported distance metrics.
const (
	MetricCosine = "cosine"
	MetricL2     = "l2"
	MetricInnerP = "ip"
)

type record struct {
	id       string
	text     string
	vector   []float64
	metadata map[string]any
}

// Index is an in-memory vector index using brute-force search.
// Reads are safe for concurrent use; writes are last-writer-wins per record.
type Index struct {
	mu      sync.RWMutex
	metric  string
	records []record
	byID    map[string]int
	logger  *logrus.Logger
}

// NewIndex creates an empty index with the given distance metric
// (cosine, l2 or ip; empty defaults to cosine).
func NewIndex(metric string, logger *logrus.Logger) (*Index, error) {
	if metric == "" {
		metric = MetricCosine
	}
	switch metric {
	case MetricCosine, MetricL2, MetricInnerP:
	default:
		return nil, fmt.Errorf("unsupported distance metric: %s", metric)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Index{metric: metric, byID: make(map[string]int), logger: logger}, nil
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
	s.mu.Lock()
	defer s.mu.Unlock()
	if ids == nil {
		ids = make([]string, len(texts))
		base := len(s.records)
		for i := range ids {
			ids[i] = fmt.Sprintf("doc_%d", base+i)
		}
	}
	for i := range texts {
		rec := record{id: ids[i], text: texts[i], vector: vectors[i], metadata: metadatas[i]}
		if j, ok := s.byID[ids[i]]; ok {
			s.records[j] = rec
			continue
		}
		s.byID[ids[i]] = len(s.records)
		s.records = append(s.records, rec)
	}
	return nil
}

func (s *Index) Search(vector []float64, topK int, filter map[string]any) (*domain.SearchResults, error) {
	if topK <= 0 {
		topK = 5
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	type scored struct {
		idx      int
		distance float64
	}
	var candidates []scored
	for i, rec := range s.records {
		if !matchesFilter(rec.metadata, filter) {
			continue
		}
		candidates = append(candidates, scored{idx: i, distance: s.distance(rec.vector, vector)})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })
	if topK > len(candidates) {
		topK = len(candidates)
	}
	out := &domain.SearchResults{
		IDs:       make([]string, 0, topK),
		Documents: make([]string, 0, topK),
		Distances: make([]float64, 0, topK),
		Metadatas: make([]map[string]any, 0, topK),
	}
	for _, c := range candidates[:topK] {
		rec := s.records[c.idx]
		out.IDs = append(out.IDs, rec.id)
		out.Documents = append(out.Documents, rec.text)
		out.Distances = append(out.Distances, c.distance)
		out.Metadatas = append(out.Metadatas, rec.metadata)
	}
	return out, nil
}

func (s *Index) Update(id string, text *string, vector []float64, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("no record with id %s", id)
	}
	if text != nil {
		s.records[j].text = *text
	}
	if vector != nil {
		s.records[j].vector = vector
	}
	if metadata != nil {
		s.records[j].metadata = metadata
	}
	return nil
}

func (s *Index) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.byID[id]
	if !ok {
		return nil
	}
	s.records = append(s.records[:j], s.records[j+1:]...)
	delete(s.byID, id)
	for i := j; i < len(s.records); i++ {
		s.byID[s.records[i].id] = i
	}
	return nil
}

func (s *Index) DeleteCollection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.byID = make(map[string]int)
	return nil
}

func (s *Index) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func matchesFilter(metadata, filter map[string]any) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

func (s *Index) distance(a, b []float64) float64 {
	switch s.metric {
	case MetricL2:
		n := len(a)
		if len(b) < n {
			n = len(b)
		}
		sum := 0.0
		for i := 0; i < n; i++ {
			d := a[i] - b[i]
			sum += d * d
		}
		return math.Sqrt(sum)
	case MetricInnerP:
		return 1 - dot(a, b)
	default: // cosine
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - dot(a, b)/(na*nb)
	}
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(a []float64) float64 {
	return math.Sqrt(dot(a, a))
}
