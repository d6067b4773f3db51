// Package memoryindex is a brute-force cosine-similarity index used in tests
// and as a fallback when no Qdrant instance is reachable. Contents do not
// survive a restart.
package memoryindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/vectorindex"
)

type Store struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]domain.IndexRecord // keyed by source#ordinal
}

func New(dimension int) *Store {
	return &Store{
		dimension: dimension,
		records:   make(map[string]domain.IndexRecord),
	}
}

var _ vectorindex.Index = (*Store)(nil)

func (s *Store) Ensure(ctx context.Context) error { return nil }

func (s *Store) Upsert(ctx context.Context, records []domain.IndexRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range records {
		if len(rec.Vector) != s.dimension {
			return fmt.Errorf("%w: record %d has dimension %d, want %d", domain.ErrIndex, i, len(rec.Vector), s.dimension)
		}
	}
	for _, rec := range records {
		s.records[key(rec.SourceDocument, rec.Ordinal)] = rec
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, k int, model string) ([]domain.ScoredText, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, want %d", domain.ErrIndex, len(vector), s.dimension)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		text  string
		score float32
	}
	hits := make([]scored, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Model != model {
			continue
		}
		hits = append(hits, scored{text: rec.Text, score: cosine(rec.Vector, vector)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if k > len(hits) {
		k = len(hits)
	}
	results := make([]domain.ScoredText, 0, k)
	for _, h := range hits[:k] {
		results = append(results, domain.ScoredText{Text: h.text, Score: h.score})
	}
	return results, nil
}

func (s *Store) DeleteBySource(ctx context.Context, sourceDocument string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, rec := range s.records {
		if rec.SourceDocument == sourceDocument {
			delete(s.records, k)
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }

// Len reports the number of stored records. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func key(source string, ordinal int) string {
	return fmt.Sprintf("%s#%d", source, ordinal)
}

func cosine(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
