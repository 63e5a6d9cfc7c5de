package rag

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"localcoder/internal/docs"
)

// Hit is a stored chunk and its similarity to the query.
type Hit struct {
	Doc   docs.Document
	Score float32
}

// VectorStore holds embedded chunks.
type VectorStore interface {
	Add(ctx context.Context, chunks []docs.Document, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	// DeleteSource removes every chunk loaded from source.
	DeleteSource(ctx context.Context, source string) error
	Count(ctx context.Context) (int, error)
	Close() error
}

var errLengthMismatch = errors.New("chunks and vectors differ in length")

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// for vectors of different length or zero norm.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

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

// topK keeps the k best hits, best first. Ties keep insertion order.
func topK(hits []Hit, k int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

type entry struct {
	doc    docs.Document
	vector []float32
}

// MemoryStore is a VectorStore held in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(ctx context.Context, chunks []docs.Document, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errLengthMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range chunks {
		s.entries = append(s.entries, entry{doc: chunks[i], vector: vectors[i]})
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	s.mu.RLock()
	hits := make([]Hit, 0, len(s.entries))
	for _, e := range s.entries {
		hits = append(hits, Hit{Doc: e.doc, Score: CosineSimilarity(query, e.vector)})
	}
	s.mu.RUnlock()
	return topK(hits, k), nil
}

func (s *MemoryStore) DeleteSource(ctx context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.doc.Source != source {
			kept = append(kept, e)
		}
	}
	clear(s.entries[len(kept):])
	s.entries = kept
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
	return nil
}
