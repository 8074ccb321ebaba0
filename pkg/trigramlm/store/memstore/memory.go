package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/cognicore/trigramlm/pkg/trigramlm/internalerr"
	"github.com/cognicore/trigramlm/pkg/trigramlm/ngram"
	"github.com/cognicore/trigramlm/pkg/trigramlm/store"
)

// Store is an in-memory implementation of store.Store for tests and one-shot
// runs. Models are immutable and shared; score slices are copied.
type Store struct {
	mu     sync.RWMutex
	infos  map[string]store.ModelInfo
	models map[string]*ngram.Model
	scores map[scoreKey][]float64
}

type scoreKey struct {
	modelID string
	kind    string
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		infos:  make(map[string]store.ModelInfo),
		models: make(map[string]*ngram.Model),
		scores: make(map[scoreKey][]float64),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveModel stores m, replacing any model with the same ID.
func (s *Store) SaveModel(ctx context.Context, info store.ModelInfo, m *ngram.Model) (store.ModelInfo, error) {
	if m == nil {
		return store.ModelInfo{}, fmt.Errorf("save nil model: %w", internalerr.ErrInvalidInput)
	}
	info = store.Describe(info, m)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.infos[info.ID]; ok {
		s.dropScores(info.ID)
	}
	s.infos[info.ID] = info
	s.models[info.ID] = m
	return info, nil
}

// LoadModel returns a stored model by ID.
func (s *Store) LoadModel(ctx context.Context, id string) (store.ModelInfo, *ngram.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.infos[id]
	if !ok {
		return store.ModelInfo{}, nil, fmt.Errorf("model %q: %w", id, internalerr.ErrNotFound)
	}
	return info, s.models[id], nil
}

// ListModels returns every model, oldest first.
func (s *Store) ListModels(ctx context.Context) ([]store.ModelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.ModelInfo, 0, len(s.infos))
	for _, info := range s.infos {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b store.ModelInfo) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

// DeleteModel removes a model and its score runs.
func (s *Store) DeleteModel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.infos[id]; !ok {
		return fmt.Errorf("model %q: %w", id, internalerr.ErrNotFound)
	}
	delete(s.infos, id)
	delete(s.models, id)
	s.dropScores(id)
	return nil
}

// SaveScores records a score run, replacing an earlier run of the same kind.
func (s *Store) SaveScores(ctx context.Context, modelID, kind string, scores []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.infos[modelID]; !ok {
		return fmt.Errorf("model %q: %w", modelID, internalerr.ErrNotFound)
	}
	s.scores[scoreKey{modelID, kind}] = slices.Clone(scores)
	return nil
}

// GetScores returns a copy of a stored score run.
func (s *Store) GetScores(ctx context.Context, modelID, kind string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scores, ok := s.scores[scoreKey{modelID, kind}]
	if !ok {
		return nil, fmt.Errorf("scores %s/%s: %w", modelID, kind, internalerr.ErrNotFound)
	}
	return slices.Clone(scores), nil
}

// dropScores must be called with the write lock held.
func (s *Store) dropScores(modelID string) {
	for k := range s.scores {
		if k.modelID == modelID {
			delete(s.scores, k)
		}
	}
}

var _ store.Store = (*Store)(nil)
