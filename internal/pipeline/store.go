package pipeline

import (
	"sync"

	"github.com/repoindexer/repoindexer/internal/model"
	"github.com/repoindexer/repoindexer/internal/repospec"
)

// storeEntry pairs a stored result with its insertion order, so
// findLatest can scan newest-first without relying on map iteration
// order.
type storeEntry struct {
	result *model.IndexResult
	seq    int64
}

// Store is the keyed index store (SPEC_FULL.md §4.8): a lookup by
// (kind, path, revision), written only on non-dry-run completion.
type Store struct {
	mu      sync.RWMutex
	entries map[repospec.StoreKey]storeEntry
	seq     int64
}

// NewStore returns an empty, process-local index store.
func NewStore() *Store {
	return &Store{entries: make(map[repospec.StoreKey]storeEntry)}
}

// Put stores result under spec.Key(revision), overwriting any prior entry
// at that key.
func (s *Store) Put(spec repospec.Spec, revision string, result *model.IndexResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.entries[spec.Key(revision)] = storeEntry{result: result, seq: s.seq}
}

// Get returns the result stored at (spec.Kind, spec.Path, revision).
func (s *Store) Get(spec repospec.Spec, revision string) (*model.IndexResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[spec.Key(revision)]
	if !ok {
		return nil, false
	}
	return entry.result, true
}

// FindLatest scans entries for spec's (kind, path) across every revision
// and returns the most recently inserted one.
func (s *Store) FindLatest(spec repospec.Spec) (*model.IndexResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *storeEntry
	for key, entry := range s.entries {
		if key.Kind != spec.Kind || key.Path != spec.Path {
			continue
		}
		e := entry
		if best == nil || e.seq > best.seq {
			best = &e
		}
	}
	if best == nil {
		return nil, false
	}
	return best.result, true
}
