package store

import (
	"sync"

	"github.com/AngelCh415/leadboard/internal/ingest"
	"github.com/AngelCh415/leadboard/internal/models"
)

// MemoryStore caches the canonical lead set for one session. The slice it
// hands out is shared by every evaluation and must be treated as read-only.
type MemoryStore struct {
	mu     sync.RWMutex
	leads  []models.Lead
	stats  ingest.Stats
	loaded bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Put(leads []models.Lead, stats ingest.Stats) {
	cp := make([]models.Lead, len(leads))
	copy(cp, leads)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = cp
	s.stats = stats
	s.loaded = true
}

func (s *MemoryStore) Leads() []models.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leads
}

func (s *MemoryStore) Stats() ingest.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *MemoryStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}
