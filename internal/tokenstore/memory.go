package tokenstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process token store for deployments without Redis
// and for tests. Expiry is checked lazily on lookup.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	rec       Record
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

func (s *MemoryStore) SaveToken(_ context.Context, tokenHash string, rec Record, expiresAt time.Time) error {
	rec.CreatedAt = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[tokenHash] = memoryRecord{rec: rec, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, tokenHash string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.records[tokenHash]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.records, tokenHash)
		return Record{}, ErrNotFound
	}
	return entry.rec, nil
}

func (s *MemoryStore) Revoke(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, tokenHash)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Ping(_ context.Context) error { return nil }
