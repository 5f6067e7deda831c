package history

import (
	"context"
	"sync"

	"github.com/pkale/glucorisk/internal/tier"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemoryStore creates an in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, record *Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Seq = int64(len(s.records))
	record.Probability = tier.Round2(record.Probability)

	cp := *record
	s.records = append(s.records, &cp)
	return record.Seq, nil
}

func (s *MemoryStore) ReadAll(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Record, len(s.records))
	for i, r := range s.records {
		cp := *r
		result[i] = &cp
	}
	return result, nil
}

func (s *MemoryStore) ReadAt(ctx context.Context, index int64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= int64(len(s.records)) {
		return nil, ErrNotFound
	}
	cp := *s.records[index]
	return &cp, nil
}
