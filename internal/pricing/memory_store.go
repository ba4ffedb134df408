package pricing

import (
	"context"
	"sync"
)

// MemoryConfigStore is an in-memory implementation of ConfigStore. It backs
// tests and serves as the degraded-mode store when no database is configured.
type MemoryConfigStore struct {
	mu  sync.RWMutex
	cfg *Config
}

func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{}
}

func (s *MemoryConfigStore) Load(ctx context.Context) (Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return DefaultConfig(), nil
	}
	return *s.cfg, nil
}

func (s *MemoryConfigStore) Save(ctx context.Context, cfg Config) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = &cfg
	return cfg, nil
}
