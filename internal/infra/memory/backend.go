package memory

import (
	"context"
	"sync"

	"exam-bot/internal/domain"
)

// Backend keeps collection documents in process memory (useful for tests/demos).
type Backend struct {
	mu   sync.RWMutex
	docs map[domain.Collection][]byte
}

func NewBackend() *Backend {
	return &Backend{docs: make(map[domain.Collection][]byte)}
}

func (b *Backend) Load(_ context.Context, c domain.Collection) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.docs[c]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (b *Backend) Save(_ context.Context, c domain.Collection, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[c] = append([]byte(nil), data...)
	return nil
}
