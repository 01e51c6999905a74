package storage

import (
	"context"
	"sync"
)

// MemoryBackend garde les emplacements en mémoire (tests, STORAGE_DRIVER=memory)
type MemoryBackend struct {
	mu          sync.RWMutex
	data        map[string][]byte
	subscribers map[string]map[chan struct{}]struct{}
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data:        make(map[string][]byte),
		subscribers: make(map[string]map[chan struct{}]struct{}),
	}
}

func (b *MemoryBackend) ForSession(sessionID string) Store {
	return &memoryStore{backend: b, sessionID: sessionID}
}

func (b *MemoryBackend) Subscribe(ctx context.Context, sessionID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	if b.subscribers[sessionID] == nil {
		b.subscribers[sessionID] = make(map[chan struct{}]struct{})
	}
	b.subscribers[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers[sessionID], ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// notify doit être appelé avec b.mu verrouillé
func (b *MemoryBackend) notify(sessionID string) {
	for ch := range b.subscribers[sessionID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

type memoryStore struct {
	backend   *MemoryBackend
	sessionID string
}

func (s *memoryStore) Get(_ context.Context, slot string) ([]byte, error) {
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()

	data, ok := s.backend.data[slotKey(s.sessionID, slot)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *memoryStore) Set(_ context.Context, slot string, value []byte) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	s.backend.data[slotKey(s.sessionID, slot)] = append([]byte(nil), value...)
	if slot == SlotCart {
		s.backend.notify(s.sessionID)
	}
	return nil
}

func (s *memoryStore) Delete(_ context.Context, slot string) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()

	delete(s.backend.data, slotKey(s.sessionID, slot))
	if slot == SlotCart {
		s.backend.notify(s.sessionID)
	}
	return nil
}
