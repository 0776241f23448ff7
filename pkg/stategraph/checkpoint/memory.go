package checkpoint

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory checkpoint store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]storedThread
	closed bool
}

// storedThread holds checkpoint data with metadata for List().
type storedThread struct {
	data      []byte
	sequence  int64
	updatedAt time.Time
}

// NewMemoryStore creates a new in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]storedThread),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, threadID string, data []byte) error {
	if threadID == "" {
		return ErrEmptyThreadID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// Copy data to avoid retaining caller's slice
	stored := make([]byte, len(data))
	copy(stored, data)

	m.data[threadID] = storedThread{
		data:      stored,
		sequence:  m.data[threadID].sequence + 1,
		updatedAt: time.Now().UTC(),
	}

	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, threadID string) ([]byte, error) {
	if threadID == "" {
		return nil, ErrEmptyThreadID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	thread, ok := m.data[threadID]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to prevent modification
	result := make([]byte, len(thread.data))
	copy(result, thread.data)
	return result, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.data))
	for threadID, thread := range m.data {
		infos = append(infos, Info{
			ThreadID:  threadID,
			Sequence:  thread.sequence,
			UpdatedAt: thread.updatedAt,
			Size:      int64(len(thread.data)),
		})
	}

	// Most recently updated first; thread ID breaks ties so the order
	// is stable when saves land within the clock's resolution.
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
		}
		return infos[i].ThreadID < infos[j].ThreadID
	})

	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, threadID string) error {
	if threadID == "" {
		return ErrEmptyThreadID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, threadID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Len returns the number of stored threads. Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}
