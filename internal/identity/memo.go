package identity

import (
	"context"
	"sync"
)

// Memo remembers resolved candidate to student mappings.
type Memo interface {
	Get(ctx context.Context, candidate int64) (int64, bool, error)
	Set(ctx context.Context, candidate, studentID int64) error
}

// MemoryMemo is a process-local Memo.
type MemoryMemo struct {
	mu sync.RWMutex
	m  map[int64]int64
}

func NewMemoryMemo() *MemoryMemo {
	return &MemoryMemo{m: map[int64]int64{}}
}

func (m *MemoryMemo) Get(_ context.Context, candidate int64) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.m[candidate]
	return id, ok, nil
}

func (m *MemoryMemo) Set(_ context.Context, candidate, studentID int64) error {
	m.mu.Lock()
	m.m[candidate] = studentID
	m.mu.Unlock()
	return nil
}
