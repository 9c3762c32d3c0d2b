package relay

import (
	"context"
	"sync"
)

// MemoryPauseRegistry keeps paused users for the lifetime of the process.
type MemoryPauseRegistry struct {
	mu     sync.RWMutex
	paused map[string]struct{}
}

func NewMemoryPauseRegistry() *MemoryPauseRegistry {
	return &MemoryPauseRegistry{paused: make(map[string]struct{})}
}

func (r *MemoryPauseRegistry) IsPaused(_ context.Context, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.paused[userID]
	return ok, nil
}

func (r *MemoryPauseRegistry) Pause(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.paused[userID]; ok {
		return false, nil
	}
	r.paused[userID] = struct{}{}
	return true, nil
}
