package sim

import (
	"sync"
)

// TargetLockManager provides per-target mutual exclusion for a wave of creep
// actions running concurrently. Two tasks can name the same TargetID (two
// haulers feeding one spawn), and their actions must not interleave on it
// even though the queue itself assigned them independently.
type TargetLockManager struct {
	mu    sync.Mutex             // Guards the locks map itself
	locks map[string]*sync.Mutex // Per-target mutexes
}

// NewTargetLockManager creates a new TargetLockManager.
func NewTargetLockManager() *TargetLockManager {
	return &TargetLockManager{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the per-target mutex, creating it on first use.
func (m *TargetLockManager) Lock(targetID string) {
	m.mu.Lock()
	lock, exists := m.locks[targetID]
	if !exists {
		lock = &sync.Mutex{}
		m.locks[targetID] = lock
	}
	m.mu.Unlock()

	// Acquire outside the manager lock so one busy target never stalls the
	// rest of the wave.
	lock.Lock()
}

// Unlock releases the per-target mutex.
func (m *TargetLockManager) Unlock(targetID string) {
	m.mu.Lock()
	lock, exists := m.locks[targetID]
	m.mu.Unlock()

	if exists {
		lock.Unlock()
	}
}
