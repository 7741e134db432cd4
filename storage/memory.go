package storage

import (
	"context"
	"sync"
)

// Memory is a process-local Store. Selections do not survive a restart.
type Memory struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]map[string]string)}
}

func (m *Memory) Load(_ context.Context, userID, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[userID][key], nil
}

func (m *Memory) Save(_ context.Context, userID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.values[userID]
	if !ok {
		user = make(map[string]string)
		m.values[userID] = user
	}
	user[key] = value
	return nil
}
