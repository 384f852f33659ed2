// Package keyprovider implements the KeyProvider contract the core consumes
// (spec treats it as an actorId->secret map) plus four concrete backends:
// an in-memory one for tests, a filesystem one that encrypts keys at rest,
// an env-var one for read-only CI/automation contexts, and a Redis one.
package keyprovider

import (
	"context"
	"crypto/ed25519"
	"sync"
)

// KeyProvider is the actorId -> private-key map the Identity adapter
// signs through. Get returns (nil, false) when absent, matching spec's
// "has/get/set/delete" contract.
type KeyProvider interface {
	Get(ctx context.Context, actorID string) (ed25519.PrivateKey, bool, error)
	Set(ctx context.Context, actorID string, key ed25519.PrivateKey) error
	Has(ctx context.Context, actorID string) (bool, error)
	Delete(ctx context.Context, actorID string) error
}

// Memory is an in-process KeyProvider, used by tests and single-process
// deployments that don't need the keys to survive a restart.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]ed25519.PrivateKey
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[string]ed25519.PrivateKey)}
}

func (m *Memory) Get(_ context.Context, actorID string) (ed25519.PrivateKey, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.keys[actorID]
	return k, ok, nil
}

func (m *Memory) Set(_ context.Context, actorID string, key ed25519.PrivateKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[actorID] = key
	return nil
}

func (m *Memory) Has(_ context.Context, actorID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[actorID]
	return ok, nil
}

func (m *Memory) Delete(_ context.Context, actorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, actorID)
	return nil
}
