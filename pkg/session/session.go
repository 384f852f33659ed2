// Package session implements the SessionManager contract the core consumes
// (spec treats it as an actorId->session-state map), plus an in-memory
// backend and a filesystem-backed one persisting to .session.json.
package session

import (
	"context"
	"sync"
)

// State is the per-actor session state the core reads and writes. ActorID
// is the currently-resolved actor for this session; Extra carries
// adapter-defined scratch fields (e.g. last rotation timestamp) that the
// core treats opaquely.
type State struct {
	ActorID string                 `json:"actorId"`
	Extra   map[string]interface{} `json:"extra,omitempty"`
}

// Session is the root .session.json document: a current actor pointer plus
// per-actor state, matching loadSession()'s single-document contract.
type Session struct {
	CurrentActorID string           `json:"currentActorId,omitempty"`
	States         map[string]State `json:"states,omitempty"`
}

// Manager is the SessionManager contract (spec §6): loadSession reads the
// whole document, getActorState/updateActorState operate on one actor's
// slice of it.
type Manager interface {
	LoadSession(ctx context.Context) (*Session, error)
	GetActorState(ctx context.Context, actorID string) (State, bool, error)
	UpdateActorState(ctx context.Context, actorID string, state State) error
}

// Memory is an in-process SessionManager for tests and single-process runs.
type Memory struct {
	mu   sync.RWMutex
	doc  Session
}

func NewMemory() *Memory {
	return &Memory{doc: Session{States: make(map[string]State)}}
}

func (m *Memory) LoadSession(_ context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := m.doc
	states := make(map[string]State, len(m.doc.States))
	for k, v := range m.doc.States {
		states[k] = v
	}
	cp.States = states
	return &cp, nil
}

func (m *Memory) GetActorState(_ context.Context, actorID string) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.doc.States[actorID]
	return s, ok, nil
}

func (m *Memory) UpdateActorState(_ context.Context, actorID string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc.States == nil {
		m.doc.States = make(map[string]State)
	}
	state.ActorID = actorID
	m.doc.States[actorID] = state
	m.doc.CurrentActorID = actorID
	return nil
}
