package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FS is a filesystem SessionManager persisting the whole document to a
// single .session.json file (spec §6 persistence layout), written
// atomically via a temp-file-then-rename, matching the FS record store's
// write discipline.
type FS struct {
	mu   sync.Mutex
	path string
}

func NewFS(gitgovDir string) *FS {
	return &FS{path: filepath.Join(gitgovDir, ".session.json")}
}

func (f *FS) read() (Session, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{States: make(map[string]State)}, nil
		}
		return Session{}, fmt.Errorf("session: read %s: %w", f.path, err)
	}
	var doc Session
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Session{}, fmt.Errorf("session: decode %s: %w", f.path, err)
	}
	if doc.States == nil {
		doc.States = make(map[string]State)
	}
	return doc, nil
}

func (f *FS) write(doc Session) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("session: write temp: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("session: rename into place: %w", err)
	}
	return nil
}

func (f *FS) LoadSession(_ context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (f *FS) GetActorState(_ context.Context, actorID string) (State, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return State{}, false, err
	}
	s, ok := doc.States[actorID]
	return s, ok, nil
}

func (f *FS) UpdateActorState(_ context.Context, actorID string, state State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	state.ActorID = actorID
	doc.States[actorID] = state
	doc.CurrentActorID = actorID
	return f.write(doc)
}
