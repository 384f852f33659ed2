// Package mirror backs up and restores the .gitgov/ record tree to a
// remote object store (S3 or GCS), for disaster recovery independent of
// the local filesystem/Git history.
package mirror

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gitgovernance/core/pkg/gitgoverr"
)

// Backend is a flat key/value remote object store. Keys are the record's
// path relative to the .gitgov/ root (e.g. "tasks/1700000000-task-x.json"),
// preserving the on-disk layout spec §6 defines rather than content-hashing
// the way the teacher's artifact store does — a mirror must restore the
// exact tree, not deduplicate blobs.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Mirror backs up and restores root (normally GITGOV_HOME) against backend.
type Mirror struct {
	backend Backend
	root    string
	logger  *slog.Logger
}

func New(backend Backend, root string, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mirror{backend: backend, root: root, logger: logger}
}

// Backup uploads every regular file under root, keyed by its path relative
// to root, overwriting whatever the backend already holds at that key.
func (m *Mirror) Backup(ctx context.Context) (int, error) {
	const op = "Mirror.Backup"
	count := 0
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := m.backend.Put(ctx, filepath.ToSlash(rel), data); err != nil {
			return err
		}
		count++
		m.logger.Debug("mirror: backed up", "key", rel)
		return nil
	})
	if err != nil {
		return count, gitgoverr.Wrap(gitgoverr.KindIOError, op, "walk and upload", err)
	}
	return count, nil
}

// Restore downloads every key the backend holds under root, recreating the
// directory tree. Existing local files at the same path are overwritten.
func (m *Mirror) Restore(ctx context.Context) (int, error) {
	const op = "Mirror.Restore"
	keys, err := m.backend.List(ctx, "")
	if err != nil {
		return 0, gitgoverr.Wrap(gitgoverr.KindIOError, op, "list remote keys", err)
	}
	count := 0
	for _, key := range keys {
		data, err := m.backend.Get(ctx, key)
		if err != nil {
			return count, gitgoverr.Wrap(gitgoverr.KindIOError, op, "download "+key, err)
		}
		dest := filepath.Join(m.root, filepath.FromSlash(key))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return count, gitgoverr.Wrap(gitgoverr.KindIOError, op, "mkdir for "+key, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return count, gitgoverr.Wrap(gitgoverr.KindIOError, op, "write "+key, err)
		}
		count++
		m.logger.Debug("mirror: restored", "key", key)
	}
	return count, nil
}
