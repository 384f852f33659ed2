package keyprovider

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// FS is a filesystem KeyProvider: each actor's private key is stored
// alongside the actor record (spec §6: "filesystem backend stores key
// alongside actor file with mode 0600"), encrypted at rest with a key
// derived from a passphrase via Argon2id and sealed with NaCl secretbox —
// the same "never store secrets plaintext" posture as the teacher's
// AES-256-GCM credential vault, adapted to golang.org/x/crypto primitives.
type FS struct {
	mu         sync.Mutex
	dir        string
	passphrase []byte
}

const (
	saltSize = 16
	keySize  = 32
)

// NewFS creates (if needed) dir and returns a provider that seals keys with
// passphrase. An empty passphrase is rejected: callers must not persist
// private keys unencrypted.
func NewFS(dir string, passphrase []byte) (*FS, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("keyprovider: passphrase must not be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("keyprovider: mkdir %s: %w", dir, err)
	}
	return &FS{dir: dir, passphrase: passphrase}, nil
}

func (f *FS) path(actorID string) string {
	safe := strings.ReplaceAll(actorID, ":", "_")
	return filepath.Join(f.dir, safe+".key")
}

func (f *FS) deriveKey(salt []byte) [keySize]byte {
	var key [keySize]byte
	derived := argon2.IDKey(f.passphrase, salt, 1, 64*1024, 4, keySize)
	copy(key[:], derived)
	return key
}

func (f *FS) Get(_ context.Context, actorID string) (ed25519.PrivateKey, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path(actorID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("keyprovider: read %s: %w", actorID, err)
	}
	if len(raw) < saltSize+24 {
		return nil, false, fmt.Errorf("keyprovider: corrupt key file for %s", actorID)
	}
	salt := raw[:saltSize]
	var nonce [24]byte
	copy(nonce[:], raw[saltSize:saltSize+24])
	sealed := raw[saltSize+24:]

	key := f.deriveKey(salt)
	plain, ok := secretbox.Open(nil, sealed, &nonce, &key)
	if !ok {
		return nil, false, fmt.Errorf("keyprovider: decrypt %s: wrong passphrase or corrupted data", actorID)
	}
	priv, err := base64.StdEncoding.DecodeString(string(plain))
	if err != nil {
		return nil, false, fmt.Errorf("keyprovider: decode %s: %w", actorID, err)
	}
	return ed25519.PrivateKey(priv), true, nil
}

func (f *FS) Set(_ context.Context, actorID string, key ed25519.PrivateKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("keyprovider: generate salt: %w", err)
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("keyprovider: generate nonce: %w", err)
	}

	derived := f.deriveKey(salt)
	plain := []byte(base64.StdEncoding.EncodeToString(key))
	sealed := secretbox.Seal(nil, plain, &nonce, &derived)

	out := make([]byte, 0, saltSize+24+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	out = append(out, sealed...)

	path := f.path(actorID)
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("keyprovider: write %s: %w", actorID, err)
	}
	return nil
}

func (f *FS) Has(_ context.Context, actorID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := os.Stat(f.path(actorID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("keyprovider: stat %s: %w", actorID, err)
}

func (f *FS) Delete(_ context.Context, actorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(actorID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("keyprovider: delete %s: %w", actorID, err)
	}
	return nil
}
