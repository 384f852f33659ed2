package keyprovider

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// Redis is a KeyProvider backed by a Redis client, for multi-process
// deployments that need actor keys reachable from any node (mirrors the
// teacher's kernel.RedisLimiterStore: one *redis.Client, one keyspace
// prefix, context-scoped calls). Values are sealed the same way FS seals
// them, so a key never touches the wire or disk in plaintext.
type Redis struct {
	client     *redis.Client
	prefix     string
	passphrase []byte
}

// NewRedis returns a provider that stores sealed keys under prefix+actorID.
func NewRedis(client *redis.Client, prefix string, passphrase []byte) (*Redis, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("keyprovider: passphrase must not be empty")
	}
	return &Redis{client: client, prefix: prefix, passphrase: passphrase}, nil
}

func (r *Redis) key(actorID string) string {
	return r.prefix + actorID
}

func (r *Redis) deriveKey(salt []byte) [keySize]byte {
	var key [keySize]byte
	derived := argon2.IDKey(r.passphrase, salt, 1, 64*1024, 4, keySize)
	copy(key[:], derived)
	return key
}

func (r *Redis) Get(ctx context.Context, actorID string) (ed25519.PrivateKey, bool, error) {
	raw, err := r.client.Get(ctx, r.key(actorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("keyprovider(redis): get %s: %w", actorID, err)
	}
	if len(raw) < saltSize+24 {
		return nil, false, fmt.Errorf("keyprovider(redis): corrupt value for %s", actorID)
	}
	salt := raw[:saltSize]
	var nonce [24]byte
	copy(nonce[:], raw[saltSize:saltSize+24])
	sealed := raw[saltSize+24:]

	key := r.deriveKey(salt)
	plain, ok := secretbox.Open(nil, sealed, &nonce, &key)
	if !ok {
		return nil, false, fmt.Errorf("keyprovider(redis): decrypt %s: wrong passphrase or corrupted data", actorID)
	}
	priv, err := base64.StdEncoding.DecodeString(string(plain))
	if err != nil {
		return nil, false, fmt.Errorf("keyprovider(redis): decode %s: %w", actorID, err)
	}
	return ed25519.PrivateKey(priv), true, nil
}

func (r *Redis) Set(ctx context.Context, actorID string, key ed25519.PrivateKey) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("keyprovider(redis): generate salt: %w", err)
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("keyprovider(redis): generate nonce: %w", err)
	}

	derived := r.deriveKey(salt)
	plain := []byte(base64.StdEncoding.EncodeToString(key))
	sealed := secretbox.Seal(nil, plain, &nonce, &derived)

	out := make([]byte, 0, saltSize+24+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	out = append(out, sealed...)

	if err := r.client.Set(ctx, r.key(actorID), out, 0).Err(); err != nil {
		return fmt.Errorf("keyprovider(redis): set %s: %w", actorID, err)
	}
	return nil
}

func (r *Redis) Has(ctx context.Context, actorID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(actorID)).Result()
	if err != nil {
		return false, fmt.Errorf("keyprovider(redis): exists %s: %w", actorID, err)
	}
	return n > 0, nil
}

func (r *Redis) Delete(ctx context.Context, actorID string) error {
	if err := r.client.Del(ctx, r.key(actorID)).Err(); err != nil {
		return fmt.Errorf("keyprovider(redis): delete %s: %w", actorID, err)
	}
	return nil
}
