package keyprovider

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// Env is a read-only KeyProvider for CI/automation contexts, mapping
// actorId -> UPPER_SNAKE env var names under a configurable prefix (spec
// §6). Set/Delete are unsupported: env vars are provisioned out of band.
type Env struct {
	prefix string
}

func NewEnv(prefix string) *Env {
	return &Env{prefix: prefix}
}

func (e *Env) varName(actorID string) string {
	slug := strings.ToUpper(actorID)
	slug = strings.NewReplacer(":", "_", "-", "_").Replace(slug)
	return e.prefix + slug
}

func (e *Env) Get(_ context.Context, actorID string) (ed25519.PrivateKey, bool, error) {
	v, ok := os.LookupEnv(e.varName(actorID))
	if !ok || v == "" {
		return nil, false, nil
	}
	raw, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, false, fmt.Errorf("keyprovider(env): decode %s: %w", actorID, err)
	}
	return ed25519.PrivateKey(raw), true, nil
}

func (e *Env) Set(_ context.Context, actorID string, _ ed25519.PrivateKey) error {
	return fmt.Errorf("keyprovider(env): Set unsupported, set %s out of band", e.varName(actorID))
}

func (e *Env) Has(ctx context.Context, actorID string) (bool, error) {
	_, ok, err := e.Get(ctx, actorID)
	return ok, err
}

func (e *Env) Delete(_ context.Context, actorID string) error {
	return fmt.Errorf("keyprovider(env): Delete unsupported, unset %s out of band", e.varName(actorID))
}
