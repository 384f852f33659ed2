package keyprovider

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "actor:human:alice", priv))
	got, ok, err := m.Get(ctx, "actor:human:alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, priv, got)

	has, err := m.Has(ctx, "actor:human:alice")
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, m.Delete(ctx, "actor:human:alice"))
	_, ok, err = m.Get(ctx, "actor:human:alice")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFS_EncryptsAtRestAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFS(dir, []byte("correct-horse-battery-staple"))
	require.NoError(t, err)

	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	require.NoError(t, fs.Set(ctx, "actor:human:bob", priv))

	raw, err := os.ReadFile(filepath.Join(dir, "actor_human_bob.key"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), string(priv))

	got, ok, err := fs.Get(ctx, "actor:human:bob")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, priv, got)

	other, err := NewFS(dir, []byte("wrong-passphrase"))
	require.NoError(t, err)
	_, _, err = other.Get(ctx, "actor:human:bob")
	require.Error(t, err)
}

func TestFS_RejectsEmptyPassphrase(t *testing.T) {
	_, err := NewFS(t.TempDir(), nil)
	require.Error(t, err)
}

func TestEnv_ReadsUpperSnakeVar(t *testing.T) {
	ctx := context.Background()
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	e := NewEnv("GITGOV_KEY_")
	t.Setenv("GITGOV_KEY_ACTOR_HUMAN_CAROL", base64.StdEncoding.EncodeToString(priv))

	got, ok, err := e.Get(ctx, "actor:human:carol")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, priv, got)

	require.Error(t, e.Set(ctx, "actor:human:carol", priv))
	require.Error(t, e.Delete(ctx, "actor:human:carol"))
}

func TestEnv_MissingIsNotFoundNotError(t *testing.T) {
	e := NewEnv("GITGOV_KEY_")
	_, ok, err := e.Get(context.Background(), "actor:human:nobody")
	require.NoError(t, err)
	require.False(t, ok)
}
