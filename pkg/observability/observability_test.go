package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_DisabledProviderIsSafeNoOp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	p, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, p)

	ctx, done := p.TrackOperation(context.Background(), "Backlog.CreateTask")
	require.NotNil(t, ctx)
	done(nil)
	done(errors.New("boom"))

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestDefaultConfig_DisabledByDefault(t *testing.T) {
	cfg := DefaultConfig()
	require.False(t, cfg.Enabled)
	require.Equal(t, "gitgov-core", cfg.ServiceName)
}
