package agentrun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/gitgoverr"
)

func TestRun_RejectsNonLocalEngine(t *testing.T) {
	ctx := context.Background()
	r, err := NewRunner(ctx)
	require.NoError(t, err)
	defer r.Close(ctx)

	_, err = r.Run(ctx, contracts.Engine{Type: contracts.EngineTypeAPI, URL: "https://example.com"}, contracts.Event{})
	require.Error(t, err)
	require.True(t, gitgoverr.Is(err, gitgoverr.KindInvalidData))
}

func TestRun_MissingModuleFileFails(t *testing.T) {
	ctx := context.Background()
	r, err := NewRunner(ctx)
	require.NoError(t, err)
	defer r.Close(ctx)

	_, err = r.Run(ctx, contracts.Engine{Type: contracts.EngineTypeLocal, Entrypoint: "/nonexistent/module.wasm", Function: "run"}, contracts.Event{})
	require.Error(t, err)
	require.True(t, gitgoverr.Is(err, gitgoverr.KindIOError))
}
