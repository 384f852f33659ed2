// Package agentrun executes an AgentRecord whose engine is type "local": a
// WASM module loaded from Engine.Entrypoint, invoking Engine.Function with
// the whole triggering event (type, timestamp, source, payload) as JSON on
// stdin and reading the result back
// from stdout. This is the sandbox SPEC_FULL.md's domain stack commits
// tetratelabs/wazero to, keeping agent code un-trusted and out-of-process
// without needing a real subprocess.
package agentrun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/gitgoverr"
)

// Runner executes local WASM agents. One Runner can run many modules; the
// underlying wazero runtime and its compilation cache are shared.
type Runner struct {
	runtime wazero.Runtime
}

// NewRunner creates a wazero runtime with WASI preview1 imports instantiated
// (most off-the-shelf TinyGo/Rust WASM agent builds assume WASI is present).
func NewRunner(ctx context.Context) (*Runner, error) {
	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("agentrun: instantiate WASI: %w", err)
	}
	return &Runner{runtime: rt}, nil
}

func (r *Runner) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// Run loads the module at entrypoint, binds the whole event as JSON to stdin,
// and runs it to completion, returning whatever it wrote to stdout.
// function is recorded for future multi-export modules but wazero's WASI
// command modules expose a single _start entrypoint, so today it only
// documents intent.
func (r *Runner) Run(ctx context.Context, engine contracts.Engine, event contracts.Event) ([]byte, error) {
	const op = "agentrun.Run"
	if engine.Type != contracts.EngineTypeLocal {
		return nil, gitgoverr.New(gitgoverr.KindInvalidData, op, "engine type must be local")
	}
	wasmBytes, err := os.ReadFile(engine.Entrypoint)
	if err != nil {
		return nil, gitgoverr.Wrap(gitgoverr.KindIOError, op, "read wasm module", err)
	}

	compiled, err := r.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "compile wasm module", err)
	}
	defer compiled.Close(ctx)

	stdin := bytes.NewReader(eventToJSON(event))
	var stdout bytes.Buffer

	cfg := wazero.NewModuleConfig().
		WithStdin(stdin).
		WithStdout(&stdout).
		WithArgs(engine.Function).
		WithName(engine.Entrypoint)

	mod, err := r.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, gitgoverr.Wrap(gitgoverr.KindIOError, op, fmt.Sprintf("run local agent %s", engine.Entrypoint), err)
	}
	defer mod.Close(ctx)

	return stdout.Bytes(), nil
}

func eventToJSON(event contracts.Event) []byte {
	b, err := json.Marshal(event)
	if err != nil {
		return []byte("{}")
	}
	return b
}
