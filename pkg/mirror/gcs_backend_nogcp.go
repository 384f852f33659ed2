//go:build !gcp

package mirror

import (
	"context"
	"fmt"
)

func newGCSBackendFromEnv(ctx context.Context) (Backend, error) {
	return nil, fmt.Errorf("GCS mirror backend is not enabled in this build (use -tags gcp)")
}
