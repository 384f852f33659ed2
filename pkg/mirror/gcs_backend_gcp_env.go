//go:build gcp

package mirror

import (
	"context"
	"fmt"
	"os"
)

func newGCSBackendFromEnv(ctx context.Context) (Backend, error) {
	bucket := os.Getenv("GITGOV_MIRROR_GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("GITGOV_MIRROR_GCS_BUCKET is required for a GCS mirror")
	}
	return NewGCSBackend(ctx, GCSConfig{Bucket: bucket, Prefix: os.Getenv("GITGOV_MIRROR_GCS_PREFIX")})
}
