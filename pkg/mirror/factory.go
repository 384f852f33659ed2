package mirror

import (
	"context"
	"fmt"
	"os"
)

// BackendType selects which remote object store a Mirror backs up to.
type BackendType string

const (
	BackendTypeS3  BackendType = "s3"
	BackendTypeGCS BackendType = "gcs"
)

// NewBackendFromEnv builds a Backend from environment variables.
//
//   - GITGOV_MIRROR_BACKEND: "s3" or "gcs" (required)
//
// For S3:
//   - GITGOV_MIRROR_S3_BUCKET (required)
//   - GITGOV_MIRROR_S3_REGION or AWS_REGION (default "us-east-1")
//   - GITGOV_MIRROR_S3_ENDPOINT (optional, for MinIO/LocalStack)
//   - GITGOV_MIRROR_S3_PREFIX (optional)
//
// For GCS (requires building with -tags gcp):
//   - GITGOV_MIRROR_GCS_BUCKET (required)
//   - GITGOV_MIRROR_GCS_PREFIX (optional)
func NewBackendFromEnv(ctx context.Context) (Backend, error) {
	backendType := BackendType(os.Getenv("GITGOV_MIRROR_BACKEND"))
	switch backendType {
	case BackendTypeS3:
		return newS3BackendFromEnv(ctx)
	case BackendTypeGCS:
		return newGCSBackendFromEnv(ctx)
	default:
		return nil, fmt.Errorf("unsupported or unset GITGOV_MIRROR_BACKEND: %q", backendType)
	}
}

func newS3BackendFromEnv(ctx context.Context) (Backend, error) {
	bucket := os.Getenv("GITGOV_MIRROR_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("GITGOV_MIRROR_S3_BUCKET is required for an S3 mirror")
	}
	region := os.Getenv("GITGOV_MIRROR_S3_REGION")
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}
	return NewS3Backend(ctx, S3Config{
		Bucket:   bucket,
		Region:   region,
		Endpoint: os.Getenv("GITGOV_MIRROR_S3_ENDPOINT"),
		Prefix:   os.Getenv("GITGOV_MIRROR_S3_PREFIX"),
	})
}
