//go:build property
// +build property

package canonicalize_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/gitgovernance/core/pkg/canonicalize"
)

// TestChecksumDeterminism verifies Checksum(obj) == Checksum(obj) for any obj,
// and that re-ordering map construction never changes the digest.
func TestChecksumDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("checksum is a deterministic function of the payload", prop.ForAll(
		func(keys []string, values []string) bool {
			obj := make(map[string]any)
			for i := 0; i < len(keys) && i < len(values); i++ {
				if keys[i] != "" {
					obj[keys[i]] = values[i]
				}
			}
			if len(obj) == 0 {
				return true
			}

			h1, err1 := canonicalize.Checksum(obj)
			h2, err2 := canonicalize.Checksum(obj)
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			return h1 == h2
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("key insertion order never changes the canonical form", prop.ForAll(
		func(k1, v1, k2, v2 string) bool {
			if k1 == "" || k2 == "" || k1 == k2 {
				return true
			}
			forward := map[string]any{k1: v1, k2: v2}
			backward := map[string]any{k2: v2, k1: v1}

			a, err := canonicalize.JCSString(forward)
			if err != nil {
				return false
			}
			b, err := canonicalize.JCSString(backward)
			if err != nil {
				return false
			}
			return a == b
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
