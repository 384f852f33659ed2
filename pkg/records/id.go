// Package records implements per-kind factories and validators (spec §4.2):
// id generation, defaulting a partial payload into a complete one, and
// loadX dual validation of untrusted envelopes read from storage.
package records

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/gitgovernance/core/pkg/gitgoverr"
)

// actorIDPattern matches spec §3: "^(human|agent)(:[a-z0-9-]+)+$".
var actorIDPattern = regexp.MustCompile(`^(human|agent)(:[a-z0-9-]+)+$`)

// nonSlugRun matches any run of characters that isn't a lowercase letter or
// digit (hyphens included), for collapsing into a single separator during
// slugging.
var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes title into the kebab-case slug used by id generation:
// unicode-normalize (NFKD), drop diacritics, lowercase, collapse any
// non-alphanumeric run to a single hyphen, trim leading/trailing hyphens.
func Slugify(title string) string {
	decomposed := norm.NFKD.String(title)
	var b strings.Builder
	for _, r := range decomposed {
		// Skip combining marks left behind by NFKD decomposition.
		if r >= 0x0300 && r <= 0x036F {
			continue
		}
		b.WriteRune(r)
	}
	slug := strings.ToLower(b.String())
	slug = nonSlugRun.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

// generateID builds "{epochSeconds}-{kind}-{slug}" (spec §4.2).
func generateID(kind, title string, epochSeconds int64) string {
	return fmt.Sprintf("%d-%s-%s", epochSeconds, kind, Slugify(title))
}

func GenerateTaskID(title string, nowEpochSeconds int64) string {
	return generateID("task", title, nowEpochSeconds)
}

func GenerateCycleID(title string, nowEpochSeconds int64) string {
	return generateID("cycle", title, nowEpochSeconds)
}

func GenerateFeedbackID(title string, nowEpochSeconds int64) string {
	return generateID("feedback", title, nowEpochSeconds)
}

func GenerateExecutionID(title string, nowEpochSeconds int64) string {
	return generateID("execution", title, nowEpochSeconds)
}

func GenerateChangelogID(title string, nowEpochSeconds int64) string {
	return generateID("changelog", title, nowEpochSeconds)
}

// GenerateActorID builds "{type}:{kebab-slug-of-displayName}" satisfying
// actorIDPattern, e.g. "human:alice-smith" or "agent:release-bot".
func GenerateActorID(actorType, displayName string) string {
	return fmt.Sprintf("%s:%s", actorType, Slugify(displayName))
}

// ValidateActorID reports whether id matches the actor id regex.
func ValidateActorID(id string) bool {
	return actorIDPattern.MatchString(id)
}

// IDTimestamp extracts the leading epoch-seconds integer from a non-actor
// id ("{epoch}-{kind}-{slug}"). Fails INVALID_DATA if it isn't a positive
// integer, matching spec §3's "ID timestamp" invariant.
func IDTimestamp(id string) (int64, error) {
	idx := strings.Index(id, "-")
	if idx <= 0 {
		return 0, gitgoverr.New(gitgoverr.KindInvalidData, "IDTimestamp", fmt.Sprintf("malformed id %q", id))
	}
	ts, err := strconv.ParseInt(id[:idx], 10, 64)
	if err != nil || ts <= 0 {
		return 0, gitgoverr.New(gitgoverr.KindInvalidData, "IDTimestamp", fmt.Sprintf("non-positive or non-integer timestamp in id %q", id))
	}
	return ts, nil
}
