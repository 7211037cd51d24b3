// internal/slug/slug.go
package slug

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

const (
	maxLength = 30

	// Collision strategy bounds: numeric suffixes first, then short random
	// suffixes, then a time-of-day fallback that always terminates.
	numericAttempts = 10
	randomAttempts  = 10
)

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	separators   = regexp.MustCompile(`[\s_]+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

const randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ExistsFunc probes whether a slug is already taken, excluding the given
// app id so an app can keep its own slug across renames.
type ExistsFunc func(ctx context.Context, slug string, excludeAppID string) (bool, error)

// Normalize reduces an arbitrary name to the slug pattern: lowercase ASCII
// alphanumerics and hyphens, collapsed separators, bounded length, always
// letter-leading, defaulting to "app" when nothing survives.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = invalidChars.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxLength {
		s = strings.Trim(s[:maxLength], "-")
	}
	if s == "" {
		return "app"
	}
	// Slugs must start with a letter; digit-leading names get a prefix.
	if s[0] < 'a' || s[0] > 'z' {
		s = "app-" + s
		if len(s) > maxLength {
			s = strings.Trim(s[:maxLength], "-")
		}
	}
	return s
}

// EnsureUnique returns a free slug derived from base. Common-case slugs
// stay short and readable; the strategy still terminates under adversarial
// collision patterns.
func EnsureUnique(ctx context.Context, exists ExistsFunc, base string, excludeAppID string) (string, error) {
	candidate := Normalize(base)

	taken, err := exists(ctx, candidate, excludeAppID)
	if err != nil {
		return "", fmt.Errorf("probing slug '%s': %w", candidate, err)
	}
	if !taken {
		return candidate, nil
	}

	for i := 1; i <= numericAttempts; i++ {
		next := withSuffix(candidate, fmt.Sprintf("%d", i))
		taken, err := exists(ctx, next, excludeAppID)
		if err != nil {
			return "", fmt.Errorf("probing slug '%s': %w", next, err)
		}
		if !taken {
			return next, nil
		}
	}

	for i := 0; i < randomAttempts; i++ {
		next := withSuffix(candidate, randomSuffix(4))
		taken, err := exists(ctx, next, excludeAppID)
		if err != nil {
			return "", fmt.Errorf("probing slug '%s': %w", next, err)
		}
		if !taken {
			return next, nil
		}
	}

	// Guaranteed termination: time-of-day suffix, not re-probed.
	return withSuffix(candidate, time.Now().Format("150405")), nil
}

// withSuffix appends "-suffix", trimming the base so the result stays
// within the slug length bound.
func withSuffix(base, suffix string) string {
	room := maxLength - len(suffix) - 1
	if len(base) > room {
		base = strings.Trim(base[:room], "-")
	}
	return base + "-" + suffix
}

func randomSuffix(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(randomAlphabet))))
		if err != nil {
			// crypto/rand failing is effectively unreachable; degrade to a
			// time-derived character rather than panicking.
			b.WriteByte(randomAlphabet[time.Now().Nanosecond()%len(randomAlphabet)])
			continue
		}
		b.WriteByte(randomAlphabet[idx.Int64()])
	}
	return b.String()
}
