// Package match resolves dependency selection patterns against a pool of
// sibling test names. A pattern is either a literal name, compared by exact
// string equality, or a shell glob containing `*`. Matching is pure and
// side-effect free; an empty result is a valid outcome, not an error.
package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IsLiteral reports whether the pattern contains no glob metacharacters and
// is therefore matched by exact string equality.
func IsLiteral(pattern string) bool {
	return !strings.ContainsAny(pattern, `*?[\`)
}

// Validate checks that the pattern is well formed. Literal patterns are
// always valid; glob patterns are checked with doublestar. A malformed
// pattern is a configuration error surfaced at graph-build time.
func Validate(pattern string) error {
	if IsLiteral(pattern) {
		return nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("malformed pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	return nil
}

// Match returns the subset of pool whose names match pattern, as a sorted,
// duplicate-free slice. The result has set semantics: it is independent of
// the order of pool and idempotent. Match returns an error only for a
// malformed glob pattern; zero matches is a valid empty result.
func Match(pattern string, pool []string) ([]string, error) {
	seen := make(map[string]bool, len(pool))
	var out []string

	literal := IsLiteral(pattern)
	for _, name := range pool {
		if seen[name] {
			continue
		}
		ok := false
		if literal {
			ok = name == pattern
		} else {
			var err error
			ok, err = doublestar.Match(pattern, name)
			if err != nil {
				return nil, err
			}
		}
		if ok {
			seen[name] = true
			out = append(out, name)
		}
	}

	sort.Strings(out)
	return out, nil
}
