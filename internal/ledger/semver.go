package ledger

import (
	"strings"

	"golang.org/x/mod/semver"
)

// canonicalTag returns tag in the "vMAJOR.MINOR.PATCH" form golang.org/x/mod/semver expects.
// Tags are recorded without normalization; the leading "v" is optional.
func canonicalTag(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}

// ValidTag reports whether tag is a full MAJOR.MINOR.PATCH semantic version,
// with or without a leading "v". Shorthands like "1.2" are not: they would
// compare equal to "1.2.0" without being the same tag.
func ValidTag(tag string) bool {
	c := canonicalTag(tag)
	return semver.Canonical(c) == strings.TrimSuffix(c, semver.Build(c))
}

// CompareTags compares two tags by semantic version precedence.
// The result is 0 if a == b, -1 if a < b, or +1 if a > b.
// An invalid tag is lower than every valid one; two invalid tags compare equal.
func CompareTags(a, b string) int {
	return semver.Compare(canonicalTag(a), canonicalTag(b))
}
