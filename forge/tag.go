package forge

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// TagCandidates returns the tag spellings to try against
// ResolveRelease, in order. A release is usually tagged either "1.2.3"
// or "v1.2.3"; a caller who requests the tag they saw on the forge's
// web UI may supply either spelling regardless of which one the
// project actually uses. This mirrors the v-prefix equivalence
// flanksource-deps's github manager already relies on when sorting
// releases by semver (pkg/manager/github/github_build.go): two tags
// are the "same" release if they parse to the same semver.Version once
// the leading "v" is accounted for.
//
// This module's InstallRequest.Tag is an exact-match lookup, never a
// range, so semver's constraint solving is unused here — only
// semver.NewVersion's parse-and-normalize half earns its keep.
func TagCandidates(tag string) []string {
	if tag == "" {
		return nil
	}
	alt, ok := toggledVPrefix(tag)
	if !ok {
		return []string{tag}
	}
	return []string{tag, alt}
}

// toggledVPrefix returns tag with its "v" prefix added or removed,
// plus whether the result is worth trying: both spellings must parse
// as valid semantic versions, otherwise the toggle is likely to
// produce a nonsense tag for a project that doesn't use semver at all.
func toggledVPrefix(tag string) (string, bool) {
	if _, err := semver.NewVersion(tag); err != nil {
		return "", false
	}
	if strings.HasPrefix(tag, "v") || strings.HasPrefix(tag, "V") {
		alt := tag[1:]
		if _, err := semver.NewVersion(alt); err != nil {
			return "", false
		}
		return alt, true
	}
	alt := "v" + tag
	if _, err := semver.NewVersion(alt); err != nil {
		return "", false
	}
	return alt, true
}
