package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Set at build time with -ldflags "-X .../internal/version.Current=1.2.3"
var (
	Current = "0.0.0-dev"
	Commit  = ""
)

// String returns the running version, with the commit when known
func String() string {
	ver := strings.TrimPrefix(Current, "v")
	if Commit != "" {
		ver += "+" + Commit
	}
	return ver
}

// ParseTag parses a release tag such as "v1.2.3" or "2024.1015.0"
func ParseTag(tag string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(tag))
	if err != nil {
		return nil, fmt.Errorf("invalid version tag %q: %w", tag, err)
	}
	return v, nil
}

// IsNewer reports whether tag is a higher version than current.
// Tags that do not parse are never newer.
func IsNewer(tag, current string) bool {
	candidate, err := ParseTag(tag)
	if err != nil {
		return false
	}
	running, err := ParseTag(current)
	if err != nil {
		return false
	}
	return candidate.GreaterThan(running)
}

// IsDev reports whether the running binary is an unreleased build
func IsDev() bool {
	v, err := ParseTag(Current)
	return err != nil || v.Prerelease() == "dev"
}
