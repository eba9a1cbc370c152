// Package version reports the build version of freightdash.
package version

import "github.com/Masterminds/semver/v3"

// Set at build time with -ldflags "-X github.com/rshade/freightdash/pkg/version.version=...".
//
//nolint:gochecknoglobals // Overridden by the linker.
var (
	version = "0.0.0-dev"
	commit  = "none"
)

// GetVersion returns the build version.
func GetVersion() string {
	return version
}

// GetCommit returns the commit the binary was built from.
func GetCommit() string {
	return commit
}

// IsRelease reports whether the version is a valid release version without a
// pre-release suffix.
func IsRelease() bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return v.Prerelease() == ""
}
