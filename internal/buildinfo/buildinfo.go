// Package buildinfo stores build-time metadata shared across packages.
package buildinfo

// Version is set via ldflags during build. Defaults to "dev".
var Version = "dev"

// Commit is the VCS revision, set via ldflags.
var Commit = ""

// IsDev reports whether this is an unreleased build.
func IsDev() bool {
	return Version == "dev"
}
