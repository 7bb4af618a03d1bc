package core

// Version information, overridable at build time via -ldflags.
var (
	// Version is the semantic version of the build.
	Version = "1.0.0"

	// GitCommit is the short commit hash the binary was built from.
	GitCommit = "unknown"
)

// VersionString returns a human-readable version string.
func VersionString() string {
	return Version + " (" + GitCommit + ")"
}
