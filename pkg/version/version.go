// Package version provides version information for context-chunker.
// These variables are set via ldflags during the build process.
package version

import "runtime"

// Version is the current version of the binary.
// Set via -ldflags "-X github.com/cicd-ai-toolkit/context-chunker/pkg/version.Version=..."
var Version = "dev"

// BuildDate is the date when the binary was built.
var BuildDate = "unknown"

// GitCommit is the git commit hash used to build the binary.
var GitCommit = "unknown"

// GoVersion is the Go version used to build the binary.
// Falls back to the running toolchain when not injected.
var GoVersion = runtime.Version()

// String returns a formatted version string.
func String() string {
	return Version
}

// FullString returns a detailed version string including build info.
func FullString() string {
	if Version == "dev" {
		return "context-chunker development version"
	}
	return "context-chunker " + Version + " (" + GitCommit + ", " + BuildDate + ")"
}

// Info returns all version information as a map.
func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"buildDate": BuildDate,
		"gitCommit": GitCommit,
		"goVersion": GoVersion,
	}
}
