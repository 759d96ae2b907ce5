// Package version holds build version information injected at link time.
package version

// GitRelease is the release tag or commit, set via -ldflags at build time.
var GitRelease = "dev"

// GitCommit is the short commit hash, set via -ldflags at build time.
var GitCommit = ""
