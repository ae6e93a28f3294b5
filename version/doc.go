// Package version provides build version information embedding for
// bitsyflow applications.
//
// Version, git commit, branch, and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X bitsyflow/core/version.Version=1.0.0"
package version
