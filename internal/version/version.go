// Package version exposes build metadata stamped in via -ldflags.
package version

var (
	Version = "dev"
	Commit  = ""
)

// GetInfo returns a printable version string.
func GetInfo() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}
