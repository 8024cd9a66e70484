// Package version reports the build version of boqlca.
package version

//nolint:gochecknoglobals // Set at build time via -ldflags "-X github.com/rshade/boqlca/pkg/version.version=..."
var version = "dev"

// GetVersion returns the build version, "dev" for local builds.
func GetVersion() string {
	return version
}
