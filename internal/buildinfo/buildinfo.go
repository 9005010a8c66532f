// Package buildinfo holds build-time metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/pedrosilva/notifier/internal/buildinfo.Version=v1.2.0"
package buildinfo

// Set at link time.
var (
	Version   = ""
	BuildDate = ""
)

const unknown = "unknown"

// GetVersion returns the version or "unknown" for development builds.
func GetVersion() string {
	if Version == "" {
		return unknown
	}
	return Version
}

// GetBuildDate returns the build date or "unknown".
func GetBuildDate() string {
	if BuildDate == "" {
		return unknown
	}
	return BuildDate
}

// Release names the build for error telemetry.
func Release() string {
	return "notifier@" + GetVersion()
}
