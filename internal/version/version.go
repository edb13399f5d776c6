package version

// Version is the current version of the trading client.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/krx-lab/meridian-trading/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// GetVersion returns the current version of the trading client.
func GetVersion() string {
	return Version
}
